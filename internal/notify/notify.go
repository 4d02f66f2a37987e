// Package notify alerts the operator through the host platform's sound and
// desktop notification facilities, falling back to the terminal.
package notify

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
)

// errUnsupported is returned by platform hooks with nothing to offer
var errUnsupported = errors.New("not supported on this platform")

// Desktop is the alert capability for the current platform
type Desktop struct {
	out    io.Writer
	sound  func() error
	notify func(title, message string) error
}

// New returns the alert capability for the platform the binary was built for.
// Terminal output and fallback bells go to out.
func New(out io.Writer) *Desktop {
	return &Desktop{
		out:    out,
		sound:  playSound,
		notify: showNotification,
	}
}

// PlayAlertSound plays one short alert, ringing the terminal bell when the
// platform sound cannot be played
func (d *Desktop) PlayAlertSound() {
	if err := d.sound(); err != nil {
		fmt.Fprint(d.out, "\a")
	}
}

// ShowNotification prints the alert to the terminal and raises a desktop
// notification where the platform supports one
func (d *Desktop) ShowNotification(title, message string) {
	fmt.Fprintf(d.out, "\n%s\n%s\n\n", title, message)

	if err := d.notify(title, message); err != nil && !errors.Is(err, errUnsupported) {
		log.Printf("Warning: desktop notification failed: %v", err)
	}
}

// run executes a helper program if it is installed
func run(name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return errUnsupported
	}
	if out, err := exec.Command(path, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}
