package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDesktop_FallsBackToTerminal(t *testing.T) {
	var buf bytes.Buffer
	d := &Desktop{
		out:    &buf,
		sound:  func() error { return errUnsupported },
		notify: func(title, message string) error { return errors.New("no display") },
	}

	d.PlayAlertSound()
	d.PlayAlertSound()
	if got := strings.Count(buf.String(), "\a"); got != 2 {
		t.Errorf("rang the bell %d times, expected 2", got)
	}

	buf.Reset()
	d.ShowNotification("12306 车票提醒 - 北京北到汉中东", "车次: G2203, 出发: 08:00")
	out := buf.String()
	if !strings.Contains(out, "12306 车票提醒 - 北京北到汉中东") || !strings.Contains(out, "车次: G2203") {
		t.Errorf("terminal output = %q", out)
	}
}

func TestDesktop_PlatformSound(t *testing.T) {
	var buf bytes.Buffer
	played := 0
	d := &Desktop{
		out:    &buf,
		sound:  func() error { played++; return nil },
		notify: func(title, message string) error { return nil },
	}

	d.PlayAlertSound()
	if played != 1 {
		t.Errorf("platform sound played %d times, expected 1", played)
	}
	if buf.Len() != 0 {
		t.Errorf("bell written although the platform sound worked: %q", buf.String())
	}
}
