//go:build !darwin && !linux && !windows

package notify

func playSound() error {
	return errUnsupported
}

func showNotification(title, message string) error {
	return errUnsupported
}
