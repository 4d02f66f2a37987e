package notify

func playSound() error {
	return run("powershell", "-NoProfile", "-Command", "[console]::beep(1000,500)")
}

func showNotification(title, message string) error {
	return errUnsupported
}
