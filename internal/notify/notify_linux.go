package notify

func playSound() error {
	return run("paplay", "/usr/share/sounds/freedesktop/stereo/complete.oga")
}

func showNotification(title, message string) error {
	return run("notify-send", "--urgency=critical", title, message)
}
