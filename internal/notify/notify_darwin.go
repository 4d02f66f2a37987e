package notify

import (
	"fmt"
	"strings"
)

func playSound() error {
	return run("afplay", "/System/Library/Sounds/Glass.aiff")
}

func showNotification(title, message string) error {
	script := fmt.Sprintf("display notification %s with title %s sound name \"Glass\"",
		appleScriptString(message), appleScriptString(title))
	return run("osascript", "-e", script)
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
