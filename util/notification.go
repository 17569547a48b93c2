package util

import (
	"context"
	"os/exec"
	"time"
)

const notifySendTimeout = time.Second * 5

// Notification constructs the title and message for a desktop notification
type Notification struct {
	Title   string
	Message string
}

// SendDesktopNotification shows the notification via notify-send. Callers
// treat failures (e.g. headless session) as non-fatal
func SendDesktopNotification(appName string, n Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), notifySendTimeout)
	defer cancel()

	return exec.CommandContext(ctx, "notify-send", "-a", appName, n.Title, n.Message).Run()
}
