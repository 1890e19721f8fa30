package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=catalogscraper", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %s with title %s`, appleScriptQuote(message), appleScriptQuote(title))
	return exec.Command("osascript", "-e", script).Run()
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// Notifier reports the end of a run on the desktop
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. A disabled notifier
// only prints to the console.
func NewNotifier(enabled bool) *Notifier {
	if !enabled {
		return &Notifier{}
	}

	switch runtime.GOOS {
	case "linux":
		return &Notifier{sender: &LinuxNotificationSender{}}
	case "darwin":
		return &Notifier{sender: &MacOSNotificationSender{}}
	default:
		return &Notifier{}
	}
}

// NewNotifierWithSender creates a Notifier delivering through sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// RunFinished announces the outcome of a crawl or fill run. Delivery
// failures are returned so the caller can log them.
func (n *Notifier) RunFinished(mode string, succeeded, failed int, runErr error) error {
	title := fmt.Sprintf("catalogscraper %s finished", mode)
	message := fmt.Sprintf("%d scraped, %d failed", succeeded, failed)
	if runErr != nil {
		title = fmt.Sprintf("catalogscraper %s stopped", mode)
		message += ": " + runErr.Error()
	}

	if n.sender == nil {
		return nil
	}
	return n.sender.Send(title, message)
}
