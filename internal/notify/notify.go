// Package notify shows user-visible messages outside the terminal.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"
)

// Notifier provides a generic interface for sending notifications.
type Notifier interface {
	Notify(title string, message string)
}

// New returns a desktop notifier, or one that only logs when desktop notifications are disabled.
func New(enabled bool, logger *logrus.Entry) Notifier {
	if !enabled {
		return &LogNotifier{logger: logger}
	}
	return &DesktopNotifier{logger: logger}
}

// DesktopNotifier sends notifications through the desktop's notification service.
type DesktopNotifier struct {
	logger *logrus.Entry
}

func (n *DesktopNotifier) Notify(title, message string) {
	n.logger.WithField("title", title).WithField("message", message).Info("sending desktop notification")

	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.WithError(err).Error("failed to send desktop notification")
	}
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger *logrus.Entry
}

func (n *LogNotifier) Notify(title, message string) {
	n.logger.WithField("title", title).Warn(message)
}
