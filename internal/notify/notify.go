// Package notify reports tool failures to chat channels.
package notify

import (
	"go.uber.org/zap"
)

// NotificationType represents the severity of a notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Tool    string // Which binary raised it
	Subject string // Optional workflow run, result dir or binary
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers, returning the last error
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }

// FromWebhook returns a Slack notifier for webhookURL, or a NoopNotifier
// when no webhook is configured.
func FromWebhook(webhookURL string) Notifier {
	if webhookURL == "" {
		return NoopNotifier{}
	}
	return NewSlackNotifier(webhookURL)
}

// SendLogged sends n and logs instead of returning a failure
func SendLogged(notifier Notifier, n Notification, logger *zap.Logger) {
	if notifier == nil {
		return
	}
	if err := notifier.Send(n); err != nil && logger != nil {
		logger.Warn("sending notification", zap.String("title", n.Title), zap.Error(err))
	}
}
