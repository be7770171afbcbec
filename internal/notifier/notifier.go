package notifier

import (
	"context"

	"go.uber.org/multierr"
)

// Notification is one message with optional file attachments
type Notification struct {
	To          []string
	Subject     string
	Body        string
	Attachments []string // file paths
}

// Notifier defines the interface for delivering run results
type Notifier interface {
	// Notify delivers the notification
	Notify(ctx context.Context, n *Notification) error
}

// Multi delivers to every notifier, even when an earlier one fails
type Multi []Notifier

// Notify calls each notifier and combines their errors
func (m Multi) Notify(ctx context.Context, n *Notification) error {
	var err error
	for _, notifier := range m {
		err = multierr.Append(err, notifier.Notify(ctx, n))
	}
	return err
}
