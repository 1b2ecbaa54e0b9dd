package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Message is a plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages on a best-effort basis.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of delivering them.
// Used when no mail relay is configured.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (n LogNotifier) Send(_ context.Context, msg Message) error {
	n.Logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Infof("mail not sent (no relay configured):\n%s", msg.Body)
	return nil
}
