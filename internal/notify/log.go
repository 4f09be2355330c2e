package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier logs messages instead of delivering them. It is used when no
// email provider is configured.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("email delivery disabled, message not sent")
	return nil
}
