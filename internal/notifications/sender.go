package notifications

import (
	"context"
	"fmt"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/logger"
)

// Sender delivers a notification over one channel. Real SMS/email/push
// providers implement this; the defaults only log.
type Sender interface {
	Channel() enums.NotificationChannel
	Send(ctx context.Context, notification *models.Notification) error
}

type loggingSender struct {
	channel enums.NotificationChannel
	logg    *logger.Logger
}

// NewLoggingSender returns a stand-in Sender that logs the delivery.
func NewLoggingSender(channel enums.NotificationChannel, logg *logger.Logger) Sender {
	return &loggingSender{channel: channel, logg: logg}
}

func (s *loggingSender) Channel() enums.NotificationChannel {
	return s.channel
}

func (s *loggingSender) Send(ctx context.Context, notification *models.Notification) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"notification_id": notification.ID,
			"channel":         s.channel,
			"recipient_id":    notification.RecipientID,
		})
		s.logg.Info(ctx, "notification delivered (stub)")
	}
	return nil
}

// inAppSender is a no-op: the stored row is itself the in-app delivery.
type inAppSender struct{}

func (inAppSender) Channel() enums.NotificationChannel { return enums.ChannelInApp }

func (inAppSender) Send(context.Context, *models.Notification) error { return nil }

// DefaultSenders wires the stub providers for every supported channel.
func DefaultSenders(logg *logger.Logger) []Sender {
	return []Sender{
		inAppSender{},
		NewLoggingSender(enums.ChannelEmail, logg),
		NewLoggingSender(enums.ChannelSMS, logg),
		NewLoggingSender(enums.ChannelPush, logg),
	}
}

func senderIndex(senders []Sender) (map[enums.NotificationChannel]Sender, error) {
	index := make(map[enums.NotificationChannel]Sender, len(senders))
	for _, sender := range senders {
		channel := sender.Channel()
		if !channel.IsValid() {
			return nil, fmt.Errorf("unknown notification channel %q", channel)
		}
		if _, dup := index[channel]; dup {
			return nil, fmt.Errorf("duplicate sender for channel %q", channel)
		}
		index[channel] = sender
	}
	return index, nil
}
