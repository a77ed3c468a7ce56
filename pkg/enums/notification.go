package enums

import "fmt"

// NotificationChannel is the delivery channel for a notification record.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelPush  NotificationChannel = "push"
	ChannelInApp NotificationChannel = "in_app"
)

var validNotificationChannels = []NotificationChannel{
	ChannelEmail,
	ChannelSMS,
	ChannelPush,
	ChannelInApp,
}

// IsValid reports whether the value is a known NotificationChannel.
func (n NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationChannel converts raw input into a NotificationChannel.
func ParseNotificationChannel(value string) (NotificationChannel, error) {
	for _, candidate := range validNotificationChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification channel %q", value)
}

// NotificationStatus is the delivery state of one notification record.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusRead      NotificationStatus = "read"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// IsValid reports whether the value is a known NotificationStatus.
func (n NotificationStatus) IsValid() bool {
	switch n {
	case NotificationStatusPending, NotificationStatusSent, NotificationStatusDelivered,
		NotificationStatusRead, NotificationStatusFailed:
		return true
	}
	return false
}

// RecipientType distinguishes who a notification is addressed to.
type RecipientType string

const (
	RecipientCustomer RecipientType = "customer"
	RecipientVendor   RecipientType = "vendor"
	RecipientAdmin    RecipientType = "admin"
)

// IsValid reports whether the value is a known RecipientType.
func (r RecipientType) IsValid() bool {
	switch r {
	case RecipientCustomer, RecipientVendor, RecipientAdmin:
		return true
	}
	return false
}
