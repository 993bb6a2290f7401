package models

const (
	NotificationTypeSignedUp     = "signed_up"
	NotificationTypeUnregistered = "unregistered"

	ChannelEmail = "email"
	ChannelEvent = "event"

	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Notification struct {
	ID         string `json:"id"`
	Type       string `json:"type"` // "signed_up", "unregistered"
	Activity   string `json:"activity"`
	Email      string `json:"email"`
	OccurredAt string `json:"occurredAt"`
}

type NotificationTemplate struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotificationResult records per-channel delivery status.
type NotificationResult struct {
	NotificationID string            `json:"notificationId"`
	Channels       map[string]string `json:"channels"`
}
