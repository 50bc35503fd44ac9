package ports

import "context"

// Notification is a push message for one courier device.
type Notification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// NotificationSender delivers push notifications on a best-effort basis.
// Callers log failures and never roll anything back because of them.
type NotificationSender interface {
	Send(ctx context.Context, n Notification) error
}
