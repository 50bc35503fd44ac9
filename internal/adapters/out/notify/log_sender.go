package notify

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
)

// LogSender writes notifications to the log instead of delivering them.
// The device token is never logged.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "log_sender")}
}

// Send logs the notification and always succeeds.
func (s *LogSender) Send(ctx context.Context, n ports.Notification) error {
	s.logger.InfoContext(ctx, "Notification not delivered, no broker configured",
		"title", n.Title,
		"body", n.Body,
		"order_id", n.Data["orderId"],
	)
	return nil
}
