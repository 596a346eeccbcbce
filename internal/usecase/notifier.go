package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"subscriber-relay-bot/internal/domain"
)

// DeliveryFailure is returned when the admin notification could not be sent.
type DeliveryFailure struct {
	ChatID int64
	Err    error
}

func (e *DeliveryFailure) Error() string {
	return fmt.Sprintf("deliver to admin chat %d: %v", e.ChatID, e.Err)
}

func (e *DeliveryFailure) Unwrap() error { return e.Err }

// AdminNotifier sends best-effort messages to the administrator chat.
type AdminNotifier struct {
	sender  domain.MessageSender
	adminID int64
	logger  *slog.Logger
}

func NewAdminNotifier(sender domain.MessageSender, adminID int64, logger *slog.Logger) *AdminNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminNotifier{sender: sender, adminID: adminID, logger: logger}
}

// NotifyAdmin returns nil or a *DeliveryFailure. The failure is already logged,
// so callers are free to drop it.
func (n *AdminNotifier) NotifyAdmin(ctx context.Context, text string) error {
	if err := n.sender.SendText(ctx, n.adminID, text); err != nil {
		n.logger.Error("admin notification failed", "chat_id", n.adminID, "error", err)
		return &DeliveryFailure{ChatID: n.adminID, Err: err}
	}
	n.logger.Info("admin notified", "chat_id", n.adminID)
	return nil
}
