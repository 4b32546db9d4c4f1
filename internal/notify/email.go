package notify

import (
	"fmt"

	"transport-catalog/internal/config"
	"transport-catalog/internal/domain"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// OrderNotifier sends the confirmation for a successfully placed order.
// Delivery is best effort: a failed notification never fails the order.
type OrderNotifier interface {
	OrderPlaced(user *domain.User, order *domain.Order) error
}

// NewOrderNotifier returns a SendGrid-backed notifier, or a no-op one
// when no API key is configured.
func NewOrderNotifier(cfg config.EmailConfig, logger *zap.Logger) OrderNotifier {
	if cfg.SendGridKey == "" {
		logger.Info("No SendGrid API key configured, order confirmations disabled")
		return &noopNotifier{}
	}
	return &emailNotifier{
		client: sendgrid.NewSendClient(cfg.SendGridKey),
		sender: cfg.Sender,
	}
}

type emailNotifier struct {
	client *sendgrid.Client
	sender string
}

// OrderPlaced sends an order confirmation email to the user
func (n *emailNotifier) OrderPlaced(user *domain.User, order *domain.Order) error {
	from := mail.NewEmail("Transport Catalog", n.sender)
	to := mail.NewEmail(user.Name, user.Email)
	subject := "Order Confirmation"

	plain := fmt.Sprintf(
		"Thank you for your purchase! Your order %s has been placed for a total of %.2f €.",
		order.ID.Hex(), order.Total,
	)
	html := fmt.Sprintf(
		"<strong>Thank you for your purchase!</strong><br><br>Your order (ID: %s) has been placed successfully.<br>Total: <strong>%.2f €</strong><br>Payment: <strong>%s</strong>",
		order.ID.Hex(), order.Total, order.PaymentStatus,
	)

	message := mail.NewSingleEmail(from, subject, to, plain, html)
	resp, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("order confirmation rejected with status %d", resp.StatusCode)
	}
	return nil
}

type noopNotifier struct{}

func (n *noopNotifier) OrderPlaced(*domain.User, *domain.Order) error {
	return nil
}
