// Package notify tells users when their generated collection is ready.
package notify

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Notifier reports a finished batch to its owner.
type Notifier interface {
	CollectionReady(ctx context.Context, user models.User, collectionID string, items int) error
}

// Nop is used when email is not configured.
type Nop struct{}

func (Nop) CollectionReady(context.Context, models.User, string, int) error { return nil }

// SendGridMailer sends notifications using SendGrid
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *zap.Logger
}

func NewSendGridMailer(apiKey, fromAddress string, logger *zap.Logger) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Fitly App", fromAddress),
		logger: logger,
	}
}

func (m *SendGridMailer) CollectionReady(ctx context.Context, user models.User, collectionID string, items int) error {
	subject := "Your outfits are ready"
	text := fmt.Sprintf("Hi %s, %d new outfit(s) were added to your collection.", user.Name, items)
	html := fmt.Sprintf("<p>Hi %s,</p><p><strong>%d</strong> new outfit(s) were added to your collection.</p>", user.Name, items)
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail(user.Name, user.Email), text, html)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", user.Email, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	m.logger.Info("collection email sent",
		zap.String("email", user.Email),
		zap.String("collection_id", collectionID),
		zap.Int("status", response.StatusCode))
	return nil
}
