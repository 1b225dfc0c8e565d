package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliverySkipped   DeliveryStatus = "skipped"
)

// Delivery is the outcome of a best-effort email. Callers inspect it but
// never fail on it.
type Delivery struct {
	Status DeliveryStatus
	Err    error
}

var errEmailNotConfigured = errors.New("email service not configured (missing RESEND_API_KEY)")

// Mailer sends account confirmation emails.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, invitationToken, tempPassword string) Delivery
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

// ConfirmationURL is the link that consumes invitationToken.
func (s *EmailService) ConfirmationURL(invitationToken string) string {
	return fmt.Sprintf("%s/confirm/%s", s.appURL, invitationToken)
}

// SendConfirmation mails the confirmation link. tempPassword is included for
// accounts created through social login.
func (s *EmailService) SendConfirmation(ctx context.Context, to, invitationToken, tempPassword string) Delivery {
	confirmURL := s.ConfirmationURL(invitationToken)
	subject, body := confirmationEmailTemplate(confirmURL, tempPassword, s.appName)

	err := s.send(ctx, "confirmation", to, subject, body, confirmURL)
	if err != nil {
		return Delivery{Status: DeliveryFailed, Err: err}
	}
	return Delivery{Status: DeliveryDelivered}
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body, url string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject, "url", url)
		return nil
	}

	if s.client == nil {
		return errEmailNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
