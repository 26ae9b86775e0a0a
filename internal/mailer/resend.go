package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/uni-magazine/apiserver/config"
)

// ResendMailer delivers email through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer constructs a Resend-backed mailer from config.
func NewResendMailer(cfg config.MailConfig) (*ResendMailer, error) {
	if strings.TrimSpace(cfg.ResendAPIKey) == "" {
		return nil, errors.New("resend api key is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("email from address is required")
	}

	return &ResendMailer{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.From,
	}, nil
}

// Send delivers one email.
func (m *ResendMailer) Send(ctx context.Context, email Email) Result {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
	})
	if err != nil {
		return Result{Err: err}
	}
	return Result{Success: true, ID: sent.Id}
}
