package delivery

import (
	"context"

	"github.com/scrapgain/otp-service/internal/pkg/mail"
)

// Email delivers passcodes over SMTP for email-shaped identifiers.
type Email struct {
	mailer  mail.Mail
	subject string
}

func NewEmail(mailer mail.Mail, subject string) *Email {
	if subject == "" {
		subject = "Your verification code"
	}

	return &Email{mailer: mailer, subject: subject}
}

func (e *Email) Name() string {
	return "email"
}

func (e *Email) IsAvailable() bool {
	return e.mailer != nil
}

func (e *Email) Send(ctx context.Context, destination, message string) error {
	return e.mailer.Send(ctx, mail.Message{
		To:       []string{destination},
		Subject:  e.subject,
		TextBody: message,
	})
}
