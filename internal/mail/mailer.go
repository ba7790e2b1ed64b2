// Package mail sends transactional email over SMTP.
package mail

import (
	"fmt"
	"net/url"

	"gopkg.in/gomail.v2"

	"intouch/internal/config"
)

// SMTPMailer sends verification and password-reset mail through the
// configured SMTP relay. It satisfies services.Mailer.
type SMTPMailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
	backendURL  string
}

// NewSMTPMailer creates a mailer from the application configuration.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer:      gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:        cfg.MailFrom,
		frontendURL: cfg.FrontendURL,
		backendURL:  cfg.BackendURL,
	}
}

// SendVerificationEmail mails the plaintext verification token as a link to
// the verify-email endpoint. Only the hash of the token is ever stored.
func (m *SMTPMailer) SendVerificationEmail(to, token string, userID uint) error {
	verificationURL := fmt.Sprintf("%s/api/auth/verify-email?token=%s&id=%d",
		m.backendURL, url.QueryEscape(token), userID)

	return m.send(to, "Verify your email",
		fmt.Sprintf("Please verify your email by clicking on the following link: %s", verificationURL),
		fmt.Sprintf(`<p>Please verify your email by clicking on the following link:</p><a href="%s">%s</a>`,
			verificationURL, verificationURL))
}

// SendPasswordResetEmail mails the plaintext reset token as a link to the
// frontend reset page.
func (m *SMTPMailer) SendPasswordResetEmail(to, token string, userID uint) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s&id=%d",
		m.frontendURL, url.QueryEscape(token), userID)

	return m.send(to, "Reset your password",
		fmt.Sprintf("Please reset your password by clicking on the following link: %s", resetURL),
		fmt.Sprintf(`<p>Please reset your password by clicking on the following link:</p><a href="%s">%s</a>`,
			resetURL, resetURL))
}

func (m *SMTPMailer) send(to, subject, textBody, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
