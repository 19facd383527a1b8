package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("email: smtp not configured")

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	FrontendURL  string
	AppName      string
}

// SendFunc delivers a raw message. It matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService renders and sends transactional mail
type EmailService struct {
	config EmailConfig
	send   SendFunc
	cb     *gobreaker.CircuitBreaker
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	if config.AppName == "" {
		config.AppName = "CRM"
	}
	return &EmailService{
		config: config,
		send:   smtp.SendMail,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "smtp",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
}

// WithSender replaces the SMTP transport, for tests.
func (s *EmailService) WithSender(send SendFunc) *EmailService {
	s.send = send
	return s
}

// SendPasswordResetEmail sends a password reset email
func (s *EmailService) SendPasswordResetEmail(toEmail, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		s.config.FrontendURL,
		url.QueryEscape(token),
		url.QueryEscape(toEmail),
	)
	body, err := render(passwordResetTemplate, map[string]string{
		"AppName":  s.config.AppName,
		"Email":    toEmail,
		"ResetURL": resetURL,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.deliver(toEmail, "Reset your password - "+s.config.AppName, body)
}

// QuotationMail is what the client receives when a quotation is sent
type QuotationMail struct {
	To              string
	ClientName      string
	QuotationNumber string
	Total           string
	ValidUntil      time.Time
	PDFURL          string
	CompanyName     string
}

// SendQuotationEmail notifies the client that a quotation is ready
func (s *EmailService) SendQuotationEmail(m QuotationMail) error {
	body, err := render(quotationTemplate, m)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.deliver(m.To, fmt.Sprintf("Quotation %s from %s", m.QuotationNumber, m.CompanyName), body)
}

func (s *EmailService) deliver(to, subject, htmlBody string) error {
	if s.config.SMTPHost == "" {
		return ErrNotConfigured
	}
	msg := s.buildHTMLEmail(to, subject, htmlBody)
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.send(addr, auth, s.config.FromEmail, []string{to}, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)
	return []byte(headers + htmlBody)
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
