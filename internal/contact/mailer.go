// Package contact delivers messages from the site's contact form to the
// owner's inbox.
package contact

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/Saikiran-Avusula/portfolio/internal/logger"
)

var ErrNotConfigured = errors.New("SMTP credentials not configured")

// Message is one contact form submission.
type Message struct {
	Name  string
	Email string
	Body  string
}

// Validate trims the fields and checks that all three are present and that
// the email address parses.
func (m *Message) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Body = strings.TrimSpace(m.Body)

	switch {
	case m.Name == "":
		return errors.New("name is required")
	case m.Email == "":
		return errors.New("email is required")
	case m.Body == "":
		return errors.New("message is required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil || !strings.Contains(m.Email, "@") {
		return errors.New("email address is invalid")
	}
	return nil
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
}

type Mailer struct {
	sender Sender
	from   string
	to     string
	log    logger.ILogger
}

// NewMailer dials cfg's SMTP server on each send. Without credentials every
// send fails with ErrNotConfigured.
func NewMailer(cfg Config, log logger.ILogger) *Mailer {
	m := &Mailer{from: cfg.User, to: cfg.To, log: log}
	if cfg.User != "" && cfg.Password != "" {
		m.sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

func NewMailerWithSender(sender Sender, from, to string, log logger.ILogger) *Mailer {
	return &Mailer{sender: sender, from: from, to: to, log: log}
}

func (m *Mailer) Send(msg Message) error {
	if m.sender == nil {
		return ErrNotConfigured
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", m.to)
	gm.SetHeader("Reply-To", msg.Email)
	gm.SetHeader("Subject", fmt.Sprintf("Portfolio Contact: %s", msg.Name))
	gm.SetBody("text/plain", fmt.Sprintf(`New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Body))

	if err := m.sender.DialAndSend(gm); err != nil {
		m.log.Error("contact", "failed to send contact email", map[string]interface{}{"error": err})
		return fmt.Errorf("sending contact email: %w", err)
	}

	m.log.Info("contact", "contact email sent", map[string]interface{}{"name": msg.Name})
	return nil
}
