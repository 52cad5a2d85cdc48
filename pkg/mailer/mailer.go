// Package mailer wraps transactional email delivery over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/nile-sports/academy-api/pkg/config"
)

// Attachment is an in-memory file attached to an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message describes one outgoing email.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers email messages.
type Sender interface {
	Send(msg Message) error
}

// SMTPMailer sends messages through a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTP builds an SMTP-backed mailer from config.
func NewSMTP(cfg config.MailerConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single message, returning any transport error.
func (m *SMTPMailer) Send(msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mailer: recipient is required")
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	for _, att := range msg.Attachments {
		content := att.Content
		gm.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(content))
			return err
		}))
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	return nil
}
