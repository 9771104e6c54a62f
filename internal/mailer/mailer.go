// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// Mailer sends plain-text mail through a single SMTP account.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// New creates a mailer. An empty host yields a mailer whose Send always
// fails; callers check Configured and degrade gracefully.
func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{Host: host, Port: port, Username: username, Password: password, From: from}
}

// Configured reports whether an SMTP host was provided.
func (m *Mailer) Configured() bool {
	return m != nil && m.Host != ""
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.Configured() {
		return fmt.Errorf("mailer: not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString("From: " + m.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: send failed: %w", err)
	}
	return nil
}
