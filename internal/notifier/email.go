// Package notifier turns alert decisions into outgoing messages: email to
// subscribers, Telegram to the operator channel.
package notifier

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/CunXin1/fearwatch/internal/models"
)

// Mailer sends plaintext alert emails over SMTP.
type Mailer struct {
	addr string // host:port
	host string
	from string
	auth smtp.Auth
}

// NewMailer creates a mailer. Password may be empty for unauthenticated relays.
func NewMailer(host string, port int, from, password string) *Mailer {
	m := &Mailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		host: host,
		from: from,
	}
	if password != "" {
		m.auth = smtp.PlainAuth("", from, password, host)
	}
	return m
}

// SendEvent delivers one alert event to one subscriber.
func (m *Mailer) SendEvent(to string, ev models.AlertEvent, score float64) error {
	subject, body := FormatEvent(ev, score)
	msg := buildMessage(m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", ev.Type, to, err)
	}
	return nil
}

// FormatEvent renders the subject and body for an alert event.
func FormatEvent(ev models.AlertEvent, score float64) (subject, body string) {
	switch ev.Type {
	case models.EventStateChange:
		subject = fmt.Sprintf("Market Alert: %s", strings.ReplaceAll(string(ev.To), "_", " "))
		body = fmt.Sprintf(
			"Market sentiment has changed.\n\n"+
				"Previous state: %s\n"+
				"Current state: %s\n\n"+
				"Fear & Greed score: %.2f\n",
			ev.From, ev.To, score)
	case models.EventPanicPersist:
		subject = "Market Alert: Panic Persists"
		body = "The market remains in a PANIC state.\n\n" +
			"Fear & Greed Index is below 10.\n" +
			"This reminder repeats every 2 days while panic persists.\n"
	default:
		subject = "Market Alert"
		body = fmt.Sprintf("Unrecognized alert event %q.\n", ev.Type)
	}
	return subject, body
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
