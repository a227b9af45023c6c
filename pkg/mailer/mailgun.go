package mailer

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// Mailgun sends transactional email through the Mailgun HTTP API.
type Mailgun struct {
	Sender string
	mg     *mailgun.MailgunImpl
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{
		Sender: sender,
		mg:     mailgun.NewMailgun(domain, apiKey),
	}
}

// Send delivers a single message. html is optional; when set the message
// carries both a plain text and an HTML part.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.mg.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.mg.Send(ctx, msg)
	return err
}
