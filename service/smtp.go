package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	mail "github.com/go-mail/mail/v2"

	"github.com/Mbenve9198/exit-wounds/send"
)

// SMTPMailer is the fallback delivery path when no Resend API key is
// configured. It cannot address an external audience.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password}
}

func (m *SMTPMailer) Send(ctx context.Context, msg send.Message) error {
	message := mail.NewMessage()
	message.SetHeader("From", msg.From)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/html", msg.HTML)

	if msg.AttachmentURL != "" {
		body, err := fetchAttachment(ctx, msg.AttachmentURL)
		if err != nil {
			return fmt.Errorf("smtp: fetch attachment: %w", err)
		}
		defer body.Close()
		message.AttachReader(msg.AttachmentName, body)
	}

	d := mail.NewDialer(m.host, m.port, m.username, m.password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	if err := d.DialAndSend(message); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", msg.To, err)
	}
	return nil
}

// Broadcast is unsupported over SMTP: audiences are a feature of the email
// service, not of the protocol.
func (m *SMTPMailer) Broadcast(ctx context.Context, audienceID, from, subject, html string) error {
	return fmt.Errorf("smtp: audience broadcast requires the Resend API")
}

func fetchAttachment(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("attachment URL returned %d", resp.StatusCode)
	}
	return resp.Body, nil
}
