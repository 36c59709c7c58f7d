package service

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/Mbenve9198/exit-wounds/send"
)

// ResendMailer delivers through the Resend API. It is the default mailer;
// it is also the only one that can address an external audience.
type ResendMailer struct {
	client *resend.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, msg send.Message) error {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	if msg.AttachmentURL != "" {
		params.Attachments = []*resend.Attachment{{
			Filename: msg.AttachmentName,
			Path:     msg.AttachmentURL,
		}}
	}
	_, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend: send to %s: %w", msg.To, err)
	}
	return nil
}

// Broadcast creates and sends a broadcast against a managed audience. Resend
// reports the outcome as a unit; per-address results are not visible here.
func (m *ResendMailer) Broadcast(ctx context.Context, audienceID, from, subject, html string) error {
	created, err := m.client.Broadcasts.CreateWithContext(ctx, &resend.CreateBroadcastRequest{
		AudienceId: audienceID,
		From:       from,
		Subject:    subject,
		Html:       html,
	})
	if err != nil {
		return fmt.Errorf("resend: create broadcast: %w", err)
	}
	_, err = m.client.Broadcasts.SendWithContext(ctx, &resend.SendBroadcastRequest{
		BroadcastId: created.Id,
	})
	if err != nil {
		return fmt.Errorf("resend: send broadcast %s: %w", created.Id, err)
	}
	return nil
}
