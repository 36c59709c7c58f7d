// Package send turns an admin send request into delivered email: it resolves
// the recipient set, renders one HTML document per recipient, and drives the
// mail client sequentially, tolerating per-recipient failure.
package send

import (
	"context"
	"errors"
)

// Recipient modes. all/specific resolve against the users collection;
// audience delegates to the email service's managed mailing list.
const (
	RecipientAll      = "all"
	RecipientSpecific = "specific"
	RecipientAudience = "audience"
)

var (
	// ErrNoRecipients means resolution produced an empty set. Handlers map
	// this to 404, distinct from a missing comic.
	ErrNoRecipients = errors.New("no recipients found")
	// ErrNoUsersSelected rejects a specific send with an empty selection
	// before any query runs.
	ErrNoUsersSelected = errors.New("no users selected")
	// ErrUnknownRecipientType rejects recipient modes outside all/specific/audience.
	ErrUnknownRecipientType = errors.New("unknown recipient type")
	// ErrNoAudience rejects an audience send without an audience id.
	ErrNoAudience = errors.New("audience id required")
)

// Request is the admin send payload.
type Request struct {
	ComicID       string   `json:"comicId"`
	EmailSubject  string   `json:"emailSubject"`
	TextBefore    string   `json:"textBefore"`
	TextAfter     string   `json:"textAfter"`
	ShowTitle     bool     `json:"showTitle"`
	RecipientType string   `json:"recipientType"`
	SelectedUsers []string `json:"selectedUsers"`
	AudienceID    string   `json:"audienceId"`
}

// Result is what the admin UI surfaces: plain counts, no per-recipient detail.
type Result struct {
	SuccessCount int `json:"successCount"`
	ErrorCount   int `json:"errorCount"`
}

// Message is one outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string

	// Optional attachment, fetched by URL at dispatch time.
	AttachmentName string
	AttachmentURL  string
}

// Mailer delivers email. Implementations exist for the Resend API and plain
// SMTP; the dispatch loop only sees this interface.
type Mailer interface {
	// Send delivers one message to one recipient.
	Send(ctx context.Context, msg Message) error
	// Broadcast sends one document to an externally managed audience. The
	// service reports success or failure as a single unit; per-address
	// outcomes are not visible.
	Broadcast(ctx context.Context, audienceID, from, subject, html string) error
}
