package send

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// Notifier sends the lifecycle emails around a subscription: verification on
// signup, the approval notice, and password resets. It rides the same Mailer
// as comic dispatch.
type Notifier struct {
	Mailer  Mailer
	From    string
	AdminTo string
	BaseURL string
}

func (n *Notifier) link(path string, q url.Values) string {
	u := strings.TrimRight(n.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// Verification asks a fresh subscriber to confirm their address.
func (n *Notifier) Verification(ctx context.Context, email, nickname, token string) error {
	verifyURL := n.link("/api/auth/verify", url.Values{"token": {token}})
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Hey %s,</h1>
  <p>Thanks for signing up to Exit Wounds - the newsletter where a sold-out founder documents his journey in comic form.</p>
  <p>You're not officially part of the misfits club yet: confirm this address is yours.</p>
  <p><a href="%s">Confirm my subscription</a></p>
  <p>If you never signed up, ignore this email and go build something.</p>
</div>`, html.EscapeString(nickname), verifyURL)
	return n.Mailer.Send(ctx, Message{
		From:    n.From,
		To:      email,
		Subject: "YOUR SUBSCRIPTION IS LIKE A STARTUP: MIGHT DIE WITHOUT VALIDATION",
		HTML:    body,
	})
}

// ApprovalRequest tells the operator a verified subscriber is waiting.
func (n *Notifier) ApprovalRequest(ctx context.Context, email, nickname, userID string) error {
	if n.AdminTo == "" {
		return nil
	}
	approveURL := n.link("/api/auth/approve", url.Values{"email": {email}})
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
  <p>New verified subscriber waiting for approval:</p>
  <p><strong>%s</strong> &lt;%s&gt; (id %s)</p>
  <p><a href="%s">Approve</a></p>
</div>`, html.EscapeString(nickname), html.EscapeString(email), html.EscapeString(userID), approveURL)
	return n.Mailer.Send(ctx, Message{
		From:    n.From,
		To:      n.AdminTo,
		Subject: "Exit Wounds: subscriber waiting for approval",
		HTML:    body,
	})
}

// Approved welcomes a subscriber into the list.
func (n *Notifier) Approved(ctx context.Context, email, nickname string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Welcome in, %s.</h1>
  <p>You're approved. Politically incorrect comics about post-startup life will now land in this inbox.</p>
  <p><a href="%s">Read what's already out</a></p>
</div>`, html.EscapeString(nickname), n.link("/comics", nil))
	return n.Mailer.Send(ctx, Message{
		From:    n.From,
		To:      email,
		Subject: "You're in. I'm sorry in advance.",
		HTML:    body,
	})
}

// PasswordReset carries the time-limited reset link.
func (n *Notifier) PasswordReset(ctx context.Context, email, token string) error {
	resetURL := n.link("/reset-password", url.Values{"token": {token}})
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <p>Someone (hopefully you) asked to reset the password for this address.</p>
  <p><a href="%s">Reset password</a></p>
  <p>The link expires in one hour. If you didn't ask, ignore this.</p>
</div>`, resetURL)
	return n.Mailer.Send(ctx, Message{
		From:    n.From,
		To:      email,
		Subject: "Exit Wounds password reset",
		HTML:    body,
	})
}
