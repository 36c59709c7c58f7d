package send

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mbenve9198/exit-wounds/models"
)

// ComicStamper is the slice of the store the dispatcher writes back to.
type ComicStamper interface {
	StampSend(ctx context.Context, id primitive.ObjectID, sentAt time.Time, recipients int) error
}

// Pipeline wires resolution, rendering, and delivery for one send request.
type Pipeline struct {
	Resolver *Resolver
	Comics   ComicStamper
	Mailer   Mailer
	From     string
	BaseURL  string

	// DefaultAudienceID is used when an audience send carries no explicit id.
	DefaultAudienceID string
}

// Send executes the request against an already loaded, published comic.
//
// Direct sends iterate recipients sequentially: each delivery is one attempt,
// a failure is logged and counted, and the loop always continues to the next
// recipient. The audience path is a single broadcast call whose outcome maps
// to a success count of 0 or 1. Either way the comic is stamped with
// sentAt/recipients afterwards, overwriting whatever the previous send wrote.
func (p *Pipeline) Send(ctx context.Context, comic *models.Comic, req Request) (Result, error) {
	opts := RenderOptions{
		Subject:    req.EmailSubject,
		TextBefore: req.TextBefore,
		TextAfter:  req.TextAfter,
		ShowTitle:  req.ShowTitle,
		BaseURL:    p.BaseURL,
	}

	var result Result
	switch req.RecipientType {
	case RecipientAudience:
		audienceID := req.AudienceID
		if audienceID == "" {
			audienceID = p.DefaultAudienceID
		}
		if audienceID == "" {
			return Result{}, ErrNoAudience
		}
		// The broadcast document has no concrete recipient; render with a
		// generic nickname and let the audience service manage unsubscribes.
		html, err := Render(comic, opts, Recipient{Nickname: "reader"})
		if err != nil {
			return Result{}, err
		}
		if err := p.Mailer.Broadcast(ctx, audienceID, p.From, req.EmailSubject, html); err != nil {
			log.Printf("send: broadcast to audience %s: %v", audienceID, err)
			result = Result{SuccessCount: 0, ErrorCount: 1}
		} else {
			result = Result{SuccessCount: 1, ErrorCount: 0}
		}

	case RecipientAll, RecipientSpecific:
		recipients, err := p.Resolver.Resolve(ctx, req)
		if err != nil {
			return Result{}, err
		}
		for _, rcpt := range recipients {
			html, err := Render(comic, opts, rcpt)
			if err != nil {
				log.Printf("send: render for %s: %v", rcpt.User.Email, err)
				result.ErrorCount++
				continue
			}
			msg := Message{
				From:    p.From,
				To:      rcpt.User.Email,
				Subject: req.EmailSubject,
				HTML:    html,
			}
			if err := p.Mailer.Send(ctx, msg); err != nil {
				log.Printf("send: deliver to %s: %v", rcpt.User.Email, err)
				result.ErrorCount++
				continue
			}
			result.SuccessCount++
		}

	default:
		return Result{}, ErrUnknownRecipientType
	}

	if err := p.Comics.StampSend(ctx, comic.ID, time.Now(), result.SuccessCount); err != nil {
		// The emails are out; a failed stamp should not fail the request.
		log.Printf("send: stamp comic %s: %v", comic.ID.Hex(), err)
	}
	return result, nil
}
