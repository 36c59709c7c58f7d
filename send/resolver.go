package send

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mbenve9198/exit-wounds/models"
)

// UserSource is the slice of the store the resolver needs. *store.DB
// satisfies it; tests use an in-memory fake.
type UserSource interface {
	// Recipients returns all users with approved && verified && !unsubscribed.
	Recipients(ctx context.Context) ([]models.User, error)
	// RecipientsByID returns the eligible subset of the given ids.
	RecipientsByID(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	// SetUnsubscribeToken persists a lazily generated token.
	SetUnsubscribeToken(ctx context.Context, id primitive.ObjectID, token string) error
}

// Recipient is one resolved user plus the personalization context used for
// {{nickname}} substitution and the per-recipient unsubscribe link.
type Recipient struct {
	User             models.User
	Nickname         string
	UnsubscribeToken string
}

// Resolver produces the concrete recipient set for a direct (all/specific)
// send. The audience mode never reaches the resolver; it bypasses the users
// collection entirely.
type Resolver struct {
	Users    UserSource
	NewToken func() string
}

// Resolve returns the recipient set for the request's mode. As a side effect
// of resolution (not of comic creation), each resolved user without an
// unsubscribe token receives one, persisted and reused on every later send.
func (r *Resolver) Resolve(ctx context.Context, req Request) ([]Recipient, error) {
	var users []models.User
	var err error

	switch req.RecipientType {
	case RecipientAll:
		users, err = r.Users.Recipients(ctx)
	case RecipientSpecific:
		if len(req.SelectedUsers) == 0 {
			return nil, ErrNoUsersSelected
		}
		ids := make([]primitive.ObjectID, 0, len(req.SelectedUsers))
		for _, raw := range req.SelectedUsers {
			id, perr := primitive.ObjectIDFromHex(raw)
			if perr != nil {
				return nil, fmt.Errorf("invalid user id %q", raw)
			}
			ids = append(ids, id)
		}
		users, err = r.Users.RecipientsByID(ctx, ids)
	default:
		return nil, ErrUnknownRecipientType
	}
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNoRecipients
	}

	recipients := make([]Recipient, 0, len(users))
	for _, u := range users {
		token := u.UnsubscribeToken
		if token == "" {
			token = r.NewToken()
			if err := r.Users.SetUnsubscribeToken(ctx, u.ID, token); err != nil {
				return nil, err
			}
			u.UnsubscribeToken = token
		}
		nickname := u.Nickname
		if nickname == "" {
			nickname = "reader"
		}
		recipients = append(recipients, Recipient{
			User:             u,
			Nickname:         nickname,
			UnsubscribeToken: token,
		})
	}
	return recipients, nil
}
