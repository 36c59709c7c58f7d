package send

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mbenve9198/exit-wounds/models"
)

// fakeUserSource mimics the store's eligibility filter over an in-memory
// slice, including the insertion-order guarantee.
type fakeUserSource struct {
	users       []models.User
	savedTokens map[string]string
	tokenErr    error
}

func (f *fakeUserSource) eligible(u models.User) bool {
	return u.Approved && u.Verified && !u.Unsubscribed
}

func (f *fakeUserSource) Recipients(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if f.eligible(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserSource) RecipientsByID(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.User
	for _, u := range f.users {
		if want[u.ID] && f.eligible(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserSource) SetUnsubscribeToken(ctx context.Context, id primitive.ObjectID, token string) error {
	if f.tokenErr != nil {
		return f.tokenErr
	}
	if f.savedTokens == nil {
		f.savedTokens = map[string]string{}
	}
	f.savedTokens[id.Hex()] = token
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].UnsubscribeToken = token
		}
	}
	return nil
}

func subscriber(email, nickname string) models.User {
	return models.User{
		ID:       primitive.NewObjectID(),
		Email:    email,
		Nickname: nickname,
		Verified: true,
		Approved: true,
	}
}

func testResolver(src *fakeUserSource) *Resolver {
	n := 0
	return &Resolver{
		Users: src,
		NewToken: func() string {
			n++
			return fmt.Sprintf("token-%d", n)
		},
	}
}

func TestResolveAllExcludesIneligible(t *testing.T) {
	unverified := subscriber("b@x.com", "b")
	unverified.Verified = false
	unapproved := subscriber("c@x.com", "c")
	unapproved.Approved = false
	gone := subscriber("d@x.com", "d")
	gone.Unsubscribed = true

	src := &fakeUserSource{users: []models.User{
		subscriber("a@x.com", "a"), unverified, unapproved, gone, subscriber("e@x.com", "e"),
	}}
	recipients, err := testResolver(src).Resolve(context.Background(), Request{RecipientType: RecipientAll})
	require.NoError(t, err)

	require.Len(t, recipients, 2)
	assert.Equal(t, "a@x.com", recipients[0].User.Email)
	assert.Equal(t, "e@x.com", recipients[1].User.Email)
}

func TestResolveSpecificSubset(t *testing.T) {
	a := subscriber("a@x.com", "a")
	b := subscriber("b@x.com", "b")
	gone := subscriber("c@x.com", "c")
	gone.Unsubscribed = true
	src := &fakeUserSource{users: []models.User{a, b, gone}}

	recipients, err := testResolver(src).Resolve(context.Background(), Request{
		RecipientType: RecipientSpecific,
		SelectedUsers: []string{b.ID.Hex(), gone.ID.Hex()},
	})
	require.NoError(t, err)

	// The unsubscribed selection is silently dropped, not an error.
	require.Len(t, recipients, 1)
	assert.Equal(t, "b@x.com", recipients[0].User.Email)
}

func TestResolveSpecificRejectsEmptySelection(t *testing.T) {
	src := &fakeUserSource{users: []models.User{subscriber("a@x.com", "a")}}
	_, err := testResolver(src).Resolve(context.Background(), Request{RecipientType: RecipientSpecific})
	assert.ErrorIs(t, err, ErrNoUsersSelected)
}

func TestResolveSpecificRejectsBadID(t *testing.T) {
	src := &fakeUserSource{}
	_, err := testResolver(src).Resolve(context.Background(), Request{
		RecipientType: RecipientSpecific,
		SelectedUsers: []string{"not-a-hex-id"},
	})
	assert.Error(t, err)
}

func TestResolveNoRecipients(t *testing.T) {
	gone := subscriber("a@x.com", "a")
	gone.Unsubscribed = true
	src := &fakeUserSource{users: []models.User{gone}}

	_, err := testResolver(src).Resolve(context.Background(), Request{RecipientType: RecipientAll})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestResolveUnknownType(t *testing.T) {
	_, err := testResolver(&fakeUserSource{}).Resolve(context.Background(), Request{RecipientType: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrUnknownRecipientType)
}

func TestResolveGeneratesTokenOnce(t *testing.T) {
	fresh := subscriber("new@x.com", "new")
	returning := subscriber("old@x.com", "old")
	returning.UnsubscribeToken = "existing-token"
	src := &fakeUserSource{users: []models.User{fresh, returning}}
	res := testResolver(src)

	recipients, err := res.Resolve(context.Background(), Request{RecipientType: RecipientAll})
	require.NoError(t, err)

	assert.Equal(t, "token-1", recipients[0].UnsubscribeToken)
	assert.Equal(t, "token-1", src.savedTokens[fresh.ID.Hex()])
	assert.Equal(t, "existing-token", recipients[1].UnsubscribeToken)
	_, persisted := src.savedTokens[returning.ID.Hex()]
	assert.False(t, persisted)

	// A second send reuses the now-persisted token.
	again, err := res.Resolve(context.Background(), Request{RecipientType: RecipientAll})
	require.NoError(t, err)
	assert.Equal(t, "token-1", again[0].UnsubscribeToken)
}

func TestResolveNicknameFallback(t *testing.T) {
	anon := subscriber("anon@x.com", "")
	src := &fakeUserSource{users: []models.User{anon}}

	recipients, err := testResolver(src).Resolve(context.Background(), Request{RecipientType: RecipientAll})
	require.NoError(t, err)
	assert.Equal(t, "reader", recipients[0].Nickname)
}
