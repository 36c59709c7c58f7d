package send

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mbenve9198/exit-wounds/models"
)

type fakeMailer struct {
	sent       []Message
	failTo     map[string]bool
	broadcasts []string
	failAll    bool
}

func (m *fakeMailer) Send(ctx context.Context, msg Message) error {
	if m.failAll || m.failTo[msg.To] {
		return errors.New("smtp said no")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Broadcast(ctx context.Context, audienceID, from, subject, html string) error {
	if m.failAll {
		return errors.New("broadcast rejected")
	}
	m.broadcasts = append(m.broadcasts, audienceID)
	return nil
}

type fakeStamper struct {
	stampedID    primitive.ObjectID
	stampedCount int
	stamps       int
	err          error
}

func (s *fakeStamper) StampSend(ctx context.Context, id primitive.ObjectID, sentAt time.Time, recipients int) error {
	s.stamps++
	s.stampedID = id
	s.stampedCount = recipients
	return s.err
}

func testComic() *models.Comic {
	return &models.Comic{
		ID:        primitive.NewObjectID(),
		Title:     "Issue #4: The Acquisition",
		Published: true,
		Images: []models.Image{
			{URL: "https://cdn.example.com/p1.png", Order: 0},
		},
	}
}

func testPipeline(users []models.User, mailer Mailer, stamper ComicStamper) *Pipeline {
	src := &fakeUserSource{users: users}
	return &Pipeline{
		Resolver: testResolver(src),
		Comics:   stamper,
		Mailer:   mailer,
		From:     "marco@exit-wounds.com",
		BaseURL:  "https://exit-wounds.com",
	}
}

func TestSendAllCountsAndStamps(t *testing.T) {
	users := []models.User{
		subscriber("a@x.com", "a"),
		subscriber("b@x.com", "b"),
		subscriber("c@x.com", "c"),
	}
	mailer := &fakeMailer{}
	stamper := &fakeStamper{}
	p := testPipeline(users, mailer, stamper)
	comic := testComic()

	result, err := p.Send(context.Background(), comic, Request{
		RecipientType: RecipientAll,
		EmailSubject:  "New issue",
	})
	require.NoError(t, err)

	assert.Equal(t, Result{SuccessCount: 3, ErrorCount: 0}, result)
	require.Len(t, mailer.sent, 3)
	assert.Equal(t, "a@x.com", mailer.sent[0].To)
	assert.Equal(t, "New issue", mailer.sent[0].Subject)
	assert.Equal(t, 1, stamper.stamps)
	assert.Equal(t, comic.ID, stamper.stampedID)
	assert.Equal(t, 3, stamper.stampedCount)
}

func TestSendContinuesPastFailures(t *testing.T) {
	users := []models.User{
		subscriber("a@x.com", "a"),
		subscriber("broken@x.com", "b"),
		subscriber("c@x.com", "c"),
	}
	mailer := &fakeMailer{failTo: map[string]bool{"broken@x.com": true}}
	stamper := &fakeStamper{}
	p := testPipeline(users, mailer, stamper)

	result, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: RecipientAll,
		EmailSubject:  "New issue",
	})
	require.NoError(t, err)

	// One failure is counted; the recipients after it still get their mail.
	assert.Equal(t, Result{SuccessCount: 2, ErrorCount: 1}, result)
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "c@x.com", mailer.sent[1].To)
	assert.Equal(t, 2, stamper.stampedCount)
}

func TestSendSpecificSkipsUnsubscribedSelection(t *testing.T) {
	active := subscriber("u1@x.com", "u1")
	gone := subscriber("u2@x.com", "u2")
	gone.Unsubscribed = true
	mailer := &fakeMailer{}
	stamper := &fakeStamper{}
	p := testPipeline([]models.User{active, gone}, mailer, stamper)

	result, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: RecipientSpecific,
		EmailSubject:  "New issue",
		SelectedUsers: []string{active.ID.Hex(), gone.ID.Hex()},
	})
	require.NoError(t, err)

	// Selecting an unsubscribed user does not resurrect them; only the
	// active selection is delivered to.
	assert.Equal(t, Result{SuccessCount: 1, ErrorCount: 0}, result)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "u1@x.com", mailer.sent[0].To)
	assert.Equal(t, 1, stamper.stampedCount)
}

func TestSendNoRecipientsIsAnError(t *testing.T) {
	stamper := &fakeStamper{}
	p := testPipeline(nil, &fakeMailer{}, stamper)

	_, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: RecipientAll,
		EmailSubject:  "New issue",
	})

	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Equal(t, 0, stamper.stamps)
}

func TestSendAudience(t *testing.T) {
	mailer := &fakeMailer{}
	stamper := &fakeStamper{}
	p := testPipeline(nil, mailer, stamper)

	result, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: RecipientAudience,
		EmailSubject:  "New issue",
		AudienceID:    "aud-123",
	})
	require.NoError(t, err)

	assert.Equal(t, Result{SuccessCount: 1, ErrorCount: 0}, result)
	assert.Equal(t, []string{"aud-123"}, mailer.broadcasts)
	assert.Empty(t, mailer.sent)
	assert.Equal(t, 1, stamper.stampedCount)
}

func TestSendAudienceFallsBackToDefault(t *testing.T) {
	mailer := &fakeMailer{}
	p := testPipeline(nil, mailer, &fakeStamper{})
	p.DefaultAudienceID = "aud-default"

	_, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: RecipientAudience,
		EmailSubject:  "New issue",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aud-default"}, mailer.broadcasts)
}

func TestSendAudienceWithoutAnyID(t *testing.T) {
	p := testPipeline(nil, &fakeMailer{}, &fakeStamper{})

	_, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: RecipientAudience,
		EmailSubject:  "New issue",
	})
	assert.ErrorIs(t, err, ErrNoAudience)
}

func TestSendAudienceBroadcastFailure(t *testing.T) {
	mailer := &fakeMailer{failAll: true}
	stamper := &fakeStamper{}
	p := testPipeline(nil, mailer, stamper)

	result, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: RecipientAudience,
		EmailSubject:  "New issue",
		AudienceID:    "aud-123",
	})
	require.NoError(t, err)

	// A failed broadcast is a counted outcome, not a request error.
	assert.Equal(t, Result{SuccessCount: 0, ErrorCount: 1}, result)
	assert.Equal(t, 0, stamper.stampedCount)
}

func TestSendStampFailureDoesNotFailRequest(t *testing.T) {
	users := []models.User{subscriber("a@x.com", "a")}
	stamper := &fakeStamper{err: errors.New("mongo down")}
	p := testPipeline(users, &fakeMailer{}, stamper)

	result, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: RecipientAll,
		EmailSubject:  "New issue",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, stamper.stamps)
}

func TestSendUnknownRecipientType(t *testing.T) {
	p := testPipeline(nil, &fakeMailer{}, &fakeStamper{})
	_, err := p.Send(context.Background(), testComic(), Request{
		RecipientType: "everyone-i-ever-met",
		EmailSubject:  "New issue",
	})
	assert.ErrorIs(t, err, ErrUnknownRecipientType)
}
