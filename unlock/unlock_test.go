package unlock

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectKey(t *testing.T) {
	assert.Equal(t, "Issue #1", SubjectKey("Issue #1", "https://cdn/x.png"))
	assert.Equal(t, "https://cdn/x.png", SubjectKey("", "https://cdn/x.png"))
}

func TestRevealOneRevealsEverything(t *testing.T) {
	ids := []string{"a", "b", "c"}
	rec := NewRecord()

	rec.RevealOne("b", ids)

	for _, id := range ids {
		assert.True(t, rec.IsRevealed(id), id)
	}
	assert.True(t, rec.AllRevealed(ids))
}

func TestRevealAllIdempotent(t *testing.T) {
	ids := []string{"a", "b"}
	rec := NewRecord()

	rec.RevealAll(ids)
	first := len(rec.Revealed)
	rec.RevealAll(ids)

	assert.Equal(t, first, len(rec.Revealed))
	assert.True(t, rec.AllRevealed(ids))
}

func TestRestoreClearsAndStaysClear(t *testing.T) {
	rec := NewRecord()
	rec.RevealAll([]string{"a", "b"})

	rec.Restore()
	assert.True(t, rec.Empty())
	assert.False(t, rec.IsRevealed("a"))

	rec.Restore()
	assert.True(t, rec.Empty())
}

func TestAllRevealedWithNoCensors(t *testing.T) {
	assert.True(t, NewRecord().AllRevealed(nil))
}

func TestRecordCookieRoundTrip(t *testing.T) {
	rec := NewRecord()
	rec.RevealAll([]string{"censor-1", "censor-2"})

	w := httptest.NewRecorder()
	WriteRecord(w, "My Comic", rec)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	got := ReadRecord(r, "My Comic")

	assert.True(t, got.IsRevealed("censor-1"))
	assert.True(t, got.IsRevealed("censor-2"))
	assert.False(t, got.IsRevealed("censor-3"))
}

func TestWriteEmptyRecordDeletesCookie(t *testing.T) {
	w := httptest.NewRecorder()
	WriteRecord(w, "My Comic", NewRecord())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

func TestReadRecordMalformedCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "unlocked-censors-x", Value: "%%%not-base64%%%"})

	rec := ReadRecord(r, "x")
	assert.True(t, rec.Empty())
}

func TestRecordsAreScopedPerSubject(t *testing.T) {
	rec := NewRecord()
	rec.RevealAll([]string{"a"})

	w := httptest.NewRecorder()
	WriteRecord(w, "comic one", rec)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	assert.True(t, ReadRecord(r, "comic one").IsRevealed("a"))
	assert.False(t, ReadRecord(r, "comic two").IsRevealed("a"))
}

func TestFirstVisitLifecycle(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, FirstVisit(r, "subject"))

	w := httptest.NewRecorder()
	MarkVisited(w, "subject")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	assert.False(t, FirstVisit(r2, "subject"))
	assert.True(t, FirstVisit(r2, "other subject"))
}
