// Package unlock tracks which censors a viewer has chosen to reveal. The
// record lives entirely in the viewer's browser (cookies); the server never
// persists it. Revealing is a presentation decision, not access control: the
// underlying image pixels are unchanged.
package unlock

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

const (
	recordCookiePrefix  = "unlocked-censors-"
	visitedCookiePrefix = "visited-censored-"

	// Cookies live for a year; the record is a convenience, not a session.
	cookieMaxAge = 365 * 24 * 60 * 60
)

// SubjectKey scopes a record to one censored subject: the comic title when
// known, otherwise the image URL.
func SubjectKey(comicTitle, imageURL string) string {
	if comicTitle != "" {
		return comicTitle
	}
	return imageURL
}

// Record is the per-subject map of censor id to revealed flag.
type Record struct {
	Revealed map[string]bool `json:"revealed"`
}

func NewRecord() *Record {
	return &Record{Revealed: map[string]bool{}}
}

// RevealOne marks ALL censors revealed, not just the clicked one. This
// mirrors the shipped click handler; whether per-censor reveal was ever
// intended is an open product question, so the behavior is kept as is.
func (r *Record) RevealOne(censorID string, allIDs []string) {
	r.RevealAll(allIDs)
}

// RevealAll marks every censor id revealed. Idempotent.
func (r *Record) RevealAll(ids []string) {
	if r.Revealed == nil {
		r.Revealed = map[string]bool{}
	}
	for _, id := range ids {
		r.Revealed[id] = true
	}
}

// Restore clears the record; all masks reappear. Idempotent.
func (r *Record) Restore() {
	r.Revealed = map[string]bool{}
}

// IsRevealed reports whether one censor is revealed.
func (r *Record) IsRevealed(censorID string) bool {
	return r.Revealed[censorID]
}

// AllRevealed reports whether no active censor remains.
func (r *Record) AllRevealed(ids []string) bool {
	for _, id := range ids {
		if !r.Revealed[id] {
			return false
		}
	}
	return true
}

// Empty reports whether the record carries no reveals, i.e. there is nothing
// worth persisting.
func (r *Record) Empty() bool {
	return len(r.Revealed) == 0
}

// cookieName derives a cookie-safe name for the subject.
func cookieName(prefix, subject string) string {
	return prefix + url.QueryEscape(subject)
}

// ReadRecord loads the viewer's record for a subject from the request
// cookies. A missing or malformed cookie yields a fresh empty record.
func ReadRecord(r *http.Request, subject string) *Record {
	c, err := r.Cookie(cookieName(recordCookiePrefix, subject))
	if err != nil {
		return NewRecord()
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return NewRecord()
	}
	rec := NewRecord()
	if err := json.Unmarshal(raw, rec); err != nil || rec.Revealed == nil {
		return NewRecord()
	}
	return rec
}

// WriteRecord persists the record back to the viewer. An empty record clears
// the cookie entirely, so restore-after-restore leaves nothing behind.
func WriteRecord(w http.ResponseWriter, subject string, rec *Record) {
	name := cookieName(recordCookiePrefix, subject)
	if rec.Empty() {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: false,
		})
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

// FirstVisit reports whether this viewer has never seen this subject's
// censors. The reader shows a one-time interstitial warning on first visit.
func FirstVisit(r *http.Request, subject string) bool {
	c, err := r.Cookie(cookieName(visitedCookiePrefix, subject))
	return err != nil || !strings.EqualFold(c.Value, "true")
}

// MarkVisited records that the interstitial has been shown for this subject.
func MarkVisited(w http.ResponseWriter, subject string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(visitedCookiePrefix, subject),
		Value:    "true",
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
}
