package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Mbenve9198/exit-wounds/models"
	"github.com/Mbenve9198/exit-wounds/overlay"
	"github.com/Mbenve9198/exit-wounds/unlock"
)

// UnlockHandler exposes the viewer-local unlock state for one censored
// image. The state round-trips through the viewer's own cookies; nothing is
// written server-side. Revealing is presentation only, the stored image
// pixels never change.
type UnlockHandler struct {
	Comics *ComicsHandler
}

type censorView struct {
	ID       string `json:"id"`
	Emoji    string `json:"emoji"`
	Style    string `json:"style"`
	Revealed bool   `json:"revealed"`
}

type unlockStateResponse struct {
	Censors     []censorView `json:"censors"`
	AllRevealed bool         `json:"allRevealed"`
	ShowWarning bool         `json:"showWarning"`
}

func (h *UnlockHandler) subject(w http.ResponseWriter, r *http.Request) (*models.Comic, models.Image, string, bool) {
	comic, ok := h.Comics.comicFromPath(w, r)
	if !ok {
		return nil, models.Image{}, "", false
	}
	if !comic.Published {
		http.Error(w, `{"error":"comic not found"}`, http.StatusNotFound)
		return nil, models.Image{}, "", false
	}
	idx, ok := imageIndex(w, r, comic)
	if !ok {
		return nil, models.Image{}, "", false
	}
	img := comic.SortedImages()[idx]
	return comic, img, unlock.SubjectKey(comic.Title, img.URL), true
}

func censorIDs(img models.Image) []string {
	ids := make([]string, 0, len(img.Censors))
	for _, c := range img.Censors {
		ids = append(ids, c.ID)
	}
	return ids
}

func stateResponse(img models.Image, rec *unlock.Record, showWarning bool) unlockStateResponse {
	resp := unlockStateResponse{
		AllRevealed: rec.AllRevealed(censorIDs(img)),
		ShowWarning: showWarning,
	}
	for _, c := range img.Censors {
		resp.Censors = append(resp.Censors, censorView{
			ID:       c.ID,
			Emoji:    c.Emoji,
			Style:    overlay.PositionStyle(c),
			Revealed: rec.IsRevealed(c.ID),
		})
	}
	return resp
}

// State returns the image's censors with the viewer's reveal flags. On the
// viewer's first visit to a subject with active censors, it arms the
// one-time interstitial warning and marks the subject visited.
func (h *UnlockHandler) State(w http.ResponseWriter, r *http.Request) {
	_, img, subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	rec := unlock.ReadRecord(r, subject)
	showWarning := false
	if len(img.Censors) > 0 && unlock.FirstVisit(r, subject) {
		showWarning = !rec.AllRevealed(censorIDs(img))
		unlock.MarkVisited(w, subject)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stateResponse(img, rec, showWarning))
}

type revealRequest struct {
	CensorID string `json:"censorId"`
}

// Reveal unlocks censors. A request naming one censor still reveals every
// censor on the image (the shipped behavior; see the package note).
func (h *UnlockHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	_, img, subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req revealRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	rec := unlock.ReadRecord(r, subject)
	ids := censorIDs(img)
	if req.CensorID != "" {
		rec.RevealOne(req.CensorID, ids)
	} else {
		rec.RevealAll(ids)
	}
	unlock.WriteRecord(w, subject, rec)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stateResponse(img, rec, false))
}

// Restore puts every mask back and drops the persisted record.
func (h *UnlockHandler) Restore(w http.ResponseWriter, r *http.Request) {
	_, img, subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	rec := unlock.ReadRecord(r, subject)
	rec.Restore()
	unlock.WriteRecord(w, subject, rec)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stateResponse(img, rec, false))
}
