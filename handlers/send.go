package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mbenve9198/exit-wounds/send"
	"github.com/Mbenve9198/exit-wounds/store"
)

type SendHandler struct {
	DB       *store.DB
	Pipeline *send.Pipeline
}

// SendComic delivers a published comic to the requested recipients and
// responds with plain success/error counts.
func (h *SendHandler) SendComic(w http.ResponseWriter, r *http.Request) {
	var req send.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.ComicID == "" {
		http.Error(w, `{"error":"comic id required"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.EmailSubject) == "" {
		http.Error(w, `{"error":"email subject required"}`, http.StatusBadRequest)
		return
	}
	id, err := primitive.ObjectIDFromHex(req.ComicID)
	if err != nil {
		http.Error(w, `{"error":"invalid comic id"}`, http.StatusBadRequest)
		return
	}
	comic, err := h.DB.ComicByID(r.Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"comic not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to load comic"}`, http.StatusInternalServerError)
		return
	}
	if !comic.Published {
		http.Error(w, `{"error":"only published comics can be sent"}`, http.StatusBadRequest)
		return
	}

	result, err := h.Pipeline.Send(r.Context(), comic, req)
	if err != nil {
		switch {
		case errors.Is(err, send.ErrNoRecipients):
			// Distinct from a missing comic, but still a 404: there is
			// nothing to send to.
			http.Error(w, `{"error":"no recipients found for send"}`, http.StatusNotFound)
		case errors.Is(err, send.ErrNoUsersSelected),
			errors.Is(err, send.ErrUnknownRecipientType),
			errors.Is(err, send.ErrNoAudience):
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		default:
			log.Printf("send-comic %s: %v", req.ComicID, err)
			http.Error(w, `{"error":"failed to send comic"}`, http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
