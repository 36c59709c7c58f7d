package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/Mbenve9198/exit-wounds/store"
)

type UnsubscribeHandler struct {
	DB      *store.DB
	BaseURL string
}

// Unsubscribe handles the capability URL from email footers:
// GET /api/unsubscribe?email=...&token=...
//
// The token is preferred. When only an email is supplied the match falls
// back to the address alone; that weaker path is inherited from the shipped
// capability URL and kept as is.
func (h *UnsubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	email := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("email")))

	if token == "" && email == "" {
		http.Redirect(w, r, h.BaseURL+"/?error=invalid_unsubscribe", http.StatusFound)
		return
	}

	if token != "" {
		user, err := h.DB.UserByUnsubscribeToken(r.Context(), token)
		if err != nil {
			log.Printf("unsubscribe: lookup token: %v", err)
			http.Redirect(w, r, h.BaseURL+"/?error=unsubscribe_failed", http.StatusFound)
			return
		}
		if user != nil {
			if err := h.DB.SetUnsubscribed(r.Context(), user.Email, true); err != nil {
				log.Printf("unsubscribe: %s: %v", user.Email, err)
				http.Redirect(w, r, h.BaseURL+"/?error=unsubscribe_failed", http.StatusFound)
				return
			}
			http.Redirect(w, r, h.BaseURL+"/unsubscribe-success", http.StatusFound)
			return
		}
	}

	if email != "" {
		err := h.DB.SetUnsubscribed(r.Context(), email, true)
		if err == nil {
			http.Redirect(w, r, h.BaseURL+"/unsubscribe-success", http.StatusFound)
			return
		}
		if err != store.ErrNotFound {
			log.Printf("unsubscribe: %s: %v", email, err)
			http.Redirect(w, r, h.BaseURL+"/?error=unsubscribe_failed", http.StatusFound)
			return
		}
	}

	http.Redirect(w, r, h.BaseURL+"/?error=invalid_unsubscribe", http.StatusFound)
}
