package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mbenve9198/exit-wounds/models"
	"github.com/Mbenve9198/exit-wounds/send"
	"github.com/Mbenve9198/exit-wounds/store"
)

type UsersHandler struct {
	DB       *store.DB
	Notifier *send.Notifier
}

// userView is the admin-facing shape of a subscriber. Password hashes and
// tokens stay out of API responses.
type userView struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	Verified     bool      `json:"isVerified"`
	Approved     bool      `json:"isApproved"`
	Unsubscribed bool      `json:"unsubscribed"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toUserView(u models.User) userView {
	return userView{
		ID:           u.ID.Hex(),
		Email:        u.Email,
		Nickname:     u.Nickname,
		Verified:     u.Verified,
		Approved:     u.Approved,
		Unsubscribed: u.Unsubscribed,
		CreatedAt:    u.CreatedAt,
	}
}

// List returns every subscriber, oldest first.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to list users"}`, http.StatusInternalServerError)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"users": views})
}

func userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

// Approve admits a subscriber from the admin dashboard. Approval implies
// verification, same as the email-link path.
func (h *UsersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	user, err := h.DB.UserByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"failed to load user"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if err := h.DB.Approve(r.Context(), id); err != nil {
		http.Error(w, `{"error":"failed to approve user"}`, http.StatusInternalServerError)
		return
	}
	if h.Notifier != nil {
		if err := h.Notifier.Approved(r.Context(), user.Email, user.Nickname); err != nil {
			log.Printf("users: approved email to %s: %v", user.Email, err)
		}
	}
	user.Verified = true
	user.Approved = true
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"user": toUserView(*user)})
}

// Delete removes a subscriber outright. Unsubscribing keeps the record;
// deletion is for spam signups and GDPR requests.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.DB.DeleteUser(r.Context(), id); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to delete user"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
