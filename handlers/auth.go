package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Mbenve9198/exit-wounds/middleware"
	"github.com/Mbenve9198/exit-wounds/models"
	"github.com/Mbenve9198/exit-wounds/send"
	"github.com/Mbenve9198/exit-wounds/store"
	"github.com/Mbenve9198/exit-wounds/utils"
)

type AuthHandler struct {
	DB        *store.DB
	Notifier  *send.Notifier
	JWTSecret string
	BaseURL   string
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an unverified, unapproved subscriber and emails the
// verification link.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Email == "" || req.Password == "" || req.Nickname == "" {
		http.Error(w, `{"error":"email, password and nickname are required"}`, http.StatusBadRequest)
		return
	}
	existing, err := h.DB.UserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, `{"error":"registration failed"}`, http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, `{"error":"email already registered"}`, http.StatusBadRequest)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, `{"error":"registration failed"}`, http.StatusInternalServerError)
		return
	}
	now := time.Now()
	user := &models.User{
		Email:             req.Email,
		Nickname:          req.Nickname,
		Password:          string(hash),
		VerificationToken: utils.NewToken(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	id, err := h.DB.CreateUser(r.Context(), user)
	if err != nil {
		http.Error(w, `{"error":"registration failed"}`, http.StatusInternalServerError)
		return
	}
	if err := h.Notifier.Verification(r.Context(), user.Email, user.Nickname, user.VerificationToken); err != nil {
		log.Printf("register: verification email to %s: %v", user.Email, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Registration complete. Check your email for the verification link.",
		"userId":  id.Hex(),
	})
}

// Verify consumes the emailed verification token, then asks the operator to
// approve the subscriber.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, `{"error":"verification token required"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByVerificationToken(r.Context(), token)
	if err != nil {
		http.Error(w, `{"error":"verification failed"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"invalid verification token"}`, http.StatusNotFound)
		return
	}
	if err := h.DB.MarkVerified(r.Context(), user.ID); err != nil {
		http.Error(w, `{"error":"verification failed"}`, http.StatusInternalServerError)
		return
	}
	if err := h.Notifier.ApprovalRequest(r.Context(), user.Email, user.Nickname, user.ID.Hex()); err != nil {
		log.Printf("verify: approval request for %s: %v", user.Email, err)
	}
	http.Redirect(w, r, h.BaseURL+"/?verified=true", http.StatusFound)
}

// Approve is the operator's email-link approval. It marks the user verified
// and approved and sends the welcome email.
func (h *AuthHandler) Approve(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("email")))
	if email == "" {
		http.Error(w, `{"error":"email required"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, `{"error":"approval failed"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if err := h.DB.Approve(r.Context(), user.ID); err != nil {
		http.Error(w, `{"error":"approval failed"}`, http.StatusInternalServerError)
		return
	}
	if err := h.Notifier.Approved(r.Context(), user.Email, user.Nickname); err != nil {
		log.Printf("approve: welcome email to %s: %v", user.Email, err)
	}
	http.Redirect(w, r, h.BaseURL+"/approval-success", http.StatusFound)
}

// Login checks credentials and sets the session cookie. Both verification
// and approval are required before a subscriber can log in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
		return
	}
	if !user.Verified {
		http.Error(w, `{"error":"please verify your email first"}`, http.StatusUnauthorized)
		return
	}
	if !user.Approved {
		http.Error(w, `{"error":"your subscription is awaiting approval"}`, http.StatusUnauthorized)
		return
	}
	token, err := middleware.NewSessionToken(h.JWTSecret, user.ID.Hex(), user.Email, user.Nickname)
	if err != nil {
		http.Error(w, `{"error":"could not create session"}`, http.StatusInternalServerError)
		return
	}
	if err := h.DB.SetLastLogin(r.Context(), user.ID); err != nil {
		log.Printf("login: set last login for %s: %v", user.Email, err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(middleware.SessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(h.BaseURL, "https://"),
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"user": map[string]string{
			"id":       user.ID.Hex(),
			"email":    user.Email,
			"nickname": user.Nickname,
		},
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// ForgotPassword issues a reset token valid for one hour. The response does
// not reveal whether the address is subscribed.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		http.Error(w, `{"error":"email required"}`, http.StatusBadRequest)
		return
	}
	token := utils.NewToken()
	err := h.DB.SetResetPasswordToken(r.Context(), req.Email, token, time.Now().Add(time.Hour))
	if err == nil {
		if mailErr := h.Notifier.PasswordReset(r.Context(), req.Email, token); mailErr != nil {
			log.Printf("forgot-password: email to %s: %v", req.Email, mailErr)
		}
	} else if err != store.ErrNotFound {
		http.Error(w, `{"error":"could not start password reset"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "If that address is subscribed, a reset link is on its way.",
	})
}

// ResetPassword consumes an unexpired reset token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Token == "" || req.Password == "" {
		http.Error(w, `{"error":"token and password required"}`, http.StatusBadRequest)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, `{"error":"could not reset password"}`, http.StatusInternalServerError)
		return
	}
	if err := h.DB.ResetPassword(r.Context(), req.Token, string(hash)); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"invalid or expired reset token"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"could not reset password"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// Reactivate clears the unsubscribed flag for a subscriber who changed
// their mind.
func (h *AuthHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		http.Error(w, `{"error":"email required"}`, http.StatusBadRequest)
		return
	}
	if err := h.DB.SetUnsubscribed(r.Context(), req.Email, false); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"reactivation failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
