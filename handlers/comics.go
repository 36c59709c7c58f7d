package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Mbenve9198/exit-wounds/models"
	"github.com/Mbenve9198/exit-wounds/overlay"
	"github.com/Mbenve9198/exit-wounds/service"
	"github.com/Mbenve9198/exit-wounds/store"
)

type ComicsHandler struct {
	DB       *store.DB
	S3       *service.S3Service
	MaxBytes int64
}

// AdminList returns every comic, drafts included.
func (h *ComicsHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	comics, err := h.DB.AllComics(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to list comics"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"comics": comics})
}

func (h *ComicsHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	comic, ok := h.comicFromPath(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"comic": comic})
}

// Create uploads a new comic: multipart form with title, description, and
// the page images. Images are streamed one at a time to storage; any upload
// failure aborts the whole request. Comics are created unpublished.
func (h *ComicsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.S3 == nil {
		http.Error(w, `{"error":"upload not configured (missing S3)"}`, http.StatusServiceUnavailable)
		return
	}
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, `{"error":"failed to parse multipart form"}`, http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		http.Error(w, `{"error":"title is required"}`, http.StatusBadRequest)
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))

	images, err := h.uploadComicImages(r)
	if err != nil {
		if ve, ok := err.(*uploadValidationError); ok {
			http.Error(w, `{"error":"`+ve.msg+`"}`, http.StatusBadRequest)
			return
		}
		log.Printf("comics: upload images: %v", err)
		http.Error(w, `{"error":"failed to upload images"}`, http.StatusInternalServerError)
		return
	}
	if len(images) == 0 {
		http.Error(w, `{"error":"at least one image is required"}`, http.StatusBadRequest)
		return
	}

	now := time.Now()
	comic := &models.Comic{
		Title:       title,
		Description: description,
		Images:      images,
		Published:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := h.DB.InsertComic(r.Context(), comic)
	if err != nil {
		http.Error(w, `{"error":"failed to save comic"}`, http.StatusInternalServerError)
		return
	}
	comic.ID = id
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"comicId": id.Hex(),
		"comic":   comic,
	})
}

type UpdateComicRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Published   *bool   `json:"published"`
}

func (h *ComicsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := comicID(w, r)
	if !ok {
		return
	}
	var req UpdateComicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		http.Error(w, `{"error":"title cannot be empty"}`, http.StatusBadRequest)
		return
	}
	if err := h.DB.UpdateComic(r.Context(), id, req.Title, req.Description, req.Published); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"comic not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to update comic"}`, http.StatusInternalServerError)
		return
	}
	comic, err := h.DB.ComicByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"failed to load comic"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"comic": comic})
}

type PublishRequest struct {
	Published bool `json:"published"`
}

// Publish flips the publication gate. Only published comics appear on the
// public routes and are eligible for sending.
func (h *ComicsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := comicID(w, r)
	if !ok {
		return
	}
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if err := h.DB.UpdateComic(r.Context(), id, nil, nil, &req.Published); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"comic not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to update comic"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"published": req.Published})
}

// Delete removes the comic, then best-effort deletes its images from
// storage. A storage failure does not resurrect the document.
func (h *ComicsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := comicID(w, r)
	if !ok {
		return
	}
	keys, err := h.DB.DeleteComic(r.Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"comic not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to delete comic"}`, http.StatusInternalServerError)
		return
	}
	if h.S3 != nil {
		for _, key := range keys {
			if err := h.S3.Delete(r.Context(), key); err != nil {
				log.Printf("comics: delete image %s: %v", key, err)
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateCensors replaces one image's censor list. Every censor is validated
// and clamped before storage; out-of-range coordinates never persist.
func (h *ComicsHandler) UpdateCensors(w http.ResponseWriter, r *http.Request) {
	id, ok := comicID(w, r)
	if !ok {
		return
	}
	order, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || order < 0 {
		http.Error(w, `{"error":"invalid image index"}`, http.StatusBadRequest)
		return
	}
	var censors []models.Censor
	if err := json.NewDecoder(r.Body).Decode(&censors); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	for i := range censors {
		c := &censors[i]
		if c.Emoji == "" {
			http.Error(w, `{"error":"censor emoji is required"}`, http.StatusBadRequest)
			return
		}
		if c.Width <= 0 || c.Height <= 0 {
			http.Error(w, `{"error":"censor size must be positive"}`, http.StatusBadRequest)
			return
		}
		if c.ID == "" {
			fresh := overlay.NewCensor(c.Emoji)
			c.ID = fresh.ID
		}
		overlay.Normalize(c)
	}
	if err := h.DB.UpdateImageCensors(r.Context(), id, order, censors); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"comic or image not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to update censors"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"censors": censors})
}

// PublicList returns published comics for the reader listing.
func (h *ComicsHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	comics, err := h.DB.PublishedComics(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to list comics"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"comics": comics})
}

// PublicGet returns one published comic; drafts 404 here regardless of id
// validity so unpublished work is not discoverable.
func (h *ComicsHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	comic, ok := h.comicFromPath(w, r)
	if !ok {
		return
	}
	if !comic.Published {
		http.Error(w, `{"error":"comic not found"}`, http.StatusNotFound)
		return
	}
	comic.Images = comic.SortedImages()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"comic": comic})
}

func comicID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid comic id"}`, http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *ComicsHandler) comicFromPath(w http.ResponseWriter, r *http.Request) (*models.Comic, bool) {
	id, ok := comicID(w, r)
	if !ok {
		return nil, false
	}
	comic, err := h.DB.ComicByID(r.Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, `{"error":"comic not found"}`, http.StatusNotFound)
			return nil, false
		}
		http.Error(w, `{"error":"failed to load comic"}`, http.StatusInternalServerError)
		return nil, false
	}
	return comic, true
}
