package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mbenve9198/exit-wounds/models"
	"github.com/Mbenve9198/exit-wounds/service"
)

const presignExpiry = 15 * time.Minute

// imageIndex parses the {index} path param and bounds-checks it against the
// comic's page count.
func imageIndex(w http.ResponseWriter, r *http.Request, comic *models.Comic) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 || idx >= len(comic.Images) {
		http.Error(w, `{"error":"image not found"}`, http.StatusNotFound)
		return 0, false
	}
	return idx, true
}

// imagePartIndex extracts the numeric suffix of a form part name like
// "image12". Names without one ("images", "title") report false.
func imagePartIndex(name string) (int, bool) {
	suffix := strings.TrimPrefix(name, "image")
	if suffix == name || suffix == "" {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// imagePartLess orders form parts as pages: numbered parts by their number,
// then unnumbered parts lexically.
func imagePartLess(a, b string) bool {
	ai, aok := imagePartIndex(a)
	bi, bok := imagePartIndex(b)
	if aok && bok {
		return ai < bi
	}
	if aok != bok {
		return aok
	}
	return a < b
}

// uploadValidationError marks a bad input (wrong file type) as opposed to an
// upstream storage failure; the caller maps it to 400 instead of 500.
type uploadValidationError struct {
	msg string
}

func (e *uploadValidationError) Error() string { return e.msg }

// uploadComicImages streams every image part of the multipart form to
// storage, one at a time, preserving form order as the page order. The first
// failure aborts and is returned; already-uploaded pages are not rolled back
// (the comic document was never created, so they are orphans the bucket
// lifecycle policy can reap).
func (h *ComicsHandler) uploadComicImages(r *http.Request) ([]models.Image, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	// The admin form posts parts named image0, image1, ... or repeats a
	// single "images" field. Collect both, ordered by the numeric suffix so
	// image10 comes after image2, not after image1.
	type part struct {
		name    string
		headers []*multipart.FileHeader
	}
	var parts []part
	for name, headers := range r.MultipartForm.File {
		if name == "images" || strings.HasPrefix(name, "image") {
			parts = append(parts, part{name: name, headers: headers})
		}
	}
	sort.Slice(parts, func(i, j int) bool { return imagePartLess(parts[i].name, parts[j].name) })

	var images []models.Image
	order := 0
	for _, p := range parts {
		for _, header := range p.headers {
			contentType := header.Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, "image/") {
				return nil, &uploadValidationError{msg: fmt.Sprintf("file %s is not a valid image", header.Filename)}
			}
			file, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", header.Filename, err)
			}
			key, err := h.S3.Upload(r.Context(), service.ComicImagePrefix, header.Filename, file, contentType)
			file.Close()
			if err != nil {
				return nil, fmt.Errorf("upload %s: %w", header.Filename, err)
			}
			images = append(images, models.Image{
				URL:        h.S3.PublicURL(key),
				StorageKey: key,
				Order:      order,
			})
			order++
		}
	}
	return images, nil
}

// ImageURL returns a short-lived presigned URL for one stored image, used by
// the admin UI to preview originals.
func (h *ComicsHandler) ImageURL(w http.ResponseWriter, r *http.Request) {
	comic, ok := h.comicFromPath(w, r)
	if !ok {
		return
	}
	if h.S3 == nil {
		http.Error(w, `{"error":"storage not configured"}`, http.StatusServiceUnavailable)
		return
	}
	idx, ok := imageIndex(w, r, comic)
	if !ok {
		return
	}
	img := comic.SortedImages()[idx]
	url, err := h.S3.PresignedGetURL(r.Context(), img.StorageKey, presignExpiry)
	if err != nil {
		http.Error(w, `{"error":"failed to generate url"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"url":%q}`, url)
}
