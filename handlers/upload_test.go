package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagePartOrdering(t *testing.T) {
	names := []string{
		"image10", "image2", "image0", "image11", "image1", "image12",
		"image3", "image9", "image4", "image7", "image5", "image8", "image6",
	}
	sort.Slice(names, func(i, j int) bool { return imagePartLess(names[i], names[j]) })

	want := []string{
		"image0", "image1", "image2", "image3", "image4", "image5", "image6",
		"image7", "image8", "image9", "image10", "image11", "image12",
	}
	assert.Equal(t, want, names)
}

func TestImagePartOrderingMixedNames(t *testing.T) {
	names := []string{"images", "image2", "image10", "image1"}
	sort.Slice(names, func(i, j int) bool { return imagePartLess(names[i], names[j]) })

	// Numbered pages first, in page order; the plain repeated field after.
	assert.Equal(t, []string{"image1", "image2", "image10", "images"}, names)
}

func multipartUpload(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, filename := range fields {
		// CreateFormFile writes application/octet-stream, which fails the
		// image content-type check and surfaces the part's filename.
		fw, err := w.CreateFormFile(name, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("not really an image"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/admin/comics", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, r.ParseMultipartForm(1<<20))
	return r
}

func TestUploadComicImagesProcessesPagesInNumericOrder(t *testing.T) {
	h := &ComicsHandler{}
	r := multipartUpload(t, map[string]string{
		"image10": "page-10.png",
		"image2":  "page-2.png",
	})

	_, err := h.uploadComicImages(r)
	require.Error(t, err)

	// The validation error reports the first part processed; page 2 must
	// come before page 10.
	var ve *uploadValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.msg, "page-2.png")
}
