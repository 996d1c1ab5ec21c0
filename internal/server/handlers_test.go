package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaforge/ingest-api/internal/ingest"
	"github.com/mediaforge/ingest-api/internal/media"
	"github.com/mediaforge/ingest-api/internal/scratch"
	"github.com/mediaforge/ingest-api/internal/storage"
)

type stubTranscoder struct{}

func (stubTranscoder) Transcode(_ context.Context, _, outputPath string) error {
	return os.WriteFile(outputPath, []byte("transcoded"), 0600)
}

type stubPublisher struct {
	err error
}

func (p *stubPublisher) Publish(_ context.Context, _ []byte, fileName, _, folder string) (*storage.Asset, error) {
	if p.err != nil {
		return nil, p.err
	}
	key := folder + "/fixed-id-" + fileName
	return &storage.Asset{URL: "https://cdn.example.com/" + key, Key: key}, nil
}

func newTestRouter(t *testing.T, publisher storage.Publisher, maxBytes int64) http.Handler {
	t.Helper()
	mgr, err := scratch.NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	svc, err := ingest.NewService(mgr, media.NewImageProcessor(), stubTranscoder{}, publisher, 1, nil)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	return NewRouter(NewHandlers(svc, maxBytes, nil), nil)
}

// multipartBody builds a multipart form with one file per entry under field.
type filePart struct {
	fieldName   string
	fileName    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, parts []filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.fieldName+`"; filename="`+p.fileName+`"`)
		h.Set("Content-Type", p.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func testImageBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{}, 1<<20)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestUpload_Image(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{}, 10<<20)

	body, contentType := multipartBody(t, []filePart{
		{"file", "photo.jpg", "image/jpeg", testImageBytes(t)},
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://cdn.example.com/images/fixed-id-photo.jpg", resp.URL)
}

func TestUpload_Video(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{}, 10<<20)

	body, contentType := multipartBody(t, []filePart{
		{"file", "clip.mov", "video/quicktime", []byte("raw video bytes")},
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://cdn.example.com/videos/fixed-id-clip.mp4", resp.URL)
}

func TestUpload_UnsupportedType(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{}, 10<<20)

	body, contentType := multipartBody(t, []filePart{
		{"file", "doc.pdf", "application/pdf", []byte("%PDF-1.4")},
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ingest.CodeUnsupportedMediaType, resp.Code)
}

func TestUpload_NoFile(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{}, 10<<20)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NO_FILE", resp.Code)
}

func TestUpload_StorageUnavailable(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{err: storage.ErrStorageUnavailable}, 10<<20)

	body, contentType := multipartBody(t, []filePart{
		{"file", "photo.jpg", "image/jpeg", testImageBytes(t)},
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ingest.CodeStorageUnavailable, resp.Code)
	assert.NotContains(t, rec.Body.String(), "url")
}

func TestUpload_BodyTooLarge(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{}, 64) // tiny ceiling

	body, contentType := multipartBody(t, []filePart{
		{"file", "photo.jpg", "image/jpeg", testImageBytes(t)},
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadBatch(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{}, 10<<20)

	body, contentType := multipartBody(t, []filePart{
		{"files", "a.jpg", "image/jpeg", testImageBytes(t)},
		{"files", "b.zip", "application/zip", []byte("PK")},
		{"files", "c.mp4", "video/mp4", []byte("raw video")},
	})
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)

	assert.Equal(t, "a.jpg", resp.Results[0].FileName)
	assert.NotEmpty(t, resp.Results[0].URL)
	assert.Empty(t, resp.Results[0].Error)

	assert.Equal(t, "b.zip", resp.Results[1].FileName)
	assert.Empty(t, resp.Results[1].URL)
	assert.Equal(t, ingest.CodeUnsupportedMediaType, resp.Results[1].Code)
	assert.NotEmpty(t, resp.Results[1].Error)

	assert.Equal(t, "c.mp4", resp.Results[2].FileName)
	assert.NotEmpty(t, resp.Results[2].URL)
}

func TestUploadBatch_NoFiles(t *testing.T) {
	router := newTestRouter(t, &stubPublisher{}, 10<<20)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NO_FILE", resp.Code)
}
