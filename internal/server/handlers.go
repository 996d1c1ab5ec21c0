package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mediaforge/ingest-api/internal/ingest"
	"github.com/mediaforge/ingest-api/internal/media"
	"github.com/mediaforge/ingest-api/internal/storage"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *ingest.Service
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewHandlers creates a new Handlers instance. maxUploadBytes is the
// request body ceiling applied before any file bytes are read.
func NewHandlers(service *ingest.Service, maxUploadBytes int64, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:        service,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Upload handles POST /upload requests with a single multipart file.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn("missing or oversized file part",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "no file provided", "NO_FILE")
		return
	}
	defer func() { _ = file.Close() }()

	up, err := h.readUpload(file, header)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file part", "INVALID_FILE")
		return
	}

	asset, err := h.service.Ingest(r.Context(), *up)
	if err != nil {
		writeIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{URL: asset.URL})
}

// UploadBatch handles POST /uploads requests with a multi-file gallery.
// Files are ingested with bounded concurrency; one failed file never
// aborts the rest.
func (h *Handlers) UploadBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart body", "INVALID_MULTIPART")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided", "NO_FILE")
		return
	}

	uploads := make([]ingest.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file part", "INVALID_FILE")
			return
		}
		up, err := h.readUpload(file, header)
		_ = file.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file part", "INVALID_FILE")
			return
		}
		uploads = append(uploads, *up)
	}

	items := h.service.IngestBatch(r.Context(), uploads)

	resp := BatchResponse{Results: make([]BatchItemResponse, len(items))}
	for i, item := range items {
		out := BatchItemResponse{FileName: item.FileName}
		if item.Err != nil {
			out.Error = ingest.Message(item.Err)
			out.Code = ingest.Code(item.Err)
		} else {
			out.URL = item.URL
		}
		resp.Results[i] = out
	}

	writeJSON(w, http.StatusOK, resp)
}

// readUpload drains one multipart file into an ingest.Upload after
// validating its metadata.
func (h *Handlers) readUpload(file multipart.File, header *multipart.FileHeader) (*ingest.Upload, error) {
	meta := UploadMeta{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
	if err := h.validator.Struct(meta); err != nil {
		h.logger.Warn("upload metadata validation failed",
			slog.String("file_name", header.Filename),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("failed to read file part",
			slog.String("file_name", header.Filename),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return &ingest.Upload{
		Data:        data,
		ContentType: meta.ContentType,
		FileName:    meta.FileName,
	}, nil
}

// writeIngestError maps pipeline errors to HTTP statuses. The message is
// always the single user-facing category for the error kind.
func writeIngestError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ingest.ErrUnsupportedMediaType), errors.Is(err, ingest.ErrEmptyUpload):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, media.ErrCorruptImage):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrStorageUnavailable):
		status = http.StatusBadGateway
	}
	writeError(w, status, ingest.Message(err), ingest.Code(err))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a standard error response.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
