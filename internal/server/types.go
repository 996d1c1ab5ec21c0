// Package server provides the HTTP boundary for the ingestion pipeline.
// It includes handlers, middleware, routes, and DTOs separated from
// domain types.
package server

// UploadMeta is the validated metadata of one multipart file part.
type UploadMeta struct {
	// FileName is the original upload name.
	FileName string `validate:"required,max=255"`
	// ContentType is the declared MIME type of the part.
	ContentType string `validate:"required,max=127"`
}

// UploadResponse is the HTTP response after a successful ingestion.
type UploadResponse struct {
	// URL is the public URL of the published asset.
	URL string `json:"url"`
}

// BatchItemResponse is the outcome of one file in a gallery batch.
type BatchItemResponse struct {
	// FileName is the original upload name.
	FileName string `json:"file_name"`
	// URL is the public URL on success.
	URL string `json:"url,omitempty"`
	// Error is the user-facing failure message on failure.
	Error string `json:"error,omitempty"`
	// Code is the machine-readable failure code on failure.
	Code string `json:"code,omitempty"`
}

// BatchResponse is the HTTP response for a gallery batch upload.
type BatchResponse struct {
	// Results holds one entry per uploaded file, in upload order.
	Results []BatchItemResponse `json:"results"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
