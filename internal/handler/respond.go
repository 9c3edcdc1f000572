package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/nicholasgasior/markitdown-api/pkg/errors"
)

// ConversionMetadata describes the uploaded file as received.
type ConversionMetadata struct {
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	MIMEType         string `json:"mime_type"`
}

// ConversionResponse is the success envelope. Title is null when the
// document has no title of its own.
type ConversionResponse struct {
	Success         bool               `json:"success"`
	Filename        string             `json:"filename"`
	MarkdownContent string             `json:"markdown_content"`
	Title           *string            `json:"title"`
	Metadata        ConversionMetadata `json:"metadata"`
}

// ErrorResponse is the failure envelope. Error carries the machine-readable
// kind, Message the human-readable explanation.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ServiceInfo is the root endpoint body.
type ServiceInfo struct {
	Message     string   `json:"message"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Endpoints   []string `json:"endpoints"`
}

// respondJSON writes a JSON response. It marshals before touching the
// ResponseWriter so an encoding failure cannot produce a partial body after
// headers are sent.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		http.Error(w, `{"success":false,"error":"InternalError","message":"Failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// respondError maps any error onto the failure envelope. The full error
// chain is logged server-side; the client sees only the kind and the
// sanitized message.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	appErr := apperrors.AsAppError(err)

	attrs := []any{
		"kind", string(appErr.Kind),
		"status", appErr.StatusCode,
		"message", appErr.Message,
	}
	if appErr.Cause != nil {
		attrs = append(attrs, "cause", appErr.Cause.Error())
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	respondJSON(w, appErr.StatusCode, ErrorResponse{
		Success: false,
		Error:   string(appErr.Kind),
		Message: appErr.Message,
	})
}
