package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nicholasgasior/markitdown-api/internal/markitdown"
	"github.com/nicholasgasior/markitdown-api/internal/service"
	apperrors "github.com/nicholasgasior/markitdown-api/pkg/errors"
)

// ConvertHandler serves the parse endpoints. Each endpoint is bound to one
// Format; the uploaded file only has to get past the size and extension
// checks before it is handed to the orchestrator.
type ConvertHandler struct {
	orchestrator *service.Orchestrator
	maxFileSize  int64
	logger       *slog.Logger
}

// NewConvertHandler creates a ConvertHandler.
func NewConvertHandler(orchestrator *service.Orchestrator, maxFileSize int64, logger *slog.Logger) *ConvertHandler {
	return &ConvertHandler{
		orchestrator: orchestrator,
		maxFileSize:  maxFileSize,
		logger:       logger,
	}
}

// Parse returns the handler for one conversion endpoint.
func (h *ConvertHandler) Parse(format service.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.handleParse(w, r, format)
	}
}

func (h *ConvertHandler) handleParse(w http.ResponseWriter, r *http.Request, format service.Format) {
	// Reject oversized requests up front when the client declares a length
	if r.ContentLength > h.maxFileSize {
		respondError(w, h.logger, h.tooLargeError())
		return
	}

	// Cap the body regardless of what the client declared
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, h.logger, h.tooLargeError())
			return
		}
		respondError(w, h.logger, apperrors.NewEmptyPayload("Invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, apperrors.NewEmptyPayload("No file provided"))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, h.logger, apperrors.NewEmptyPayload("No file provided"))
		return
	}

	// Client-supplied names can carry path separators
	filename := filepath.Base(header.Filename)

	ext := strings.ToLower(filepath.Ext(filename))
	if !format.AcceptsExtension(ext) {
		respondError(w, h.logger, apperrors.NewUnsupportedFormat(
			fmt.Sprintf("Invalid file type. Expected: %s", format.ExpectedTypes()),
		))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		respondError(w, h.logger, apperrors.NewInternal("Failed to read file", err))
		return
	}

	if int64(len(data)) > h.maxFileSize {
		respondError(w, h.logger, h.tooLargeError())
		return
	}

	if len(data) == 0 {
		respondError(w, h.logger, apperrors.NewEmptyPayload("Empty file provided"))
		return
	}

	result, err := h.orchestrator.Convert(r.Context(), service.ConversionRequest{
		Format:   format,
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, ConversionResponse{
		Success:         true,
		Filename:        filename,
		MarkdownContent: result.Markdown,
		Title:           result.Title,
		Metadata: ConversionMetadata{
			OriginalFilename: filename,
			FileSize:         int64(len(data)),
			MIMEType:         markitdown.MIMEFromExtension(ext),
		},
	})
}

func (h *ConvertHandler) tooLargeError() *apperrors.AppError {
	return apperrors.NewPayloadTooLarge(
		fmt.Sprintf("File exceeds the maximum size of %s", humanize.Bytes(uint64(h.maxFileSize))),
	)
}
