package handler

import "net/http"

// ServiceName is reported by the health and info endpoints.
const ServiceName = "markitdown-api"

const serviceVersion = "1.0.0"

// HealthHandler serves the liveness and service info endpoints.
type HealthHandler struct{}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health reports liveness. It carries no dependency checks; if the process
// answers, it is healthy.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
	})
}

// Info describes the API at the root path.
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ServiceInfo{
		Message:     "MarkItDown API",
		Description: "Convert office documents and HTML to Markdown",
		Version:     serviceVersion,
		Endpoints: []string{
			"/parse_pdf - Convert PDF files to Markdown",
			"/parse_docx - Convert Word documents to Markdown",
			"/parse_xlsx - Convert Excel files to Markdown",
			"/parse_pptx - Convert PowerPoint presentations to Markdown",
			"/parse_html - Convert HTML files to Markdown",
		},
	})
}
