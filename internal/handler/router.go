package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/nicholasgasior/markitdown-api/internal/service"
)

// NewRouter wires the HTTP surface: one POST endpoint per document format,
// the health check, and the service info root.
func NewRouter(convert *ConvertHandler, health *HealthHandler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	router := mux.NewRouter()

	router.Use(RequestID)
	router.Use(RequestLogging(logger))
	router.Use(Recovery(logger))

	router.HandleFunc("/", health.Info).Methods(http.MethodGet)
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)

	router.HandleFunc("/parse_pdf", convert.Parse(service.FormatPDF)).Methods(http.MethodPost)
	router.HandleFunc("/parse_docx", convert.Parse(service.FormatDocx)).Methods(http.MethodPost)
	router.HandleFunc("/parse_xlsx", convert.Parse(service.FormatXlsx)).Methods(http.MethodPost)
	router.HandleFunc("/parse_pptx", convert.Parse(service.FormatPptx)).Methods(http.MethodPost)
	router.HandleFunc("/parse_html", convert.Parse(service.FormatHTML)).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 300,
	})

	return c.Handler(router)
}
