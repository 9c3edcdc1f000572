package service

import (
	"path/filepath"
	"strings"

	"github.com/nicholasgasior/markitdown-api/internal/markitdown"
)

// Result is the outcome of a successful conversion. Title is nil when the
// document carries none.
type Result struct {
	Markdown string
	Title    *string
}

// Backend converts an uploaded document to markdown. Implementations must be
// safe for concurrent use; the orchestrator calls Convert from multiple
// workers.
type Backend interface {
	Convert(data []byte, format Format, filename string) (*Result, error)
}

// EngineBackend runs conversions on the embedded markitdown engine.
type EngineBackend struct {
	engine *markitdown.MarkItDown
}

// NewEngineBackend wraps a markitdown engine as a conversion backend.
func NewEngineBackend(engine *markitdown.MarkItDown) *EngineBackend {
	return &EngineBackend{engine: engine}
}

func (b *EngineBackend) Convert(data []byte, format Format, filename string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	info := markitdown.StreamInfo{
		Extension: ext,
		Filename:  filename,
		MIMEType:  markitdown.MIMEFromExtension(ext),
	}

	converted, err := b.engine.Convert(data, info)
	if err != nil {
		return nil, err
	}

	result := &Result{Markdown: converted.Markdown}
	if converted.Title != "" {
		title := converted.Title
		result.Title = &title
	}
	return result, nil
}
