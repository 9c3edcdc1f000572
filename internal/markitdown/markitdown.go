// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package markitdown

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// PrioritySpecific is for format-specific converters (PDF, DOCX, etc.).
	PrioritySpecific = 0.0
	// PriorityGeneric is for fallback converters (HTML).
	PriorityGeneric = 10.0
)

type registeredConverter struct {
	converter DocumentConverter
	priority  float64
	name      string
}

// Package-level plugin registry. Plugins registered here are only attached
// to engines created with WithPlugins(true).
var (
	pluginMu sync.Mutex
	plugins  []registeredConverter
)

// RegisterPlugin makes an external converter available to engines that
// enable plugins. Lower priority values are tried first.
func RegisterPlugin(name string, c DocumentConverter, priority float64) {
	pluginMu.Lock()
	defer pluginMu.Unlock()
	plugins = append(plugins, registeredConverter{
		converter: c,
		priority:  priority,
		name:      name,
	})
}

// MarkItDown is the document-to-markdown conversion engine.
type MarkItDown struct {
	converters    []registeredConverter
	keepDataURIs  bool
	enablePlugins bool
}

// New creates a new MarkItDown instance with the given options.
func New(opts ...Option) *MarkItDown {
	m := &MarkItDown{}
	for _, opt := range opts {
		opt(m)
	}
	m.enableBuiltins()
	if m.enablePlugins {
		pluginMu.Lock()
		m.converters = append(m.converters, plugins...)
		pluginMu.Unlock()
		m.sortConverters()
	}
	return m
}

// RegisterConverter adds a custom converter with the given priority.
// Lower priority values are tried first.
func (m *MarkItDown) RegisterConverter(name string, c DocumentConverter, priority float64) {
	m.converters = append(m.converters, registeredConverter{
		converter: c,
		priority:  priority,
		name:      name,
	})
	m.sortConverters()
}

func (m *MarkItDown) sortConverters() {
	sort.SliceStable(m.converters, func(i, j int) bool {
		return m.converters[i].priority < m.converters[j].priority
	})
}

// Convert converts in-memory document bytes to markdown. The StreamInfo
// extension and filename act as hints; the MIME type is sniffed from the
// content when not supplied.
func (m *MarkItDown) Convert(data []byte, info StreamInfo) (*DocumentConverterResult, error) {
	reader := bytes.NewReader(data)
	if info.MIMEType == "" {
		info.MIMEType = detectMIMEType(reader, info.Extension)
		if _, err := reader.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}
	}
	return m.convert(reader, info)
}

// ConvertReader converts a stream to markdown using the provided StreamInfo.
func (m *MarkItDown) ConvertReader(r io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	return m.convert(r, info)
}

// ConvertFile converts a local file to markdown.
func (m *MarkItDown) ConvertFile(path string) (*DocumentConverterResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info := StreamInfo{
		Extension: strings.ToLower(filepath.Ext(path)),
		Filename:  filepath.Base(path),
		LocalPath: path,
	}

	info.MIMEType = detectMIMEType(f, info.Extension)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	return m.convert(f, info)
}

// convert is the internal dispatch method.
func (m *MarkItDown) convert(r io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	var failedAttempts []FailedConversionAttempt

	for _, rc := range m.converters {
		if !rc.converter.Accepts(info) {
			continue
		}

		// Reset reader position before conversion
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}

		result, err := rc.converter.Convert(r, info)
		if err != nil {
			failedAttempts = append(failedAttempts, FailedConversionAttempt{
				Converter: rc.name,
				Err:       err,
			})
			continue
		}

		result.Markdown = normalizeOutput(result.Markdown)
		return result, nil
	}

	if len(failedAttempts) > 0 {
		return nil, &ConversionError{Attempts: failedAttempts}
	}

	return nil, &UnsupportedFormatError{
		Extension: info.Extension,
		MIMEType:  info.MIMEType,
	}
}

// enableBuiltins registers all built-in converters.
func (m *MarkItDown) enableBuiltins() {
	// Specific format converters (priority 0.0 - tried first)
	m.RegisterConverter("docx", NewDocxConverter(m), PrioritySpecific)
	m.RegisterConverter("xlsx", NewXlsxConverter(), PrioritySpecific)
	m.RegisterConverter("xls", NewXlsConverter(), PrioritySpecific)
	m.RegisterConverter("pptx", NewPptxConverter(m), PrioritySpecific)
	m.RegisterConverter("pdf", NewPdfConverter(), PrioritySpecific)

	// Generic converters (priority 10.0 - tried last as fallbacks)
	m.RegisterConverter("html", NewHTMLConverter(m), PriorityGeneric)
}

// detectMIMEType detects the MIME type from content and extension.
func detectMIMEType(r io.ReadSeeker, ext string) string {
	// Try content-based detection first
	mtype, err := mimetype.DetectReader(r)
	if err == nil && mtype.String() != "application/octet-stream" {
		return mtype.String()
	}

	// Fall back to extension-based detection
	return MIMEFromExtension(ext)
}

// MIMEFromExtension returns the MIME type for a supported extension, or
// application/octet-stream when the extension is unknown.
func MIMEFromExtension(ext string) string {
	extMap := map[string]string{
		".pdf":  "application/pdf",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		".ppt":  "application/vnd.ms-powerpoint",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		".xls":  "application/vnd.ms-excel",
		".html": "text/html",
		".htm":  "text/html",
	}
	if m, ok := extMap[strings.ToLower(ext)]; ok {
		return m
	}
	return "application/octet-stream"
}
