package service

import "strings"

// Format identifies the document family an endpoint accepts. Routing is by
// endpoint, so the format of a request is fixed before any file content is
// looked at.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatXlsx Format = "xlsx"
	FormatPptx Format = "pptx"
	FormatHTML Format = "html"
)

// formatExtensions lists the accepted file extensions per format, lowercase
// with the leading dot.
var formatExtensions = map[Format][]string{
	FormatPDF:  {".pdf"},
	FormatDocx: {".docx"},
	FormatXlsx: {".xlsx", ".xls"},
	FormatPptx: {".pptx", ".ppt"},
	FormatHTML: {".html", ".htm"},
}

func (f Format) String() string {
	return string(f)
}

// AcceptsExtension reports whether the format accepts the given file
// extension. The check is case-insensitive.
func (f Format) AcceptsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range formatExtensions[f] {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Extensions returns the accepted extensions for the format.
func (f Format) Extensions() []string {
	return formatExtensions[f]
}

// ExpectedTypes returns the accepted extensions without dots, comma
// separated, for client-facing validation messages.
func (f Format) ExpectedTypes() string {
	exts := formatExtensions[f]
	names := make([]string, len(exts))
	for i, ext := range exts {
		names[i] = strings.TrimPrefix(ext, ".")
	}
	return strings.Join(names, ", ")
}
