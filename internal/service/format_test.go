package service

import "testing"

func TestFormatAcceptsExtension(t *testing.T) {
	tests := []struct {
		format Format
		ext    string
		want   bool
	}{
		{FormatPDF, ".pdf", true},
		{FormatPDF, ".PDF", true},
		{FormatPDF, ".txt", false},
		{FormatPDF, "", false},
		{FormatDocx, ".docx", true},
		{FormatDocx, ".doc", false},
		{FormatXlsx, ".xlsx", true},
		{FormatXlsx, ".xls", true},
		{FormatXlsx, ".XLS", true},
		{FormatXlsx, ".csv", false},
		{FormatPptx, ".pptx", true},
		{FormatPptx, ".ppt", true},
		{FormatPptx, ".odp", false},
		{FormatHTML, ".html", true},
		{FormatHTML, ".htm", true},
		{FormatHTML, ".xhtml", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+tt.ext, func(t *testing.T) {
			if got := tt.format.AcceptsExtension(tt.ext); got != tt.want {
				t.Errorf("%s.AcceptsExtension(%q) = %v, want %v", tt.format, tt.ext, got, tt.want)
			}
		})
	}
}

func TestFormatExpectedTypes(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatPDF, "pdf"},
		{FormatDocx, "docx"},
		{FormatXlsx, "xlsx, xls"},
		{FormatPptx, "pptx, ppt"},
		{FormatHTML, "html, htm"},
	}

	for _, tt := range tests {
		if got := tt.format.ExpectedTypes(); got != tt.want {
			t.Errorf("%s.ExpectedTypes() = %q, want %q", tt.format, got, tt.want)
		}
	}
}
