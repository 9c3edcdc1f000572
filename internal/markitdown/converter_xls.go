package markitdown

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/extrame/xls"
)

// XlsConverter handles legacy XLS files.
type XlsConverter struct{}

// NewXlsConverter creates a new XlsConverter.
func NewXlsConverter() *XlsConverter {
	return &XlsConverter{}
}

func (c *XlsConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".xls" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(info.MIMEType), "application/vnd.ms-excel")
}

func (c *XlsConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	// extrame/xls only reads from a file path; spill the stream to a temp
	// file unless the input is already on disk.
	srcPath := info.LocalPath
	if srcPath == "" {
		tmpFile, err := os.CreateTemp("", "markitdown-*.xls")
		if err != nil {
			return nil, fmt.Errorf("create temp file: %w", err)
		}
		tmpPath := tmpFile.Name()
		defer os.Remove(tmpPath)

		if _, err := io.Copy(tmpFile, reader); err != nil {
			tmpFile.Close()
			return nil, fmt.Errorf("write temp file: %w", err)
		}
		tmpFile.Close()
		srcPath = tmpPath
	}

	wb, err := xls.Open(srcPath, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open XLS: %w", err)
	}

	var md strings.Builder

	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}

		var rows [][]string
		maxRow := int(sheet.MaxRow)
		for rowIdx := 0; rowIdx <= maxRow; rowIdx++ {
			row := sheet.Row(rowIdx)
			if row == nil {
				continue
			}

			var cells []string
			for colIdx := 0; colIdx < row.LastCol(); colIdx++ {
				cells = append(cells, row.Col(colIdx))
			}
			rows = append(rows, cells)
		}

		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(&md, "## %s\n", sheetName)
		md.WriteString(renderMarkdownTable(rows))
		md.WriteString("\n")
	}

	return &DocumentConverterResult{
		Markdown: md.String(),
	}, nil
}
