package markitdown

import "strings"

// renderMarkdownTable renders a 2D string slice as a markdown table. The
// first row is the header; column count is fixed by the header, shorter rows
// are padded and longer rows truncated.
func renderMarkdownTable(records [][]string) string {
	if len(records) == 0 {
		return ""
	}

	numCols := len(records[0])
	if numCols == 0 {
		return ""
	}

	writeRow := func(b *strings.Builder, row []string) {
		cells := make([]string, numCols)
		for i := 0; i < numCols; i++ {
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}

	var b strings.Builder
	writeRow(&b, records[0])

	b.WriteString("|")
	for i := 0; i < numCols; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range records[1:] {
		writeRow(&b, row)
	}

	return b.String()
}
