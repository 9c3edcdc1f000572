package markitdown

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nicholasgasior/markitdown-api/internal/omml"
	"github.com/nicholasgasior/markitdown-api/internal/ooxml"
)

// DocxConverter handles DOCX files.
type DocxConverter struct {
	markitdown *MarkItDown
}

// NewDocxConverter creates a new DocxConverter.
func NewDocxConverter(m *MarkItDown) *DocxConverter {
	return &DocxConverter{markitdown: m}
}

func (c *DocxConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".docx" {
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
}

func (c *DocxConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read DOCX: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX ZIP: %w", err)
	}

	// Relationships resolve hyperlink targets
	rels, _ := ooxml.ParseRelationships(zr, "word/_rels/document.xml.rels")

	// Style names map styleIds to heading levels
	styles := c.parseStyles(zr)

	docData, err := ooxml.ReadPart(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read document.xml: %w", err)
	}

	// Equations become LaTeX text runs before the main pass
	docData = mathToText(docData)

	htmlStr := c.documentToHTML(docData, rels, styles)

	// Convert the intermediate HTML to markdown via the HTML converter
	htmlConv := NewHTMLConverter(c.markitdown)
	result, err := htmlConv.ConvertString(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("convert DOCX HTML to markdown: %w", err)
	}

	return result, nil
}

// parseStyles maps styleId to style name from word/styles.xml. Only the name
// is needed, to recognize "heading N" styles with custom ids.
func (c *DocxConverter) parseStyles(zr *zip.Reader) map[string]string {
	styles := make(map[string]string)
	data, err := ooxml.ReadPart(zr, "word/styles.xml")
	if err != nil {
		return styles
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var currentStyleID string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				for _, attr := range t.Attr {
					if attr.Name.Local == "styleId" {
						currentStyleID = attr.Value
					}
				}
			case "name":
				if currentStyleID == "" {
					continue
				}
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						styles[currentStyleID] = attr.Value
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				currentStyleID = ""
			}
		}
	}
	return styles
}

// runState tracks formatting of the run being read.
type runState struct {
	bold   bool
	italic bool
	strike bool
}

// documentToHTML converts document.xml to intermediate HTML. Paragraphs,
// runs with basic formatting, hyperlinks, headings, list items, line breaks
// and tables are preserved; everything else passes through as plain text.
func (c *DocxConverter) documentToHTML(docData []byte, rels map[string]ooxml.Relationship, styles map[string]string) string {
	decoder := xml.NewDecoder(bytes.NewReader(docData))

	var (
		blocks      []string
		currentPara strings.Builder
		textBuf     strings.Builder

		run         runState
		inText      bool
		styleID     string
		inList      bool
		hyperTarget string

		inTableCell bool
		cellContent strings.Builder
		currentRow  []string
		tableRows   [][]string
	)

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				currentPara.Reset()
				styleID = ""
				inList = false

			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						styleID = attr.Value
					}
				}

			case "numPr":
				inList = true

			case "r":
				run = runState{}

			case "b":
				run.bold = !attrValIsOff(t)

			case "i":
				run.italic = !attrValIsOff(t)

			case "strike":
				run.strike = !attrValIsOff(t)

			case "t":
				inText = true
				textBuf.Reset()

			case "tab":
				currentPara.WriteString("\t")

			case "br":
				currentPara.WriteString("<br/>")

			case "hyperlink":
				for _, attr := range t.Attr {
					if attr.Name.Space == ooxml.NSOfficeRel && attr.Name.Local == "id" {
						if rel, ok := rels[attr.Value]; ok {
							hyperTarget = rel.Target
						}
					}
				}

			case "tbl":
				tableRows = nil

			case "tr":
				currentRow = nil

			case "tc":
				inTableCell = true
				cellContent.Reset()

			case "drawing", "pict":
				if alt := consumeDrawing(decoder); alt != "" {
					img := `<img src="image" alt="` + escapeHTMLAttr(alt) + `"/>`
					if inTableCell {
						cellContent.WriteString(img)
					} else {
						currentPara.WriteString(img)
					}
				}
			}

		case xml.CharData:
			if inText {
				textBuf.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if !inText {
					continue
				}
				text := escapeHTMLText(textBuf.String())
				if run.bold {
					text = "<b>" + text + "</b>"
				}
				if run.italic {
					text = "<i>" + text + "</i>"
				}
				if run.strike {
					text = "<s>" + text + "</s>"
				}
				if hyperTarget != "" {
					text = `<a href="` + escapeHTMLAttr(hyperTarget) + `">` + text + "</a>"
				}
				if inTableCell {
					cellContent.WriteString(text)
				} else {
					currentPara.WriteString(text)
				}
				inText = false

			case "r":
				run = runState{}

			case "hyperlink":
				hyperTarget = ""

			case "p":
				paraText := currentPara.String()
				if inTableCell {
					cellContent.WriteString(paraText)
					continue
				}
				if block := formatParagraph(paraText, styleID, inList, styles); block != "" {
					blocks = append(blocks, block)
				}

			case "tc":
				currentRow = append(currentRow, cellContent.String())
				inTableCell = false

			case "tr":
				tableRows = append(tableRows, currentRow)

			case "tbl":
				if len(tableRows) > 0 {
					blocks = append(blocks, tableToHTML(tableRows))
				}
			}
		}
	}

	var html strings.Builder
	html.WriteString("<html><body>")
	for _, b := range blocks {
		html.WriteString(b)
		html.WriteString("\n")
	}
	html.WriteString("</body></html>")
	return html.String()
}

// attrValIsOff reports whether a toggle property carries val="0" or
// val="false", which switches the property off rather than on.
func attrValIsOff(t xml.StartElement) bool {
	for _, attr := range t.Attr {
		if attr.Name.Local == "val" && (attr.Value == "0" || attr.Value == "false") {
			return true
		}
	}
	return false
}

// formatParagraph wraps paragraph text in the HTML block element implied by
// its style: heading, list item, or plain paragraph.
func formatParagraph(text, styleID string, inList bool, styles map[string]string) string {
	if level := headingLevel(styleID, styles); level > 0 {
		tag := fmt.Sprintf("h%d", level)
		return "<" + tag + ">" + text + "</" + tag + ">"
	}
	if inList {
		return "<li>" + text + "</li>"
	}
	if text == "" {
		return ""
	}
	return "<p>" + text + "</p>"
}

// headingLevel returns the heading level (1-6) for a style, or 0 if the
// style is not a heading. Both the styleId and the display name from
// styles.xml are checked, since custom ids often keep the standard name.
func headingLevel(styleID string, styles map[string]string) int {
	if styleID == "" {
		return 0
	}

	lower := strings.ToLower(styleID)
	for i := 1; i <= 6; i++ {
		if lower == fmt.Sprintf("heading%d", i) || lower == fmt.Sprintf("heading %d", i) {
			return i
		}
	}

	if name, ok := styles[styleID]; ok {
		nameLower := strings.ToLower(name)
		for i := 1; i <= 6; i++ {
			if nameLower == fmt.Sprintf("heading %d", i) {
				return i
			}
		}
	}

	return 0
}

// tableToHTML renders collected table rows as an HTML table, first row as
// header.
func tableToHTML(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>")
	for i, row := range rows {
		b.WriteString("<tr>")
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		for _, cell := range row {
			b.WriteString("<" + tag + ">" + cell + "</" + tag + ">")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// mathToText replaces OMML equation blocks in document.xml with plain text
// runs holding the LaTeX form: display math as its own paragraph, inline
// math as a run.
func mathToText(doc []byte) []byte {
	content := string(doc)
	content = replaceMathBlocks(content, "m:oMathPara", true)
	content = replaceMathBlocks(content, "m:oMath", false)
	return []byte(content)
}

func replaceMathBlocks(content, tag string, display bool) string {
	openTag := "<" + tag
	closeTag := "</" + tag + ">"

	for {
		start := strings.Index(content, openTag)
		if start == -1 {
			return content
		}
		rel := strings.Index(content[start:], closeTag)
		if rel == -1 {
			return content
		}
		end := start + rel + len(closeTag)

		exprs, err := omml.Convert([]byte(content[start:end]))
		if err != nil || len(exprs) == 0 {
			return content
		}
		latex := escapeHTMLText(strings.Join(exprs, " "))

		var run string
		if display {
			run = "<w:p><w:r><w:t>$$" + latex + "$$</w:t></w:r></w:p>"
		} else {
			run = "<w:r><w:t>$" + latex + "$</w:t></w:r>"
		}
		content = content[:start] + run + content[end:]
	}
}

// consumeDrawing reads to the end of a drawing/pict element and returns any
// alt text found on the way. The surrounding token loop must not see these
// tokens, so they are consumed here regardless.
func consumeDrawing(decoder *xml.Decoder) string {
	depth := 1
	var altText string

	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "docPr" {
				for _, attr := range t.Attr {
					if attr.Name.Local == "descr" {
						altText = attr.Value
					}
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	return altText
}
