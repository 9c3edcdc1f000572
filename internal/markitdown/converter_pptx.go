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
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/nicholasgasior/markitdown-api/internal/ooxml"
)

// PptxConverter handles PPTX files.
type PptxConverter struct {
	markitdown *MarkItDown
}

// NewPptxConverter creates a new PptxConverter.
func NewPptxConverter(m *MarkItDown) *PptxConverter {
	return &PptxConverter{markitdown: m}
}

func (c *PptxConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".pptx" {
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "application/vnd.openxmlformats-officedocument.presentationml")
}

func (c *PptxConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read PPTX: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PPTX ZIP: %w", err)
	}

	slidePaths, err := c.slideOrder(zr)
	if err != nil {
		return nil, fmt.Errorf("resolve slide order: %w", err)
	}

	var md strings.Builder

	for i, slidePath := range slidePaths {
		md.WriteString(fmt.Sprintf("\n\n<!-- Slide number: %d -->\n", i+1))

		slideData, err := ooxml.ReadPart(zr, slidePath)
		if err != nil {
			continue
		}
		md.WriteString(c.renderSlide(slideData))

		if notes := c.slideNotes(zr, slidePath); notes != "" {
			md.WriteString("\n\n### Notes:\n")
			md.WriteString(notes)
		}
	}

	return &DocumentConverterResult{
		Markdown: strings.TrimSpace(md.String()),
	}, nil
}

// slideOrder returns slide part paths in presentation order, following the
// sldId references in presentation.xml. Falls back to sorted ppt/slides/*
// when the references cannot be resolved.
func (c *PptxConverter) slideOrder(zr *zip.Reader) ([]string, error) {
	presData, err := ooxml.ReadPart(zr, "ppt/presentation.xml")
	if err != nil {
		return nil, err
	}

	rels, _ := ooxml.ParseRelationships(zr, "ppt/_rels/presentation.xml.rels")

	decoder := xml.NewDecoder(bytes.NewReader(presData))
	var paths []string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldId" {
			continue
		}
		for _, attr := range se.Attr {
			// The slide reference is the r:id attribute, not the plain id
			if attr.Name.Local != "id" || !strings.Contains(attr.Name.Space, "relationships") {
				continue
			}
			if rel, found := rels[attr.Value]; found {
				paths = append(paths, ooxml.ResolveTarget("ppt/presentation.xml", rel.Target))
			}
		}
	}

	if len(paths) == 0 {
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
				paths = append(paths, f.Name)
			}
		}
		sort.Strings(paths)
	}

	return paths, nil
}

type pptxShape struct {
	top     int64
	left    int64
	text    string
	isTitle bool
	isTable bool
	table   [][]string
	isPic   bool
	altText string
}

// renderSlide extracts the shapes of one slide and formats them as markdown
// in reading order, top to bottom then left to right.
func (c *PptxConverter) renderSlide(slideData []byte) string {
	root, err := parseXMLTree(slideData)
	if err != nil {
		return ""
	}

	var shapes []pptxShape
	c.collectShapes(root, &shapes)

	sort.SliceStable(shapes, func(i, j int) bool {
		if shapes[i].top != shapes[j].top {
			return shapes[i].top < shapes[j].top
		}
		return shapes[i].left < shapes[j].left
	})

	var md strings.Builder
	for _, shape := range shapes {
		switch {
		case shape.isPic && shape.altText != "":
			md.WriteString(fmt.Sprintf("\n![%s](image)\n", sanitizeAltText(shape.altText)))
		case shape.isTable && len(shape.table) > 0:
			md.WriteString(c.tableToMarkdown(shape.table))
		case shape.isTitle:
			if text := strings.TrimSpace(shape.text); text != "" {
				md.WriteString("# " + text + "\n")
			}
		case shape.text != "":
			md.WriteString(shape.text + "\n")
		}
	}

	return md.String()
}

// sanitizeAltText cleans alt text for markdown image syntax.
func sanitizeAltText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "[", " ")
	s = strings.ReplaceAll(s, "]", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// collectShapes walks the slide tree gathering text shapes, pictures and
// graphic frames. Group shapes are flattened.
func (c *PptxConverter) collectShapes(node *xmlNode, shapes *[]pptxShape) {
	switch node.XMLName.Local {
	case "sp":
		if shape := c.textShape(node); shape != nil {
			*shapes = append(*shapes, *shape)
		}
	case "pic":
		if shape := c.pictureShape(node); shape != nil {
			*shapes = append(*shapes, *shape)
		}
	case "graphicFrame":
		if shape := c.frameShape(node); shape != nil {
			*shapes = append(*shapes, *shape)
		}
	default:
		for i := range node.Children {
			c.collectShapes(&node.Children[i], shapes)
		}
	}
}

// textShape builds a shape from an sp element, or nil when it has no text.
func (c *PptxConverter) textShape(node *xmlNode) *pptxShape {
	shape := &pptxShape{}
	shape.top, shape.left = shapePosition(node)

	if ph := node.findDeep("ph"); ph != nil {
		phType := ph.getAttr("type")
		shape.isTitle = phType == "title" || phType == "ctrTitle"
	}

	if txBody := node.findChild("txBody"); txBody != nil {
		shape.text = textFromTxBody(txBody)
	}

	if strings.TrimSpace(shape.text) == "" {
		return nil
	}
	return shape
}

// pictureShape builds a shape from a pic element, or nil without alt text.
func (c *PptxConverter) pictureShape(node *xmlNode) *pptxShape {
	shape := &pptxShape{isPic: true}
	shape.top, shape.left = shapePosition(node)

	if cNvPr := node.findDeep("cNvPr"); cNvPr != nil {
		shape.altText = cNvPr.getAttr("descr")
	}

	if shape.altText == "" {
		return nil
	}
	return shape
}

// frameShape builds a shape from a graphicFrame element. Only tables are
// extracted; charts and embedded objects yield nil.
func (c *PptxConverter) frameShape(node *xmlNode) *pptxShape {
	tbl := node.findDeep("tbl")
	if tbl == nil {
		return nil
	}

	shape := &pptxShape{isTable: true}
	shape.top, shape.left = shapePosition(node)
	shape.table = tableCells(tbl)

	if len(shape.table) == 0 {
		return nil
	}
	return shape
}

// shapePosition reads the offset from the shape's xfrm element. Shapes
// without one sort last. A graphicFrame carries xfrm directly while sp and
// pic nest it under spPr, so the lookup is by descent.
func shapePosition(node *xmlNode) (top, left int64) {
	top, left = math.MaxInt64, math.MaxInt64

	xfrm := node.findDeep("xfrm")
	if xfrm == nil {
		return
	}
	off := xfrm.findChild("off")
	if off == nil {
		return
	}

	if v, err := strconv.ParseInt(off.getAttr("y"), 10, 64); err == nil {
		top = v
	}
	if v, err := strconv.ParseInt(off.getAttr("x"), 10, 64); err == nil {
		left = v
	}
	return
}

// textFromTxBody joins the text runs of a txBody, one line per paragraph.
func textFromTxBody(txBody *xmlNode) string {
	var parts []string
	for _, p := range txBody.findAll("p") {
		var line []string
		for _, t := range p.findAllDeep("t") {
			if text := t.allText(); text != "" {
				line = append(line, text)
			}
		}
		if len(line) > 0 {
			parts = append(parts, strings.Join(line, ""))
		}
	}
	return strings.Join(parts, "\n")
}

// tableCells extracts the cell text of a tbl element.
func tableCells(tbl *xmlNode) [][]string {
	var rows [][]string
	for _, tr := range tbl.findAll("tr") {
		var row []string
		for _, tc := range tr.findAll("tc") {
			if txBody := tc.findChild("txBody"); txBody != nil {
				row = append(row, strings.TrimSpace(textFromTxBody(txBody)))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// tableToMarkdown converts table cells to a markdown table, first row as
// header. Goes through the HTML converter so cell content gets the same
// escaping as document tables, with the plain renderer as fallback.
func (c *PptxConverter) tableToMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var htmlBuf strings.Builder
	htmlBuf.WriteString("<html><body><table>")
	for i, row := range rows {
		htmlBuf.WriteString("<tr>")
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		for _, cell := range row {
			htmlBuf.WriteString("<" + tag + ">" + escapeHTMLText(cell) + "</" + tag + ">")
		}
		htmlBuf.WriteString("</tr>")
	}
	htmlBuf.WriteString("</table></body></html>")

	htmlConv := NewHTMLConverter(c.markitdown)
	result, err := htmlConv.ConvertString(htmlBuf.String())
	if err != nil {
		return renderMarkdownTable(rows)
	}
	return strings.TrimSpace(result.Markdown) + "\n"
}

// slideNotes returns the text of the slide's notes page, if any.
func (c *PptxConverter) slideNotes(zr *zip.Reader, slidePath string) string {
	rels, err := ooxml.ParseRelationships(zr, ooxml.RelsPathFor(slidePath))
	if err != nil {
		return ""
	}

	var notesPath string
	for _, rel := range rels {
		if strings.Contains(rel.Type, "notesSlide") {
			notesPath = ooxml.ResolveTarget(slidePath, rel.Target)
			break
		}
	}
	if notesPath == "" {
		return ""
	}

	notesData, err := ooxml.ReadPart(zr, notesPath)
	if err != nil {
		return ""
	}

	root, err := parseXMLTree(notesData)
	if err != nil {
		return ""
	}

	var parts []string
	for _, txBody := range root.findAllDeep("txBody") {
		if text := strings.TrimSpace(textFromTxBody(txBody)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
