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

// Package omml converts Office Math Markup Language equations, as embedded
// in DOCX documents, to LaTeX.
package omml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// NSMath is the OMML namespace.
const NSMath = "http://schemas.openxmlformats.org/officeDocument/2006/math"

const nsWordMain = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// node is a generic view of an OMML element tree.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
	Text     string     `xml:",chardata"`
}

func findChild(n *node, name string) *node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

func attrVal(n *node) string {
	for _, a := range n.Attrs {
		if a.Name.Local == "val" {
			return a.Value
		}
	}
	return ""
}

// Convert renders every oMath element found in the XML fragment as LaTeX,
// in document order. The fragment is typically an oMath or oMathPara
// element cut out of word/document.xml.
func Convert(fragment []byte) ([]string, error) {
	var buf bytes.Buffer
	buf.Grow(len(fragment) + 128)
	buf.WriteString(`<eq xmlns:m="` + NSMath + `" xmlns:w="` + nsWordMain + `">`)
	buf.Write(fragment)
	buf.WriteString(`</eq>`)

	var root node
	if err := xml.Unmarshal(buf.Bytes(), &root); err != nil {
		return nil, fmt.Errorf("parse equation XML: %w", err)
	}

	var equations []string
	collectEquations(&root, &equations)
	return equations, nil
}

func collectEquations(n *node, out *[]string) {
	if n.XMLName.Local == "oMath" {
		if latex := renderChildren(n, nil); latex != "" {
			*out = append(*out, latex)
		}
		return
	}
	for i := range n.Children {
		collectEquations(&n.Children[i], out)
	}
}

// props holds the layout hints parsed from a *Pr element.
type props struct {
	text   string
	chr    string
	pos    string
	begChr string
	endChr string
	kind   string
}

func parseProps(n *node) props {
	var p props
	for i := range n.Children {
		c := &n.Children[i]
		switch c.XMLName.Local {
		case "brk":
			p.text += lineBreak
		case "chr":
			p.chr = attrVal(c)
		case "pos":
			p.pos = attrVal(c)
		case "begChr":
			p.begChr = attrVal(c)
		case "endChr":
			p.endChr = attrVal(c)
		case "type":
			p.kind = attrVal(c)
		}
	}
	return p
}

// containerTags are elements whose children render directly in sequence.
var containerTags = map[string]bool{
	"box": true, "sSub": true, "sSup": true, "sSubSup": true,
	"num": true, "den": true, "deg": true, "e": true,
}

// render dispatches one element to its LaTeX form. Unknown elements render
// as nothing.
func render(n *node) string {
	switch n.XMLName.Local {
	case "acc":
		return accent(n)
	case "bar":
		return bar(n)
	case "d":
		return delimiter(n)
	case "eqArr":
		return equationArray(n)
	case "f":
		return fraction(n)
	case "fName":
		return functionName(n)
	case "func":
		return function(n)
	case "groupChr":
		return groupChar(n)
	case "lim":
		return limit(n)
	case "limLow":
		return limitLower(n)
	case "limUpp":
		return limitUpper(n)
	case "m":
		return matrix(n)
	case "mr":
		return matrixRow(n)
	case "nary":
		return narySymbol(n)
	case "r":
		return textRun(n)
	case "rad":
		return radical(n)
	case "sub":
		return subscript(n)
	case "sup":
		return superscript(n)
	}

	if containerTags[n.XMLName.Local] {
		return renderChildren(n, nil)
	}
	if strings.HasSuffix(n.XMLName.Local, "Pr") {
		return parseProps(n).text
	}
	return ""
}

// renderChildren renders children in order and concatenates the results,
// restricted to the given tags when only is non-nil.
func renderChildren(n *node, only map[string]bool) string {
	var b strings.Builder
	for i := range n.Children {
		c := &n.Children[i]
		if only != nil && !only[c.XMLName.Local] {
			continue
		}
		b.WriteString(render(c))
	}
	return b.String()
}

type tagged struct {
	tag  string
	text string
}

// renderSequence renders children in order, keeping tag/text pairs for
// callers that treat tags differently.
func renderSequence(n *node, only map[string]bool) []tagged {
	var out []tagged
	for i := range n.Children {
		c := &n.Children[i]
		if only != nil && !only[c.XMLName.Local] {
			continue
		}
		if text := render(c); text != "" {
			out = append(out, tagged{tag: c.XMLName.Local, text: text})
		}
	}
	return out
}

// renderMap renders children into a tag-keyed map.
func renderMap(n *node, only map[string]bool) map[string]string {
	out := make(map[string]string)
	for i := range n.Children {
		c := &n.Children[i]
		if only != nil && !only[c.XMLName.Local] {
			continue
		}
		if text := render(c); text != "" {
			out[c.XMLName.Local] = text
		}
	}
	return out
}

// propsAndBody parses the named properties child and renders everything
// else into one string.
func propsAndBody(n *node, prTag string) (props, string) {
	var pr props
	var body strings.Builder
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == prTag {
			pr = parseProps(c)
			continue
		}
		body.WriteString(render(c))
	}
	return pr, body.String()
}

func accent(n *node) string {
	pr, body := propsAndBody(n, "accPr")
	return applyArg(lookup(pr.chr, accentDefault, accents), body)
}

func bar(n *node) string {
	pr, body := propsAndBody(n, "barPr")
	return pr.text + applyArg(lookup(pr.pos, barDefault, positions), body)
}

func delimiter(n *node) string {
	pr, body := propsAndBody(n, "dPr")
	return pr.text + applyFields(delimiterTmpl, map[string]string{
		"left":  escapeText(lookup(pr.begChr, "(", symbols)),
		"text":  body,
		"right": escapeText(lookup(pr.endChr, ")", symbols)),
	})
}

func equationArray(n *node) string {
	var rows []string
	for _, tt := range renderSequence(n, map[string]bool{"e": true}) {
		rows = append(rows, tt.text)
	}
	return applyFields(arrayTmpl, map[string]string{"text": strings.Join(rows, lineBreak)})
}

func fraction(n *node) string {
	var pr props
	fields := map[string]string{"num": "", "den": ""}
	for i := range n.Children {
		c := &n.Children[i]
		switch c.XMLName.Local {
		case "fPr":
			pr = parseProps(c)
		case "num", "den":
			fields[c.XMLName.Local] = render(c)
		}
	}
	return pr.text + applyFields(lookup(pr.kind, fractionDefault, fractions), fields)
}

func function(n *node) string {
	parts := renderMap(n, nil)
	return strings.ReplaceAll(parts["fName"], argPlaceholder, parts["e"])
}

func functionName(n *node) string {
	var b strings.Builder
	for _, tt := range renderSequence(n, nil) {
		if tt.tag == "r" {
			if tmpl, ok := functions[tt.text]; ok {
				b.WriteString(tmpl)
				continue
			}
		}
		b.WriteString(tt.text)
	}
	name := b.String()
	if !strings.Contains(name, argPlaceholder) {
		name += argPlaceholder
	}
	return name
}

func groupChar(n *node) string {
	pr, body := propsAndBody(n, "groupChrPr")
	return pr.text + applyArg(lookup(pr.chr, "", accents), body)
}

func limit(n *node) string {
	return strings.ReplaceAll(renderChildren(n, nil), `\rightarrow`, `\to`)
}

func limitLower(n *node) string {
	parts := renderMap(n, map[string]bool{"e": true, "lim": true})
	if tmpl, ok := limitFunctions[parts["e"]]; ok {
		return applyFields(tmpl, map[string]string{"lim": parts["lim"]})
	}
	return parts["e"] + "_{" + parts["lim"] + "}"
}

func limitUpper(n *node) string {
	parts := renderMap(n, map[string]bool{"e": true, "lim": true})
	return applyFields(limitUpperTmpl, map[string]string{
		"lim":  parts["lim"],
		"text": parts["e"],
	})
}

func matrix(n *node) string {
	var rows []string
	for _, tt := range renderSequence(n, nil) {
		if tt.tag == "mr" {
			rows = append(rows, tt.text)
		}
	}
	return applyFields(matrixTmpl, map[string]string{"text": strings.Join(rows, lineBreak)})
}

func matrixRow(n *node) string {
	var cells []string
	for _, tt := range renderSequence(n, map[string]bool{"e": true}) {
		cells = append(cells, tt.text)
	}
	return strings.Join(cells, columnSep)
}

// narySymbol renders big-operator constructs. Without an explicit operator
// character OMML means the integral sign.
func narySymbol(n *node) string {
	op := integralDefault
	var body strings.Builder
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == "naryPr" {
			op = lookup(parseProps(c).chr, integralDefault, bigOperators)
			continue
		}
		body.WriteString(render(c))
	}
	return op + body.String()
}

func radical(n *node) string {
	parts := renderMap(n, nil)
	if deg := parts["deg"]; deg != "" {
		return applyFields(radicalDegTmpl, map[string]string{"deg": deg, "text": parts["e"]})
	}
	return applyFields(radicalTmpl, map[string]string{"text": parts["e"]})
}

func subscript(n *node) string {
	return applyArg(subscriptTmpl, renderChildren(n, nil))
}

func superscript(n *node) string {
	return applyArg(superscriptTmpl, renderChildren(n, nil))
}

// textRun maps math characters in a text run to their LaTeX spellings and
// escapes the rest.
func textRun(n *node) string {
	t := findChild(n, "t")
	if t == nil {
		return ""
	}
	var b strings.Builder
	for _, r := range t.Text {
		if mapped, ok := symbols[string(r)]; ok {
			b.WriteString(mapped)
			continue
		}
		b.WriteRune(r)
	}
	return escapeText(b.String())
}
