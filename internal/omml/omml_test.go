package omml

import (
	"testing"
)

func convertOne(t *testing.T, fragment string) string {
	t.Helper()
	got, err := Convert([]byte(fragment))
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Convert returned %d equations, want 1: %q", len(got), got)
	}
	return got[0]
}

func TestConvertConstructs(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{
			"fraction",
			`<m:oMath><m:f><m:num><m:r><m:t>a</m:t></m:r></m:num><m:den><m:r><m:t>b</m:t></m:r></m:den></m:f></m:oMath>`,
			`\frac{a}{b}`,
		},
		{
			"linear fraction",
			`<m:oMath><m:f><m:fPr><m:type m:val="lin"/></m:fPr><m:num><m:r><m:t>a</m:t></m:r></m:num><m:den><m:r><m:t>b</m:t></m:r></m:den></m:f></m:oMath>`,
			`{a}/{b}`,
		},
		{
			"superscript",
			`<m:oMath><m:sSup><m:e><m:r><m:t>x</m:t></m:r></m:e><m:sup><m:r><m:t>2</m:t></m:r></m:sup></m:sSup></m:oMath>`,
			`x^{2}`,
		},
		{
			"subscript and superscript",
			`<m:oMath><m:sSubSup><m:e><m:r><m:t>x</m:t></m:r></m:e><m:sub><m:r><m:t>i</m:t></m:r></m:sub><m:sup><m:r><m:t>2</m:t></m:r></m:sup></m:sSubSup></m:oMath>`,
			`x_{i}^{2}`,
		},
		{
			"square root",
			`<m:oMath><m:rad><m:e><m:r><m:t>x</m:t></m:r></m:e></m:rad></m:oMath>`,
			`\sqrt{x}`,
		},
		{
			"cube root",
			`<m:oMath><m:rad><m:deg><m:r><m:t>3</m:t></m:r></m:deg><m:e><m:r><m:t>x</m:t></m:r></m:e></m:rad></m:oMath>`,
			`\sqrt[3]{x}`,
		},
		{
			"sum with limits",
			`<m:oMath><m:nary><m:naryPr><m:chr m:val="&#x2211;"/></m:naryPr><m:sub><m:r><m:t>i</m:t></m:r></m:sub><m:sup><m:r><m:t>n</m:t></m:r></m:sup><m:e><m:r><m:t>i</m:t></m:r></m:e></m:nary></m:oMath>`,
			`\sum_{i}^{n}i`,
		},
		{
			"integral is the default operator",
			`<m:oMath><m:nary><m:naryPr></m:naryPr><m:e><m:r><m:t>x</m:t></m:r></m:e></m:nary></m:oMath>`,
			`\intx`,
		},
		{
			"vector accent",
			`<m:oMath><m:acc><m:accPr><m:chr m:val="&#x20D7;"/></m:accPr><m:e><m:r><m:t>v</m:t></m:r></m:e></m:acc></m:oMath>`,
			`\vec{v}`,
		},
		{
			"default accent",
			`<m:oMath><m:acc><m:e><m:r><m:t>x</m:t></m:r></m:e></m:acc></m:oMath>`,
			`\hat{x}`,
		},
		{
			"underline bar",
			`<m:oMath><m:bar><m:barPr><m:pos m:val="bot"/></m:barPr><m:e><m:r><m:t>x</m:t></m:r></m:e></m:bar></m:oMath>`,
			`\underline{x}`,
		},
		{
			"parenthesized delimiter",
			`<m:oMath><m:d><m:e><m:r><m:t>x</m:t></m:r></m:e></m:d></m:oMath>`,
			`\left(x\right)`,
		},
		{
			"sine function",
			`<m:oMath><m:func><m:fName><m:r><m:t>sin</m:t></m:r></m:fName><m:e><m:r><m:t>x</m:t></m:r></m:e></m:func></m:oMath>`,
			`\sin(x)`,
		},
		{
			"matrix",
			`<m:oMath><m:m><m:mr><m:e><m:r><m:t>a</m:t></m:r></m:e><m:e><m:r><m:t>b</m:t></m:r></m:e></m:mr><m:mr><m:e><m:r><m:t>c</m:t></m:r></m:e><m:e><m:r><m:t>d</m:t></m:r></m:e></m:mr></m:m></m:oMath>`,
			`\begin{matrix}a&b\\c&d\end{matrix}`,
		},
		{
			"equation array",
			`<m:oMath><m:eqArr><m:e><m:r><m:t>x</m:t></m:r></m:e><m:e><m:r><m:t>y</m:t></m:r></m:e></m:eqArr></m:oMath>`,
			`\begin{array}{c}x\\y\end{array}`,
		},
		{
			"limit",
			`<m:oMath><m:limLow><m:e><m:r><m:t>lim</m:t></m:r></m:e><m:lim><m:r><m:t>n&#x2192;&#x221E;</m:t></m:r></m:lim></m:limLow></m:oMath>`,
			`\lim_{n\to \infty }`,
		},
		{
			"symbol mapping and escaping",
			`<m:oMath><m:r><m:t>&#x1D70B;r%</m:t></m:r></m:oMath>`,
			`\pi r\%`,
		},
		{
			"underbrace group",
			`<m:oMath><m:groupChr><m:groupChrPr><m:chr m:val="&#x23DF;"/></m:groupChrPr><m:e><m:r><m:t>abc</m:t></m:r></m:e></m:groupChr></m:oMath>`,
			`\underbrace{abc}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertOne(t, tt.fragment); got != tt.want {
				t.Errorf("Convert = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertBlockParagraph(t *testing.T) {
	fragment := `<m:oMathPara><m:oMath><m:f><m:num><m:r><m:t>1</m:t></m:r></m:num><m:den><m:r><m:t>2</m:t></m:r></m:den></m:f></m:oMath></m:oMathPara>`
	if got := convertOne(t, fragment); got != `\frac{1}{2}` {
		t.Errorf("Convert = %q, want %q", got, `\frac{1}{2}`)
	}
}

func TestConvertMultipleEquations(t *testing.T) {
	fragment := `<m:oMath><m:r><m:t>a</m:t></m:r></m:oMath><m:oMath><m:r><m:t>b</m:t></m:r></m:oMath>`
	got, err := Convert([]byte(fragment))
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Convert = %q, want [a b]", got)
	}
}

func TestConvertWordRunProperties(t *testing.T) {
	// Math runs may carry w:rPr children, which must not leak into output
	fragment := `<m:oMath><m:r><w:rPr><w:i/></w:rPr><m:t>x</m:t></m:r></m:oMath>`
	if got := convertOne(t, fragment); got != "x" {
		t.Errorf("Convert = %q, want x", got)
	}
}

func TestConvertMalformedXML(t *testing.T) {
	if _, err := Convert([]byte(`<m:oMath><m:r>`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEscapeText(t *testing.T) {
	if got := escapeText(`100% of {x}_1`); got != `100\% of \{x\}\_1` {
		t.Errorf("escapeText = %q", got)
	}
	// Already escaped characters stay single-escaped
	if got := escapeText(`a\_b`); got != `a\_b` {
		t.Errorf("escapeText = %q", got)
	}
}
