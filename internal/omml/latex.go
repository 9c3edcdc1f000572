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

package omml

import "strings"

// Templates carry {0} or named placeholders substituted by applyArg and
// applyFields. Placeholders sit inside literal braces, so `\hat{{0}}`
// renders as `\hat{x}`.
const (
	argPlaceholder = "{arg}"
	lineBreak      = `\\`
	columnSep      = "&"

	accentDefault   = `\hat{{0}}`
	barDefault      = `\overline{{0}}`
	fractionDefault = `\frac{{num}}{{den}}`
	integralDefault = `\int`
	subscriptTmpl   = `_{{0}}`
	superscriptTmpl = `^{{0}}`
	delimiterTmpl   = `\left{left}{text}\right{right}`
	radicalTmpl     = `\sqrt{{text}}`
	radicalDegTmpl  = `\sqrt[{deg}]{{text}}`
	arrayTmpl       = `\begin{array}{c}{text}\end{array}`
	matrixTmpl      = `\begin{matrix}{text}\end{matrix}`
	limitUpperTmpl  = `\overset{{lim}}{{text}}`
)

// applyArg substitutes the {0} placeholder in a template.
func applyArg(tmpl, arg string) string {
	return strings.ReplaceAll(tmpl, "{0}", arg)
}

// applyFields substitutes named placeholders in a template. The single pass
// keeps placeholder-shaped text inside substituted values intact.
func applyFields(tmpl string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// lookup resolves key through table. An empty key takes the fallback; a key
// missing from the table passes through unchanged.
func lookup(key, fallback string, table map[string]string) string {
	if key == "" {
		return fallback
	}
	if v, ok := table[key]; ok {
		return v
	}
	return key
}

// latexSpecials are characters that need a backslash escape in LaTeX text.
var latexSpecials = map[rune]bool{
	'{': true, '}': true, '_': true, '^': true,
	'#': true, '&': true, '$': true, '%': true, '~': true,
}

// escapeText escapes LaTeX special characters that are not already escaped.
func escapeText(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		if latexSpecials[r] && prev != '\\' {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// accents maps combining accent characters to LaTeX accent commands.
var accents = map[string]string{
	// Above
	"̀": `\grave{{0}}`,
	"́": `\acute{{0}}`,
	"̂": `\hat{{0}}`,
	"̃": `\tilde{{0}}`,
	"̄": `\bar{{0}}`,
	"̅": `\overbar{{0}}`,
	"̆": `\breve{{0}}`,
	"̇": `\dot{{0}}`,
	"̈": `\ddot{{0}}`,
	"̉": `\ovhook{{0}}`,
	"̊": `\ocirc{{0}}`,
	"̌": `\check{{0}}`,
	"̐": `\candra{{0}}`,
	"̒": `\oturnedcomma{{0}}`,
	"̕": `\ocommatopright{{0}}`,
	"̚": `\droang{{0}}`,
	"̸": `\not{{0}}`,
	"⃐": `\leftharpoonaccent{{0}}`,
	"⃑": `\rightharpoonaccent{{0}}`,
	"⃒": `\vertoverlay{{0}}`,
	"⃖": `\overleftarrow{{0}}`,
	"⃗": `\vec{{0}}`,
	"⃛": `\dddot{{0}}`,
	"⃜": `\ddddot{{0}}`,
	"⃡": `\overleftrightarrow{{0}}`,
	"⃧": `\annuity{{0}}`,
	"⃩": `\widebridgeabove{{0}}`,
	"⃰": `\asteraccent{{0}}`,
	// Below
	"̰": `\wideutilde{{0}}`,
	"̱": `\underbar{{0}}`,
	"⃨": `\threeunderdot{{0}}`,
	"⃬": `\underrightharpoondown{{0}}`,
	"⃭": `\underleftharpoondown{{0}}`,
	"⃮": `\underleftarrow{{0}}`,
	"⃯": `\underrightarrow{{0}}`,
	// Group above
	"⎴": `\overbracket{{0}}`,
	"⏜": `\overparen{{0}}`,
	"⏞": `\overbrace{{0}}`,
	// Group below
	"⎵": `\underbracket{{0}}`,
	"⏝": `\underparen{{0}}`,
	"⏟": `\underbrace{{0}}`,
}

// bigOperators maps n-ary operator characters to LaTeX commands.
var bigOperators = map[string]string{
	"⅀": `\Bbbsum`,
	"∏": `\prod`,
	"∐": `\coprod`,
	"∑": `\sum`,
	"∫": `\int`,
	"⋀": `\bigwedge`,
	"⋁": `\bigvee`,
	"⋂": `\bigcap`,
	"⋃": `\bigcup`,
	"⨀": `\bigodot`,
	"⨁": `\bigoplus`,
	"⨂": `\bigotimes`,
}

// symbols maps math characters in text runs to LaTeX. Mathematical italic
// letters fold back to plain ASCII since LaTeX math mode italicizes them
// anyway.
var symbols = map[string]string{
	// Greek, italic
	"\U0001d6fc": `\alpha `,
	"\U0001d6fd": `\beta `,
	"\U0001d6fe": `\gamma `,
	"\U0001d6ff": `\delta `,
	"\U0001d700": `\epsilon `,
	"\U0001d701": `\zeta `,
	"\U0001d702": `\eta `,
	"\U0001d703": `\theta `,
	"\U0001d704": `\iota `,
	"\U0001d705": `\kappa `,
	"\U0001d706": `\lambda `,
	"\U0001d707": `\mu `,
	"\U0001d708": `\nu `,
	"\U0001d709": `\xi `,
	"\U0001d70a": `\omicron `,
	"\U0001d70b": `\pi `,
	"\U0001d70c": `\rho `,
	"\U0001d70d": `\varsigma `,
	"\U0001d70e": `\sigma `,
	"\U0001d70f": `\tau `,
	"\U0001d710": `\upsilon `,
	"\U0001d711": `\phi `,
	"\U0001d712": `\chi `,
	"\U0001d713": `\psi `,
	"\U0001d714": `\omega `,
	"\U0001d715": `\partial `,
	"\U0001d716": `\varepsilon `,
	"\U0001d717": `\vartheta `,
	"\U0001d718": `\varkappa `,
	"\U0001d719": `\varphi `,
	"\U0001d71a": `\varrho `,
	"\U0001d71b": `\varpi `,
	// Arrows
	"←": `\leftarrow `,
	"↑": `\uparrow `,
	"→": `\rightarrow `,
	"↓": `\downarrow `,
	"↔": `\leftrightarrow `,
	"↕": `\updownarrow `,
	"↖": `\nwarrow `,
	"↗": `\nearrow `,
	"↘": `\searrow `,
	"↙": `\swarrow `,
	// Dots
	"⋮": `\vdots `,
	"⋯": `\cdots `,
	"⋰": `\adots `,
	"⋱": `\ddots `,
	// Relations
	"≠": `\ne `,
	"≤": `\leq `,
	"≥": `\geq `,
	"≦": `\leqq `,
	"≧": `\geqq `,
	"≨": `\lneqq `,
	"≩": `\gneqq `,
	"≪": `\ll `,
	"≫": `\gg `,
	"∈": `\in `,
	"∉": `\notin `,
	"∋": `\ni `,
	"∌": `\nni `,
	"∞": `\infty `,
	"±": `\pm `,
	"∓": `\mp `,
	// Latin, italic, uppercase
	"\U0001d434": "A",
	"\U0001d435": "B",
	"\U0001d436": "C",
	"\U0001d437": "D",
	"\U0001d438": "E",
	"\U0001d439": "F",
	"\U0001d43a": "G",
	"\U0001d43b": "H",
	"\U0001d43c": "I",
	"\U0001d43d": "J",
	"\U0001d43e": "K",
	"\U0001d43f": "L",
	"\U0001d440": "M",
	"\U0001d441": "N",
	"\U0001d442": "O",
	"\U0001d443": "P",
	"\U0001d444": "Q",
	"\U0001d445": "R",
	"\U0001d446": "S",
	"\U0001d447": "T",
	"\U0001d448": "U",
	"\U0001d449": "V",
	"\U0001d44a": "W",
	"\U0001d44b": "X",
	"\U0001d44c": "Y",
	"\U0001d44d": "Z",
	// Latin, italic, lowercase
	"\U0001d44e": "a",
	"\U0001d44f": "b",
	"\U0001d450": "c",
	"\U0001d451": "d",
	"\U0001d452": "e",
	"\U0001d453": "f",
	"\U0001d454": "g",
	"\U0001d456": "i",
	"\U0001d457": "j",
	"\U0001d458": "k",
	"\U0001d459": "l",
	"\U0001d45a": "m",
	"\U0001d45b": "n",
	"\U0001d45c": "o",
	"\U0001d45d": "p",
	"\U0001d45e": "q",
	"\U0001d45f": "r",
	"\U0001d460": "s",
	"\U0001d461": "t",
	"\U0001d462": "u",
	"\U0001d463": "v",
	"\U0001d464": "w",
	"\U0001d465": "x",
	"\U0001d466": "y",
	"\U0001d467": "z",
}

// functions maps recognized function names to LaTeX templates.
var functions = map[string]string{
	"sin":    `\sin({arg})`,
	"cos":    `\cos({arg})`,
	"tan":    `\tan({arg})`,
	"arcsin": `\arcsin({arg})`,
	"arccos": `\arccos({arg})`,
	"arctan": `\arctan({arg})`,
	"arccot": `\arccot({arg})`,
	"sinh":   `\sinh({arg})`,
	"cosh":   `\cosh({arg})`,
	"tanh":   `\tanh({arg})`,
	"coth":   `\coth({arg})`,
	"sec":    `\sec({arg})`,
	"csc":    `\csc({arg})`,
}

// positions maps bar positions to LaTeX commands.
var positions = map[string]string{
	"top": `\overline{{0}}`,
	"bot": `\underline{{0}}`,
}

// fractions maps fraction types to LaTeX templates.
var fractions = map[string]string{
	"bar":   `\frac{{num}}{{den}}`,
	"skw":   `^{{num}}/_{{den}}`,
	"noBar": `\genfrac{}{}{0pt}{}{{num}}{{den}}`,
	"lin":   `{{num}}/{{den}}`,
}

// limitFunctions maps limit-style function names to LaTeX templates.
var limitFunctions = map[string]string{
	"lim": `\lim_{{lim}}`,
	"max": `\max_{{lim}}`,
	"min": `\min_{{lim}}`,
}
