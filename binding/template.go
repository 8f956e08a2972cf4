// Package binding renders the small {token} templates used for titles,
// subtitles, export file names and export locations.
package binding

import (
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/linemap/linedata"
)

var (
	templateLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Token", Pattern: `\{[A-Za-z_][A-Za-z0-9_]*\}`},
		{Name: "Text", Pattern: `[^{]+`},
		{Name: "Brace", Pattern: `\{`},
	})

	templateParser = participle.MustBuild[Template](
		participle.Lexer(templateLexer),
	)

	cache sync.Map // template source → *Template
)

// Template is a parsed template: literal text interleaved with {token} parts.
type Template struct {
	Parts []*Part `parser:"@@*"`
}

// Part is either a {token} or literal text. A lone '{' is literal.
type Part struct {
	Token *string `parser:"  @Token"`
	Text  *string `parser:"| @( Text | Brace )"`
}

// Vars maps token names (without braces) to their values.
type Vars map[string]string

// Compile parses src. Compiled templates are cached by source.
func Compile(src string) (*Template, error) {
	if t, ok := cache.Load(src); ok {
		return t.(*Template), nil
	}
	t := &Template{}
	if src != "" {
		parsed, err := templateParser.ParseString("", src)
		if err != nil {
			return nil, err
		}
		t = parsed
	}
	cache.Store(src, t)
	return t, nil
}

// Execute substitutes every known token in one pass. Values are never
// re-scanned, and unknown tokens are kept verbatim.
func (t *Template) Execute(vars Vars) string {
	var b strings.Builder
	for _, p := range t.Parts {
		switch {
		case p.Token != nil:
			name := strings.TrimSuffix(strings.TrimPrefix(*p.Token, "{"), "}")
			if v, ok := vars[name]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(*p.Token)
			}
		case p.Text != nil:
			b.WriteString(*p.Text)
		}
	}
	return b.String()
}

// Names lists the tokens used by the template, in order of appearance.
func (t *Template) Names() []string {
	var out []string
	for _, p := range t.Parts {
		if p.Token != nil {
			out = append(out, strings.Trim(*p.Token, "{}"))
		}
	}
	return out
}

// RenderVars renders src with vars. A template that fails to parse is
// returned unchanged.
func RenderVars(src string, vars Vars) string {
	t, err := Compile(src)
	if err != nil {
		return src
	}
	return t.Execute(vars)
}

// LineVars returns the tokens available to title, subtitle and file name
// templates: {system} {id} {name} {years} {years_paren}.
func LineVars(l *linedata.Line) Vars {
	years := strings.TrimSpace(l.Years)
	yearsParen := ""
	if years != "" {
		yearsParen = " (" + years + ")"
	}
	return Vars{
		"system":      l.System,
		"id":          l.ID,
		"name":        l.Name,
		"years":       years,
		"years_paren": yearsParen,
	}
}

// Render renders a title, subtitle or file name template for a line.
func Render(src string, l *linedata.Line) string {
	return RenderVars(src, LineVars(l))
}

// LocationVars returns the tokens available to export location templates:
// {base} {region} {system} {id}. Callers sanitize the values.
func LocationVars(base string, l *linedata.Line) Vars {
	return Vars{
		"base":   base,
		"region": l.Region,
		"system": l.System,
		"id":     l.ID,
	}
}

// RenderLocation renders an export location template.
func RenderLocation(src, base string, l *linedata.Line) string {
	return RenderVars(src, LocationVars(base, l))
}
