// Package highlight turns source code into a standalone, syntax-coloured HTML
// document using the chroma library.
//
// The set of accepted languages and styles is read from chroma's registries
// once, at construction time, so validation only ever accepts values that can
// actually be rendered.
package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var (
	ErrUnknownLanguage = errors.New("highlight: unknown language")
	ErrUnknownStyle    = errors.New("highlight: unknown style")
)

// Options are the optional rendering parameters.
type Options struct {
	// Title, when non-empty, becomes the page <title> and a <h2> header.
	Title string
	// LineNumbers adds a line-number gutter rendered as a table column.
	LineNumbers bool
}

// documentTemplate wraps the highlighted fragment in a complete HTML page.
// CSS and Body are produced by chroma and inserted verbatim; Title is escaped.
var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style type="text/css">
{{.CSS}}
  </style>
</head>
<body>
{{if .Title}}<h2>{{.Title}}</h2>
{{end}}{{.Body}}
</body>
</html>
`))

type document struct {
	Title string
	CSS   template.CSS
	Body  template.HTML
}

// Renderer renders code with chroma. It is safe for concurrent use: its maps
// are only read after New returns.
type Renderer struct {
	languages map[string]chroma.Lexer
	styles    map[string]*chroma.Style
}

// New snapshots chroma's lexer aliases and style names.
//
// Languages are identified by lexer alias ("python", "go", "js", ...), the
// same short names most highlighting tools accept.
func New() *Renderer {
	r := &Renderer{
		languages: make(map[string]chroma.Lexer),
		styles:    make(map[string]*chroma.Style),
	}

	for _, lexer := range lexers.GlobalLexerRegistry.Lexers {
		for _, alias := range lexer.Config().Aliases {
			alias = strings.ToLower(alias)
			if _, seen := r.languages[alias]; !seen {
				r.languages[alias] = lexer
			}
		}
	}

	for name, style := range styles.Registry {
		r.styles[name] = style
	}

	return r
}

// Languages returns the sorted list of accepted language identifiers.
func (r *Renderer) Languages() []string {
	return sortedKeys(r.languages)
}

// Styles returns the sorted list of accepted style identifiers.
func (r *Renderer) Styles() []string {
	return sortedKeys(r.styles)
}

func (r *Renderer) HasLanguage(name string) bool {
	_, ok := r.languages[name]
	return ok
}

func (r *Renderer) HasStyle(name string) bool {
	_, ok := r.styles[name]
	return ok
}

// Render produces a full HTML document for code, coloured per style.
func (r *Renderer) Render(code, language, style string, opts Options) (string, error) {
	lexer, ok := r.languages[language]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	theme, ok := r.styles[style]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("highlight: tokenising %s: %w", language, err)
	}

	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.WithLineNumbers(opts.LineNumbers),
		chromahtml.LineNumbersInTable(opts.LineNumbers),
	)

	var css bytes.Buffer
	if err := formatter.WriteCSS(&css, theme); err != nil {
		return "", fmt.Errorf("highlight: writing css for %s: %w", style, err)
	}

	var body bytes.Buffer
	if err := formatter.Format(&body, theme, iterator); err != nil {
		return "", fmt.Errorf("highlight: formatting: %w", err)
	}

	var out bytes.Buffer
	err = documentTemplate.Execute(&out, document{
		Title: opts.Title,
		CSS:   template.CSS(css.String()),
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("highlight: executing document template: %w", err)
	}

	return out.String(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
