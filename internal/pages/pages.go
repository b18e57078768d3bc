// Package pages renders the static informational pages of the portal
// (missions, ethics, glossary...) and the onboarding parcours.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed content/*.md
var content embed.FS

// OnboardingSlug is the page whose second-level sections are the
// onboarding steps.
const OnboardingSlug = "parcours"

// Page is a rendered page.
type Page struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	HTML     string `json:"html,omitempty"`
	Markdown string `json:"-"`
}

// Step is one onboarding step.
type Step struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	HTML   string `json:"html"`
}

// Library holds every page, rendered once at load time.
type Library struct {
	order []string
	pages map[string]*Page
	steps []Step
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// Load renders the embedded pages.
func Load() (*Library, error) {
	return LoadFS(content, "content")
}

// LoadFS renders every markdown file under dir in fsys. Files are ordered
// by name; a leading "NN-" prefix is dropped from the slug.
func LoadFS(fsys fs.FS, dir string) (*Library, error) {
	paths, err := doublestar.Glob(fsys, path.Join(dir, "**", "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	md := newMarkdown()
	lib := &Library{pages: make(map[string]*Page, len(paths))}
	sort.Strings(paths)
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		slug := slugFromPath(p)
		if _, dup := lib.pages[slug]; dup {
			return nil, fmt.Errorf("duplicate page slug %q", slug)
		}

		var buf bytes.Buffer
		if err := md.Convert(data, &buf); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", p, err)
		}
		lib.pages[slug] = &Page{
			Slug:     slug,
			Title:    extractTitle(string(data), slug),
			HTML:     buf.String(),
			Markdown: string(data),
		}
		lib.order = append(lib.order, slug)

		if slug == OnboardingSlug {
			steps, err := parseSteps(md, string(data))
			if err != nil {
				return nil, err
			}
			lib.steps = steps
		}
	}
	return lib, nil
}

// List returns slug and title of every page, without the body.
func (l *Library) List() []Page {
	out := make([]Page, 0, len(l.order))
	for _, slug := range l.order {
		p := l.pages[slug]
		out = append(out, Page{Slug: p.Slug, Title: p.Title})
	}
	return out
}

// Get returns the page with the given slug, or nil.
func (l *Library) Get(slug string) *Page {
	p, ok := l.pages[slug]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// Steps returns the onboarding steps in order.
func (l *Library) Steps() []Step {
	out := make([]Step, len(l.steps))
	copy(out, l.steps)
	return out
}

func slugFromPath(p string) string {
	name := strings.TrimSuffix(path.Base(p), ".md")
	if prefix, rest, ok := strings.Cut(name, "-"); ok && isDigits(prefix) {
		return rest
	}
	return name
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// extractTitle returns the text of the first "# " heading.
func extractTitle(md, fallback string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return fallback
}

// parseSteps splits a page on its "## " headings; each section becomes a step.
func parseSteps(md goldmark.Markdown, src string) ([]Step, error) {
	var (
		steps []Step
		title string
		body  []string
		open  bool
	)
	flush := func() error {
		if !open {
			return nil
		}
		var buf bytes.Buffer
		if err := md.Convert([]byte(strings.TrimSpace(strings.Join(body, "\n"))), &buf); err != nil {
			return fmt.Errorf("rendering step %q: %w", title, err)
		}
		steps = append(steps, Step{Number: len(steps) + 1, Title: title, HTML: buf.String()})
		return nil
	}

	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(line, "## ") {
			if err := flush(); err != nil {
				return nil, err
			}
			title = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			body = body[:0]
			open = true
			continue
		}
		if open {
			body = append(body, line)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return steps, nil
}
