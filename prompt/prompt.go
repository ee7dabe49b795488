package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed prompts/*.txt
var embedded embed.FS

// Name identifies a prompt template.
type Name string

// The prompts the generator renders.
const (
	DraftSystem  Name = "draft-system"
	Draft        Name = "draft"
	Revise       Name = "revise"
	ReviewSystem Name = "review-system"
	Review       Name = "review"
	Outline      Name = "outline"
	Propose      Name = "propose"
)

// Names lists every prompt the generator needs.
func Names() []Name {
	return []Name{DraftSystem, Draft, Revise, ReviewSystem, Review, Outline, Propose}
}

// ErrNotFound is returned for a name no layer provides.
var ErrNotFound = errors.New("prompt not found")

// Loader renders prompt templates. Project overrides in
// <project>/.noteflow/prompts then <project>/prompts shadow the embedded
// defaults file by file.
type Loader struct {
	mu     sync.Mutex
	layers []layer
	cache  map[string]*template.Template
	funcs  template.FuncMap
}

type layer struct {
	fsys fs.FS
	dir  string
	name string
}

// NewLoader returns a loader for projectDir. An empty projectDir uses only
// the embedded prompts.
func NewLoader(projectDir string) *Loader {
	l := &Loader{
		cache: make(map[string]*template.Template),
		funcs: funcMap(),
	}
	if projectDir != "" {
		for _, d := range []string{filepath.Join(projectDir, ".noteflow", "prompts"), filepath.Join(projectDir, "prompts")} {
			l.layers = append(l.layers, layer{fsys: os.DirFS(d), dir: ".", name: d})
		}
	}
	l.layers = append(l.layers, layer{fsys: embedded, dir: "prompts", name: "embedded"})
	return l
}

// Load renders name with no variables.
func (l *Loader) Load(name string) (string, error) {
	return l.LoadWithVars(name, nil)
}

// LoadWithVars renders name with vars.
func (l *Loader) LoadWithVars(name string, vars map[string]any) (string, error) {
	tmpl, err := l.template(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// Source names the layer that provides name: a directory path or
// "embedded".
func (l *Loader) Source(name string) (string, error) {
	_, src, err := l.read(name)
	return src, err
}

// Validate parses every generator prompt, so a broken override is reported
// before any article runs.
func (l *Loader) Validate() error {
	var errs []error
	for _, n := range Names() {
		if _, err := l.template(string(n)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) template(name string) (*template.Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}
	content, src, err := l.read(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Funcs(l.funcs).Option("missingkey=zero").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s (%s): %w", name, src, err)
	}
	l.cache[name] = tmpl
	return tmpl, nil
}

func (l *Loader) read(name string) (string, string, error) {
	file := name + ".txt"
	for _, ly := range l.layers {
		data, err := fs.ReadFile(ly.fsys, ly.dir+"/"+file)
		if err == nil {
			return string(data), ly.name, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join":     strings.Join,
		"upper":    strings.ToUpper,
		"title":    cases.Title(language.English).String,
		"default":  defaultValue,
		"truncate": truncateRunes,
		"bullets":  bulletList,
		"numbered": numberedList,
	}
}

func defaultValue(fallback, value any) any {
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return fallback
	}
	return value
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(n int, s string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func numberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Builder assembles a markdown document section by section.
type Builder struct {
	parts []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a raw block.
func (b *Builder) Add(text string) *Builder {
	b.parts = append(b.parts, text)
	return b
}

// AddSection appends "## header" followed by content.
func (b *Builder) AddSection(header, content string) *Builder {
	return b.Add("## " + header + "\n\n" + content)
}

// AddList appends a bulleted section. An empty header omits the heading.
func (b *Builder) AddList(header string, items []string) *Builder {
	list := bulletList(items) + "\n"
	if header == "" {
		return b.Add(list)
	}
	return b.AddSection(header, list)
}

// Build joins the blocks with blank lines.
func (b *Builder) Build() string {
	return strings.Join(b.parts, "\n\n")
}
