// Package markdown extracts structure from markdown and renders it to HTML.
package markdown

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Heading is one heading in document order.
type Heading struct {
	Level int
	Text  string
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Headings returns every ATX or setext heading in src.
func Headings(src string) []Heading {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if t := strings.TrimSpace(nodeText(h, source)); t != "" {
			out = append(out, Heading{Level: h.Level, Text: t})
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

// HeadingTexts returns heading texts with level at most maxLevel.
func HeadingTexts(src string, maxLevel int) []string {
	var out []string
	for _, h := range Headings(src) {
		if h.Level <= maxLevel {
			out = append(out, h.Text)
		}
	}
	return out
}

// Title returns the first level-1 heading, or the first heading of any
// level when there is none.
func Title(src string) string {
	hs := Headings(src)
	for _, h := range hs {
		if h.Level == 1 {
			return h.Text
		}
	}
	if len(hs) > 0 {
		return hs[0].Text
	}
	return ""
}

// ToHTML renders src as HTML.
func ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	bracketHeading  = regexp.MustCompile(`^【(.+?)】`)
	squareHeading   = regexp.MustCompile(`^[■□◆◇●▼]\s*(.+)$`)
	numberedHeading = regexp.MustCompile(`^(?:\d+[.．)]|第\d+[章節])\s*(.+)$`)
)

// LooseHeadings extracts headings from text scraped off web pages, where
// markdown markers are often replaced by decorative brackets, squares or
// numbering. Markdown headings are recognised too. Duplicates are dropped.
func LooseHeadings(src string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] || utf8.RuneCountInString(s) > 80 {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, line := range strings.Split(src, "\n") {
		if limit > 0 && len(out) >= limit {
			break
		}
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#"):
			add(strings.TrimLeft(line, "# "))
		case bracketHeading.MatchString(line):
			add(bracketHeading.FindStringSubmatch(line)[1])
		case squareHeading.MatchString(line):
			add(squareHeading.FindStringSubmatch(line)[1])
		case numberedHeading.MatchString(line):
			add(numberedHeading.FindStringSubmatch(line)[1])
		}
	}
	return out
}

// ReadMinutes estimates reading time at 500 characters per minute, the
// usual rate for Japanese prose. It is never below one.
func ReadMinutes(src string) int {
	n := utf8.RuneCountInString(src) / 500
	if n < 1 {
		return 1
	}
	return n
}

// Plain strips markdown syntax and returns the text content.
func Plain(src string) string {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))
	var parts []string
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if t := strings.TrimSpace(nodeText(c, source)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		case *ast.CodeSpan:
			for cc := v.FirstChild(); cc != nil; cc = cc.NextSibling() {
				if t, ok := cc.(*ast.Text); ok {
					sb.Write(t.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
