package markdown

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = `# EPM導入の落とし穴

リード文。

## 課題の整理

本文 **強調** あり。

## 解決策と ` + "`code`" + `

### 実践方法

Setext Heading
--------------
`

func TestHeadings(t *testing.T) {
	got := Headings(sample)
	want := []Heading{
		{1, "EPM導入の落とし穴"},
		{2, "課題の整理"},
		{2, "解決策と code"},
		{3, "実践方法"},
		{2, "Setext Heading"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Headings() mismatch (-want +got):\n%s", diff)
	}
}

func TestHeadingTexts(t *testing.T) {
	got := HeadingTexts(sample, 2)
	if len(got) != 4 {
		t.Errorf("HeadingTexts(2) = %v, want 4 entries", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title(sample); got != "EPM導入の落とし穴" {
		t.Errorf("Title() = %q", got)
	}
	if got := Title("## only h2\n"); got != "only h2" {
		t.Errorf("Title() fallback = %q, want %q", got, "only h2")
	}
	if got := Title("no headings"); got != "" {
		t.Errorf("Title() = %q, want empty", got)
	}
}

func TestToHTML(t *testing.T) {
	html, err := ToHTML("# Title\n\n- a\n- b\n")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	for _, want := range []string{"<h1>Title</h1>", "<li>a</li>"} {
		if !strings.Contains(html, want) {
			t.Errorf("ToHTML() = %q, want %q", html, want)
		}
	}
}

func TestLooseHeadings(t *testing.T) {
	page := strings.Join([]string{
		"## Markdown heading",
		"【ポイント】ここが重要",
		"■ 予算管理の基本",
		"1. 現状把握",
		"第2章 計画策定",
		"plain sentence",
		"■ 予算管理の基本",
	}, "\n")

	got := LooseHeadings(page, 0)
	want := []string{"Markdown heading", "ポイント", "予算管理の基本", "現状把握", "計画策定"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LooseHeadings() mismatch (-want +got):\n%s", diff)
	}

	if got := LooseHeadings(page, 2); len(got) != 2 {
		t.Errorf("LooseHeadings(limit=2) = %v", got)
	}
}

func TestReadMinutes(t *testing.T) {
	if got := ReadMinutes("short"); got != 1 {
		t.Errorf("ReadMinutes(short) = %d, want 1", got)
	}
	if got := ReadMinutes(strings.Repeat("字", 2500)); got != 5 {
		t.Errorf("ReadMinutes(2500 runes) = %d, want 5", got)
	}
}

func TestPlain(t *testing.T) {
	got := Plain("# Title\n\nSome *emphasis* here.")
	if strings.Contains(got, "#") || strings.Contains(got, "*") {
		t.Errorf("Plain() = %q, want markup stripped", got)
	}
	if !strings.Contains(got, "emphasis") {
		t.Errorf("Plain() = %q, want text kept", got)
	}
}
