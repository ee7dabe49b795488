package research

import (
	"strings"
	"unicode/utf8"

	"github.com/randalmurphal/noteflow/prompt"
)

// brief is a thin wrapper over prompt.Builder with a fixed title.
type brief struct {
	b *prompt.Builder
}

func newBrief() *brief {
	return &brief{b: prompt.NewBuilder().Add("# Research brief")}
}

func (r *brief) section(header, content string) {
	r.b.AddSection(header, strings.TrimSpace(content))
}

func (r *brief) list(header string, items []string) {
	r.b.AddList(header, items)
}

func (r *brief) String() string {
	return strings.TrimSpace(r.b.Build()) + "\n"
}

// oneLine collapses whitespace and truncates to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
