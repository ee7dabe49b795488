package scoring

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Length bounds and heading floor for QuickCheck.
const (
	MinLength   = 2500
	MaxLength   = 5000
	MinHeadings = 3
)

// ActionPhrases mark a concrete call to action.
var ActionPhrases = []string{"今週の一手", "アクション", "実践", "やってみよう", "チェック", "action item", "next step", "try this"}

// QuickResult is the outcome of QuickCheck.
type QuickResult struct {
	Length    int      `json:"length"`
	Headings  int      `json:"headings"`
	HasAction bool     `json:"hasAction"`
	Issues    []string `json:"issues,omitempty"`
	QuickPass bool     `json:"quickPass"`
}

// QuickCheck inspects a draft without a reviewer. Length is counted in runes.
func QuickCheck(content string) QuickResult {
	r := QuickResult{
		Length:   utf8.RuneCountInString(content),
		Headings: strings.Count(content, "##"),
	}
	lower := strings.ToLower(content)
	for _, phrase := range ActionPhrases {
		if strings.Contains(lower, phrase) {
			r.HasAction = true
			break
		}
	}

	switch {
	case r.Length < MinLength:
		r.Issues = append(r.Issues, fmt.Sprintf("draft may be too short (%d chars)", r.Length))
	case r.Length > MaxLength:
		r.Issues = append(r.Issues, fmt.Sprintf("draft may be too long (%d chars)", r.Length))
	}
	if r.Headings < MinHeadings {
		r.Issues = append(r.Issues, "draft may have too few headings")
	}
	if !r.HasAction {
		r.Issues = append(r.Issues, "draft has no concrete action item")
	}
	r.QuickPass = len(r.Issues) == 0
	return r
}
