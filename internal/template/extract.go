package template

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// Extracted is the user-authored part of a body
type Extracted struct {
	UserContent   string    `json:"user_content"`
	IsEmpty       bool      `json:"is_empty"`
	TotalSections int       `json:"total_sections"`
	ValidSections int       `json:"valid_sections"`
	Sections      []Section `json:"sections,omitempty"`
}

// Insufficient reports whether a detected template was left unfilled
func (e Extracted) Insufficient(a Analysis) bool {
	return a.HasTemplate && e.IsEmpty
}

// minMeaningfulChars is the fewest letters/digits a section needs to count as filled
const minMeaningfulChars = 3

var placeholders = []string{
	"n/a",
	"na",
	"none",
	"no",
	"nil",
	"null",
	"tbd",
	"todo",
	"no response",
	"_no response_",
	"not applicable",
	"nothing",
	"无",
	"暂无",
	"没有",
}

var (
	htmlCommentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	uncheckedRe    = regexp.MustCompile(`(?m)^\s*[-*+]\s+\[ \].*$`)
	checkedRe      = regexp.MustCompile(`(?m)^\s*[-*+]\s+\[[xX]\]`)
	quoteMarkerRe  = regexp.MustCompile(`(?m)^\s*>\s?`)
	tableSepRe     = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{2,}:?\s*(\|\s*:?-{2,}:?\s*)*\|?\s*$`)
	emphasisRe     = regexp.MustCompile("[*_`~|#]")
)

// Extract pulls the filled-in sections out of a templated body. Bodies
// without a detected template are returned as-is.
func (a *Analyzer) Extract(body string, analysis Analysis) Extracted {
	if !analysis.HasTemplate {
		return Extracted{
			UserContent: body,
			IsEmpty:     strings.TrimSpace(body) == "",
		}
	}

	var kept []Section
	for _, s := range analysis.Sections {
		content := strings.TrimSpace(htmlCommentRe.ReplaceAllString(s.Content, ""))
		if IsEmptyContent(content) {
			continue
		}
		kept = append(kept, Section{Title: s.Title, Content: content})
	}

	parts := make([]string, 0, len(kept))
	for _, s := range kept {
		if s.Title == "" {
			parts = append(parts, s.Content)
			continue
		}
		parts = append(parts, s.Title+": "+s.Content)
	}

	return Extracted{
		UserContent:   strings.Join(parts, "\n\n"),
		IsEmpty:       len(kept) == 0,
		TotalSections: len(analysis.Sections),
		ValidSections: len(kept),
		Sections:      kept,
	}
}

// IsEmptyContent reports whether section content is a placeholder, markup
// only, or too short to carry meaning.
func IsEmptyContent(content string) bool {
	t := strings.TrimSpace(content)
	if t == "" {
		return true
	}
	if isPlaceholder(t) {
		return true
	}

	stripped := htmlCommentRe.ReplaceAllString(t, "")
	// unchecked items are options the template offered, not answers
	stripped = uncheckedRe.ReplaceAllString(stripped, "")
	stripped = checkedRe.ReplaceAllString(stripped, "")
	stripped = quoteMarkerRe.ReplaceAllString(stripped, "")
	stripped = tableSepRe.ReplaceAllString(stripped, "")
	stripped = emphasisRe.ReplaceAllString(stripped, "")
	stripped = strings.TrimSpace(stripped)

	if isPlaceholder(stripped) {
		return true
	}

	meaningful := 0
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			meaningful++
		}
	}
	return meaningful < minMeaningfulChars
}

func isPlaceholder(s string) bool {
	s = strings.TrimRight(strings.ToLower(strings.TrimSpace(s)), ".。")
	return slices.Contains(placeholders, s)
}
