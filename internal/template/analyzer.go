// Package template detects issue/PR templates in submitted text and extracts
// the content the author actually wrote into them.
package template

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Type is the kind of template a body appears to follow
type Type string

const (
	TypeBugReport      Type = "bug_report"
	TypeFeatureRequest Type = "feature_request"
	TypeGeneric        Type = "generic"
	TypeNone           Type = "none"
)

// DefaultThreshold is the confidence above which a body is treated as templated
const DefaultThreshold = 30.0

// Section is a titled block of a templated body
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Analysis is the result of template detection
type Analysis struct {
	HasTemplate bool      `json:"has_template"`
	Type        Type      `json:"template_type"`
	Confidence  float64   `json:"confidence"` // 0-100
	Indicators  []string  `json:"indicators"`
	Sections    []Section `json:"extracted_sections"`
}

// Report renders the analysis as a short plain-text block for prompts
func (a Analysis) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Template detected: %t\n", a.HasTemplate)
	fmt.Fprintf(&sb, "Template type: %s\n", a.Type)
	fmt.Fprintf(&sb, "Confidence: %.0f%%\n", a.Confidence)
	if len(a.Indicators) > 0 {
		sb.WriteString("Indicators: " + strings.Join(a.Indicators, ", ") + "\n")
	}
	return sb.String()
}

// Options tunes detection
type Options struct {
	// Threshold is the confidence (exclusive) above which HasTemplate is set
	Threshold float64

	// TitlePrefixWeight is added to the indicator count for a recognised title prefix
	TitlePrefixWeight int

	// MinKeywords is the number of distinct field keywords required before they count
	MinKeywords int
}

// DefaultOptions returns the stock detection settings
func DefaultOptions() Options {
	return Options{
		Threshold:         DefaultThreshold,
		TitlePrefixWeight: 2,
		MinKeywords:       2,
	}
}

// indicator is a line pattern that suggests template structure
type indicator struct {
	name    string
	pattern *regexp.Regexp
	// section marks patterns that open a new section
	section bool
}

var indicators = []indicator{
	{"markdown header", regexp.MustCompile(`^\s{0,3}#{1,6}\s+\S`), true},
	{"bold header", regexp.MustCompile(`^\s*\*\*[^*]+\*\*\s*:?\s*$`), true},
	{"html comment", regexp.MustCompile(`<!--`), false},
	{"checkbox", regexp.MustCompile(`^\s*[-*+]\s+\[[ xX]\]`), false},
	{"blockquote", regexp.MustCompile(`^\s*>`), false},
	{"table row", regexp.MustCompile(`^\s*\|.*\|\s*$`), false},
}

var titlePrefix = regexp.MustCompile(`(?i)^\s*\[(bug|bug report|feature|feature request|feat|enhancement|question|docs|doc|help|proposal|rfc)\]`)

// fieldKeywords are common template field names, English and Chinese
var fieldKeywords = []string{
	"description",
	"steps to reproduce",
	"reproduction",
	"expected behavior",
	"expected behaviour",
	"actual behavior",
	"actual behaviour",
	"environment",
	"version",
	"screenshots",
	"additional context",
	"logs",
	"operating system",
	"describe the bug",
	"is your feature request related to a problem",
	"describe the solution",
	"alternatives",
	"描述",
	"复现步骤",
	"重现步骤",
	"预期行为",
	"期望行为",
	"实际行为",
	"环境",
	"版本",
	"截图",
	"补充信息",
	"其他信息",
	"问题描述",
}

var bugKeywords = []string{"bug", "error", "crash", "exception", "broken", "fail", "panic", "报错", "错误", "崩溃", "异常"}

var featureKeywords = []string{"feature", "enhancement", "request", "proposal", "suggestion", "support for", "功能", "建议", "需求", "新增"}

// Analyzer detects templates and extracts user content
type Analyzer struct {
	opts Options
}

// NewAnalyzer creates an analyzer using opts as given; start from
// DefaultOptions for the stock settings.
func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// Detect scores how strongly body follows a structured template
func (a *Analyzer) Detect(title, body string) Analysis {
	if strings.TrimSpace(body) == "" {
		return Analysis{Type: TypeNone, Indicators: []string{}}
	}

	lines := strings.Split(normalizeNewlines(body), "\n")
	counts := make([]int, len(indicators))
	for _, line := range lines {
		for i, ind := range indicators {
			counts[i] += len(ind.pattern.FindAllStringIndex(line, -1))
		}
	}

	total := 0
	found := []string{}
	for i, ind := range indicators {
		if counts[i] == 0 {
			continue
		}
		total += counts[i]
		found = append(found, fmt.Sprintf("%s (%d)", ind.name, counts[i]))
	}

	if titlePrefix.MatchString(title) {
		total += a.opts.TitlePrefixWeight
		found = append(found, "title prefix")
	}

	keywords := matchedKeywords(strings.ToLower(body), fieldKeywords)
	if len(keywords) >= a.opts.MinKeywords {
		total += len(keywords)
		found = append(found, fmt.Sprintf("field keywords (%d)", len(keywords)))
	}

	denominator := math.Max(float64(len(lines))/5, 1)
	confidence := math.Min(100, float64(total)/denominator*100)

	analysis := Analysis{
		Confidence: confidence,
		Indicators: found,
		Type:       TypeNone,
	}
	if confidence > a.opts.Threshold {
		analysis.HasTemplate = true
		analysis.Type = inferType(title, body)
		analysis.Sections = splitSections(lines)
	}
	return analysis
}

// inferType guesses bug vs feature from keyword hits in title and body
func inferType(title, body string) Type {
	text := strings.ToLower(title + " " + body)
	bug := len(matchedKeywords(text, bugKeywords))
	feature := len(matchedKeywords(text, featureKeywords))

	switch {
	case bug > 0 && bug >= feature:
		return TypeBugReport
	case feature > 0:
		return TypeFeatureRequest
	default:
		return TypeGeneric
	}
}

func matchedKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// splitSections cuts lines into sections at header lines. Text before the
// first header becomes an untitled section.
func splitSections(lines []string) []Section {
	var sections []Section
	var current *Section
	var buf []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		if current != nil {
			current.Content = content
			sections = append(sections, *current)
		} else if content != "" {
			sections = append(sections, Section{Content: content})
		}
		buf = buf[:0]
	}

	for _, line := range lines {
		if isSectionHeader(line) {
			flush()
			current = &Section{Title: headerTitle(line)}
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

func isSectionHeader(line string) bool {
	for _, ind := range indicators {
		if ind.section && ind.pattern.MatchString(line) {
			return true
		}
	}
	return false
}

func headerTitle(line string) string {
	t := strings.TrimSpace(line)
	t = strings.TrimLeft(t, "#")
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, ":")
	t = strings.Trim(t, "*")
	t = strings.TrimSuffix(strings.TrimSpace(t), ":")
	return strings.TrimSpace(t)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
