package config

import (
	"regexp"
	"sort"
	"strings"
)

// Placeholder names understood by Render
const (
	VarIssueTitle     = "issue_title"
	VarIssueBody      = "issue_body"
	VarTemplateReport = "template_report"
	VarReadmeContent  = "readme_content"
	VarPinnedContent  = "pinned_content"
	VarLabels         = "labels"
	VarPRTitle        = "pr_title"
	VarPRBody         = "pr_body"
	VarFileChanges    = "file_changes"
	VarQualityReport  = "quality_report"
	VarAuthor         = "author"
	VarAnswer         = "answer"
)

var knownVars = map[string]bool{
	VarIssueTitle: true, VarIssueBody: true, VarTemplateReport: true,
	VarReadmeContent: true, VarPinnedContent: true, VarLabels: true,
	VarPRTitle: true, VarPRBody: true, VarFileChanges: true,
	VarQualityReport: true, VarAuthor: true, VarAnswer: true,
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// Render substitutes {name} placeholders with vars. Placeholders without a
// value are left untouched. Substitution is single-pass, so values that
// themselves contain {name} text are not expanded.
func Render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// UnknownPlaceholders lists placeholders in tmpl that Render never fills
func UnknownPlaceholders(tmpl string) []string {
	var unknown []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		name := m[1]
		if knownVars[name] || seen[name] {
			continue
		}
		seen[name] = true
		unknown = append(unknown, name)
	}
	return unknown
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
