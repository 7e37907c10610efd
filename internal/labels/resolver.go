// Package labels maps free-text model answers onto a configured label set.
package labels

import (
	"strings"
)

// aliasGroup maps synonyms in an answer to labels containing one of the stems
type aliasGroup struct {
	aliases []string
	stems   []string
}

// Groups are tried in this order.
var aliasGroups = []aliasGroup{
	{aliases: []string{"bug", "fix", "error"}, stems: []string{"bug"}},
	{aliases: []string{"enhancement", "feature", "improve"}, stems: []string{"enhancement", "feature"}},
	{aliases: []string{"doc", "readme"}, stems: []string{"doc"}},
	{aliases: []string{"question", "help"}, stems: []string{"question"}},
}

// DefaultNeedsDetailStems mark bug-like labels that get a quality gate
var DefaultNeedsDetailStems = []string{"bug", "error", "fix"}

// Resolve picks the label from set that best matches answer. The second
// return value is false when nothing matched. Rules, first match wins:
//
//  1. exact case-insensitive match
//  2. answer contains a label (longest label wins, then set order)
//  3. a label contains answer (set order)
//  4. alias groups
func Resolve(answer string, set []string) (string, bool) {
	a := strings.ToLower(strings.TrimSpace(answer))
	if a == "" || len(set) == 0 {
		return "", false
	}

	for _, label := range set {
		if strings.ToLower(label) == a {
			return label, true
		}
	}

	best := -1
	for i, label := range set {
		l := strings.ToLower(label)
		if l == "" || !strings.Contains(a, l) {
			continue
		}
		if best == -1 || len(label) > len(set[best]) {
			best = i
		}
	}
	if best >= 0 {
		return set[best], true
	}

	for _, label := range set {
		if strings.Contains(strings.ToLower(label), a) {
			return label, true
		}
	}

	for _, g := range aliasGroups {
		target, ok := firstContaining(set, g.stems)
		if !ok {
			continue
		}
		for _, alias := range g.aliases {
			if strings.Contains(a, alias) {
				return target, true
			}
		}
	}

	return "", false
}

// NeedsDetail reports whether label belongs to the group that must pass the
// quality gate.
func NeedsDetail(label string, stems []string) bool {
	if label == "" {
		return false
	}
	l := strings.ToLower(label)
	for _, stem := range stems {
		if stem != "" && strings.Contains(l, strings.ToLower(stem)) {
			return true
		}
	}
	return false
}

// Validate returns the labels that are blank or duplicated (case-insensitive)
func Validate(set []string) []string {
	var bad []string
	seen := make(map[string]bool, len(set))
	for _, label := range set {
		key := strings.ToLower(strings.TrimSpace(label))
		if key == "" || seen[key] {
			bad = append(bad, label)
			continue
		}
		seen[key] = true
	}
	return bad
}

func firstContaining(set []string, stems []string) (string, bool) {
	for _, label := range set {
		l := strings.ToLower(label)
		for _, stem := range stems {
			if strings.Contains(l, stem) {
				return label, true
			}
		}
	}
	return "", false
}
