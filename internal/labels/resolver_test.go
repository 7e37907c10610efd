package labels

import (
	"testing"
)

func TestResolve(t *testing.T) {
	defaults := []string{"bug", "enhancement", "documentation", "question"}

	tests := []struct {
		name   string
		answer string
		set    []string
		want   string
		wantOK bool
	}{
		{"exact upper case", "BUG", []string{"bug", "enhancement"}, "bug", true},
		{"exact with whitespace", "  enhancement\n", defaults, "enhancement", true},
		{"answer contains label", "bugfix please", []string{"bug"}, "bug", true},
		{"longest contained label wins", "this is a bug report", []string{"bug", "bug report"}, "bug report", true},
		{"label contains answer", "doc", defaults, "documentation", true},
		{"label contains answer keeps set order", "ion", []string{"question", "documentation"}, "question", true},
		{"alias bug group", "looks like an error in parsing", []string{"type: bug", "feature"}, "type: bug", true},
		{"alias enhancement group", "improvement", []string{"bug", "feature-request"}, "feature-request", true},
		{"alias doc group", "readme update", []string{"bug", "docs"}, "docs", true},
		{"alias question group", "needs help", []string{"bug", "question"}, "question", true},
		{"alias skipped without target label", "needs help", []string{"bug", "enhancement"}, "", false},
		{"no match", "xyz", []string{"bug"}, "", false},
		{"empty answer", "", defaults, "", false},
		{"empty set", "bug", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.answer, tt.set)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%q, %v) = (%q, %v), want (%q, %v)", tt.answer, tt.set, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	set := []string{"bug", "bug report", "enhancement", "docs"}
	first, _ := Resolve("bug report for docs", set)
	for i := 0; i < 50; i++ {
		if got, _ := Resolve("bug report for docs", set); got != first {
			t.Fatalf("Resolve() returned %q on iteration %d, previously %q", got, i, first)
		}
	}
}

func TestNeedsDetail(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"bug", true},
		{"Type: Bug", true},
		{"error-report", true},
		{"hotfix", true},
		{"enhancement", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := NeedsDetail(tt.label, DefaultNeedsDetailStems); got != tt.want {
				t.Errorf("NeedsDetail(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	bad := Validate([]string{"bug", "Bug", " ", "docs"})
	if len(bad) != 2 {
		t.Fatalf("Validate() = %v, want 2 bad labels", bad)
	}
}
