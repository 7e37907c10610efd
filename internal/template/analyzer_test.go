package template

import (
	"strings"
	"testing"
)

const bugTemplate = `### Describe the bug
The app crashes when I click save.

### Steps to reproduce
1. Open app
2. Click save

### Expected behavior
_No response_`

const emptyTemplate = `### Describe the bug
_No response_

### Steps to reproduce
<!-- describe how to trigger the problem -->

### Environment
N/A`

func TestDetect(t *testing.T) {
	a := NewAnalyzer(DefaultOptions())

	tests := []struct {
		name        string
		title       string
		body        string
		hasTemplate bool
		wantType    Type
	}{
		{
			name:        "empty body",
			title:       "Something",
			body:        "",
			hasTemplate: false,
			wantType:    TypeNone,
		},
		{
			name:        "plain prose",
			title:       "Button colour",
			body:        "I think the button colour should be blue instead of red, it is hard to read.",
			hasTemplate: false,
			wantType:    TypeNone,
		},
		{
			name:        "github issue form bug report",
			title:       "[BUG] save crashes",
			body:        bugTemplate,
			hasTemplate: true,
			wantType:    TypeBugReport,
		},
		{
			name:  "feature request template",
			title: "[FEATURE] dark mode",
			body: `**Is your feature request related to a problem?**
I work at night.

**Describe the solution you'd like**
A dark mode toggle.

**Alternatives**
Browser extensions.`,
			hasTemplate: true,
			wantType:    TypeFeatureRequest,
		},
		{
			name:  "chinese template",
			title: "保存时报错",
			body: `### 问题描述
点击保存后程序崩溃

### 复现步骤
1. 打开程序
2. 点击保存

### 环境
macOS 14`,
			hasTemplate: true,
			wantType:    TypeBugReport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Detect(tt.title, tt.body)
			if got.HasTemplate != tt.hasTemplate {
				t.Errorf("Detect().HasTemplate = %v, want %v (confidence %.1f, indicators %v)",
					got.HasTemplate, tt.hasTemplate, got.Confidence, got.Indicators)
			}
			if got.Type != tt.wantType {
				t.Errorf("Detect().Type = %q, want %q", got.Type, tt.wantType)
			}
		})
	}
}

func TestDetectConfidenceBounds(t *testing.T) {
	a := NewAnalyzer(DefaultOptions())

	bodies := []string{
		"",
		"x",
		bugTemplate,
		emptyTemplate,
		strings.Repeat("# header\n", 200),
		strings.Repeat("plain line without structure\n", 200),
		"| a | b |\n|---|---|\n| 1 | 2 |",
		"> quoted\n> more\n- [ ] one\n- [x] two\n<!-- c --><!-- d -->",
	}

	for _, body := range bodies {
		got := a.Detect("[BUG] title", body)
		if got.Confidence < 0 || got.Confidence > 100 {
			t.Errorf("Detect(%q).Confidence = %v, want within [0,100]", truncate(body), got.Confidence)
		}
		if got.HasTemplate != (got.Confidence > DefaultThreshold) {
			t.Errorf("Detect(%q).HasTemplate = %v but confidence = %v", truncate(body), got.HasTemplate, got.Confidence)
		}
	}
}

func TestDetectThresholdIsConfigurable(t *testing.T) {
	body := "## Summary\nThe export button does nothing when the list is empty and nothing is logged.\nIt should at least show a message.\nMaybe a toast.\nOr disable it.\nThanks."

	lenientOpts, strictOpts := DefaultOptions(), DefaultOptions()
	lenientOpts.Threshold = 10
	strictOpts.Threshold = 90
	lenient := NewAnalyzer(lenientOpts).Detect("export", body)
	strict := NewAnalyzer(strictOpts).Detect("export", body)

	if lenient.Confidence != strict.Confidence {
		t.Fatalf("confidence should not depend on threshold: %v vs %v", lenient.Confidence, strict.Confidence)
	}
	if !lenient.HasTemplate {
		t.Errorf("lenient threshold: HasTemplate = false, want true (confidence %.1f)", lenient.Confidence)
	}
	if strict.HasTemplate {
		t.Errorf("strict threshold: HasTemplate = true, want false (confidence %.1f)", strict.Confidence)
	}
}

func TestDetectZeroThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.Threshold = 0
	a := NewAnalyzer(opts)

	got := a.Detect("export", "## Summary\nThe export button does nothing.")
	if got.Confidence <= 0 {
		t.Fatalf("expected some structure to be detected, confidence = %v", got.Confidence)
	}
	if !got.HasTemplate {
		t.Errorf("HasTemplate = false with threshold 0 (confidence %.1f)", got.Confidence)
	}

	if got := a.Detect("x", ""); got.HasTemplate {
		t.Errorf("empty body: HasTemplate = true (confidence %.1f)", got.Confidence)
	}
}

func TestNewAnalyzerKeepsZeroFields(t *testing.T) {
	for _, opts := range []Options{{}, {MinKeywords: 1}, {Threshold: 50}} {
		if got := NewAnalyzer(opts).opts; got != opts {
			t.Errorf("NewAnalyzer(%+v).opts = %+v", opts, got)
		}
	}
}

func TestDetectSections(t *testing.T) {
	a := NewAnalyzer(DefaultOptions())
	got := a.Detect("[BUG] save crashes", bugTemplate)

	wantTitles := []string{"Describe the bug", "Steps to reproduce", "Expected behavior"}
	if len(got.Sections) != len(wantTitles) {
		t.Fatalf("expected %d sections, got %d: %+v", len(wantTitles), len(got.Sections), got.Sections)
	}
	for i, want := range wantTitles {
		if got.Sections[i].Title != want {
			t.Errorf("section %d title = %q, want %q", i, got.Sections[i].Title, want)
		}
	}
}

func truncate(s string) string {
	if len(s) > 30 {
		return s[:30] + "..."
	}
	return s
}
