package event

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pthm/triagebot/internal/pipeline"
)

const issuePayload = `{
  "action": "opened",
  "issue": {
    "number": 101,
    "title": "[BUG] crash on save",
    "body": "### Describe the bug\nIt crashes.",
    "user": {"login": "octocat"}
  },
  "repository": {"full_name": "acme/widgets"},
  "sender": {"login": "octocat"}
}`

const prPayload = `{
  "action": "opened",
  "number": 7,
  "pull_request": {
    "number": 7,
    "title": "fix: correct null check",
    "body": null,
    "user": {"login": "contributor"}
  },
  "repository": {"full_name": "acme/widgets"}
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		payload   string
		wantName  string
		want      pipeline.Request
	}{
		{
			name:      "issue",
			eventName: NameIssues,
			payload:   issuePayload,
			wantName:  NameIssues,
			want: pipeline.Request{
				Kind: pipeline.KindIssue, Number: 101, Title: "[BUG] crash on save",
				Body: "### Describe the bug\nIt crashes.", Author: "octocat",
			},
		},
		{
			name:      "pull request with null body",
			eventName: NamePullRequest,
			payload:   prPayload,
			wantName:  NamePullRequest,
			want: pipeline.Request{
				Kind: pipeline.KindPullRequest, Number: 7, Title: "fix: correct null check", Author: "contributor",
			},
		},
		{
			name:      "name inferred",
			eventName: "",
			payload:   prPayload,
			wantName:  NamePullRequest,
			want: pipeline.Request{
				Kind: pipeline.KindPullRequest, Number: 7, Title: "fix: correct null check", Author: "contributor",
			},
		},
		{
			name:      "pull_request_target",
			eventName: "pull_request_target",
			payload:   prPayload,
			wantName:  NamePullRequest,
			want: pipeline.Request{
				Kind: pipeline.KindPullRequest, Number: 7, Title: "fix: correct null check", Author: "contributor",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Parse(tt.eventName, []byte(tt.payload))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if e.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", e.Name, tt.wantName)
			}
			if !reflect.DeepEqual(e.Request, tt.want) {
				t.Errorf("Request = %+v, want %+v", e.Request, tt.want)
			}
			if e.Repository != "acme/widgets" {
				t.Errorf("Repository = %q", e.Repository)
			}
			if !e.Triageable() {
				t.Error("opened event should be triageable")
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		payload   string
	}{
		{"invalid json", NameIssues, `{"action":`},
		{"unsupported event", "push", `{"ref":"main"}`},
		{"missing object", NameIssues, `{"action":"opened"}`},
		{"missing number", NameIssues, `{"issue":{"title":"x"}}`},
		{"issue is a pr", NameIssues, `{"issue":{"number":1,"pull_request":{}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.eventName, []byte(tt.payload)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNotTriageable(t *testing.T) {
	e, err := Parse(NameIssues, []byte(`{"action":"edited","issue":{"number":3}}`))
	if err != nil {
		t.Fatal(err)
	}
	if e.Triageable() {
		t.Error("edited event should not be triageable")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(issuePayload), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := ParseFile("", path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if e.Request.Number != 101 {
		t.Errorf("Number = %d, want 101", e.Request.Number)
	}

	if _, err := ParseFile("", filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
