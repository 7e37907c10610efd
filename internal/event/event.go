// Package event decodes GitHub webhook and Actions event payloads into
// triage requests.
package event

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/pthm/triagebot/internal/pipeline"
)

// Event names
const (
	NameIssues      = "issues"
	NamePullRequest = "pull_request"
)

// Event is a decoded issue or pull request event
type Event struct {
	Name       string
	Action     string
	Repository string
	Sender     string
	Request    pipeline.Request
}

// Triageable reports whether the event is a newly opened artifact
func (e *Event) Triageable() bool {
	return e.Action == "opened"
}

// Parse decodes payload. An empty name is inferred from the payload shape.
func Parse(name string, payload []byte) (*Event, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("event payload is not valid JSON")
	}
	root := gjson.ParseBytes(payload)

	if name == "" {
		switch {
		case root.Get("pull_request").Exists():
			name = NamePullRequest
		case root.Get("issue").Exists():
			name = NameIssues
		}
	}

	e := &Event{
		Name:       name,
		Action:     root.Get("action").String(),
		Repository: root.Get("repository.full_name").String(),
		Sender:     root.Get("sender.login").String(),
	}

	var obj gjson.Result
	switch name {
	case NameIssues:
		obj = root.Get("issue")
		e.Request.Kind = pipeline.KindIssue
		if obj.Get("pull_request").Exists() {
			return nil, fmt.Errorf("issues event refers to a pull request")
		}
	case NamePullRequest, "pull_request_target":
		obj = root.Get("pull_request")
		e.Request.Kind = pipeline.KindPullRequest
		e.Name = NamePullRequest
	default:
		return nil, fmt.Errorf("unsupported event %q", name)
	}

	if !obj.Exists() {
		return nil, fmt.Errorf("%s event has no %s object", name, e.Request.Kind)
	}

	e.Request.Number = int(obj.Get("number").Int())
	e.Request.Title = obj.Get("title").String()
	e.Request.Body = obj.Get("body").String()
	e.Request.Author = obj.Get("user.login").String()

	if e.Request.Number <= 0 {
		return nil, fmt.Errorf("%s event has no number", name)
	}
	return e, nil
}

// ParseFile reads an event payload from disk, as GitHub Actions provides
// via GITHUB_EVENT_PATH.
func ParseFile(name, path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return Parse(name, data)
}
