package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v66/github"

	"github.com/pthm/triagebot/internal/pipeline"
)

// Executor applies actions to one issue or pull request
type Executor struct {
	c      *Client
	kind   pipeline.Kind
	number int
}

// Executor returns an actions.Executor bound to number
func (c *Client) Executor(kind pipeline.Kind, number int) *Executor {
	return &Executor{c: c, kind: kind, number: number}
}

// Comment posts a comment
func (e *Executor) Comment(ctx context.Context, text string) error {
	_, _, err := e.c.gh.Issues.CreateComment(ctx, e.c.owner, e.c.repo, e.number, &gh.IssueComment{
		Body: gh.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to comment on #%d: %w", e.number, err)
	}
	return nil
}

// Close closes the issue with a state reason. Pull requests have no state
// reason and are closed plainly.
func (e *Executor) Close(ctx context.Context, reason string) error {
	req := &gh.IssueRequest{State: gh.String("closed")}
	if e.kind == pipeline.KindIssue && reason != "" {
		req.StateReason = gh.String(reason)
	}

	if _, _, err := e.c.gh.Issues.Edit(ctx, e.c.owner, e.c.repo, e.number, req); err != nil {
		return fmt.Errorf("failed to close #%d: %w", e.number, err)
	}
	return nil
}

// Lock locks the conversation
func (e *Executor) Lock(ctx context.Context, reason string) error {
	var opts *gh.LockIssueOptions
	if reason != "" {
		opts = &gh.LockIssueOptions{LockReason: reason}
	}
	if _, err := e.c.gh.Issues.Lock(ctx, e.c.owner, e.c.repo, e.number, opts); err != nil {
		return fmt.Errorf("failed to lock #%d: %w", e.number, err)
	}
	return nil
}

// AddLabel applies a label
func (e *Executor) AddLabel(ctx context.Context, label string) error {
	if _, _, err := e.c.gh.Issues.AddLabelsToIssue(ctx, e.c.owner, e.c.repo, e.number, []string{label}); err != nil {
		return fmt.Errorf("failed to label #%d: %w", e.number, err)
	}
	return nil
}
