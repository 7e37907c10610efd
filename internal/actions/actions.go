// Package actions describes the side effects a triage decision requests and
// runs them against a repository host.
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Type identifies an action
type Type string

const (
	TypeComment  Type = "comment"
	TypeClose    Type = "close"
	TypeLock     Type = "lock"
	TypeAddLabel Type = "add_label"
)

// Close reasons
const (
	CloseCompleted  = "completed"
	CloseNotPlanned = "not_planned"
)

// Lock reasons
const (
	LockSpam      = "spam"
	LockOffTopic  = "off-topic"
	LockResolved  = "resolved"
	LockTooHeated = "too heated"
)

// Action is one requested side effect
type Action struct {
	Type   Type   `json:"type"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason,omitempty"`
	Label  string `json:"label,omitempty"`
}

func (a Action) String() string {
	switch a.Type {
	case TypeComment:
		return "comment"
	case TypeClose, TypeLock:
		return fmt.Sprintf("%s (%s)", a.Type, a.Reason)
	case TypeAddLabel:
		return fmt.Sprintf("add_label %q", a.Label)
	default:
		return string(a.Type)
	}
}

// Comment posts text
func Comment(text string) Action {
	return Action{Type: TypeComment, Text: text}
}

// Close closes the artifact with a state reason
func Close(reason string) Action {
	return Action{Type: TypeClose, Reason: reason}
}

// Lock locks the conversation
func Lock(reason string) Action {
	return Action{Type: TypeLock, Reason: reason}
}

// AddLabel applies a label
func AddLabel(label string) Action {
	return Action{Type: TypeAddLabel, Label: label}
}

// Executor performs actions against one issue or pull request
type Executor interface {
	Comment(ctx context.Context, text string) error
	Close(ctx context.Context, reason string) error
	Lock(ctx context.Context, reason string) error
	AddLabel(ctx context.Context, label string) error
}

// PlatformActionError is a single failed side-effecting call
type PlatformActionError struct {
	Action Action
	Err    error
}

func (e *PlatformActionError) Error() string {
	return fmt.Sprintf("action %s failed: %v", e.Action, e.Err)
}

func (e *PlatformActionError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one action
type Result struct {
	Action   Action        `json:"action"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`

	err error
}

// OK reports whether the call succeeded
func (r Result) OK() bool {
	return r.err == nil
}

// Err returns the *PlatformActionError, or nil
func (r Result) Err() error {
	return r.err
}

// Outcome is the per-call record of a plan
type Outcome struct {
	Results []Result `json:"results"`
}

// Failed returns the results whose call failed
func (o Outcome) Failed() []Result {
	var failed []Result
	for _, r := range o.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err joins every failure, or returns nil if all calls succeeded
func (o Outcome) Err() error {
	var errs []error
	for _, r := range o.Failed() {
		errs = append(errs, r.err)
	}
	return errors.Join(errs...)
}

// Run performs the plan in order. Each call's outcome is captured on its own:
// a failed call does not prevent later ones from being attempted.
func Run(ctx context.Context, exec Executor, plan []Action) Outcome {
	outcome := Outcome{Results: make([]Result, 0, len(plan))}

	for _, a := range plan {
		start := time.Now()
		err := perform(ctx, exec, a)
		r := Result{Action: a, Duration: time.Since(start)}
		if err != nil {
			r.err = &PlatformActionError{Action: a, Err: err}
			r.Error = err.Error()
		}
		outcome.Results = append(outcome.Results, r)
	}

	return outcome
}

func perform(ctx context.Context, exec Executor, a Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch a.Type {
	case TypeComment:
		return exec.Comment(ctx, a.Text)
	case TypeClose:
		return exec.Close(ctx, a.Reason)
	case TypeLock:
		return exec.Lock(ctx, a.Reason)
	case TypeAddLabel:
		return exec.AddLabel(ctx, a.Label)
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}
