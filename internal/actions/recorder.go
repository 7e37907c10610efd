package actions

import (
	"context"
	"sync"
)

// Recorder records calls and returns configured errors. It backs --dry-run
// JSON output and tests.
type Recorder struct {
	mu      sync.Mutex
	calls   []Action
	Failing map[Type]error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{Failing: make(map[Type]error)}
}

func (r *Recorder) record(a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, a)
	return r.Failing[a.Type]
}

// Comment records a comment
func (r *Recorder) Comment(_ context.Context, text string) error {
	return r.record(Comment(text))
}

// Close records a close
func (r *Recorder) Close(_ context.Context, reason string) error {
	return r.record(Close(reason))
}

// Lock records a lock
func (r *Recorder) Lock(_ context.Context, reason string) error {
	return r.record(Lock(reason))
}

// AddLabel records a label
func (r *Recorder) AddLabel(_ context.Context, label string) error {
	return r.record(AddLabel(label))
}

// Calls returns the recorded actions in call order
func (r *Recorder) Calls() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Action(nil), r.calls...)
}
