// Package oracle is the text-classification capability consulted by the
// model-backed pipeline stages.
package oracle

import (
	"context"
	"fmt"
)

// Purposes identify why the oracle is being asked. Backends may use them to
// size the response; pipelines use them in logs and traces.
const (
	PurposeSpamCheck      = "spam_check"
	PurposeReadmeCoverage = "readme_coverage"
	PurposeReadmeAnswer   = "readme_answer"
	PurposeClassify       = "classify"
	PurposeQuality        = "quality"
	PurposeUnclearAnswer  = "unclear_answer"
	PurposePRSpamCheck    = "pr_spam_check"
	PurposePRQuality      = "pr_quality"
	PurposePRClassify     = "pr_classify"
)

// IsAnswer reports whether purpose expects free text rather than a verdict token
func IsAnswer(purpose string) bool {
	return purpose == PurposeReadmeAnswer || purpose == PurposeUnclearAnswer
}

// Oracle classifies a prompt and returns a verdict token or free-text answer
type Oracle interface {
	Classify(ctx context.Context, prompt, purpose string) Result
}

// FailureKind categorises oracle failures
type FailureKind int

const (
	// FailureTransport is a network/API error talking to the backend
	FailureTransport FailureKind = iota
	// FailureMalformed is a response that could not be read (empty, no text)
	FailureMalformed
	// FailureUnavailable means the backend is not configured or installed
	FailureUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureMalformed:
		return "malformed"
	case FailureUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Failure is the error carried by an unsuccessful Result
type Failure struct {
	Kind    FailureKind
	Purpose string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("oracle %s failure (%s)", f.Kind, f.Purpose)
	}
	return fmt.Sprintf("oracle %s failure (%s): %v", f.Kind, f.Purpose, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result is either a token or a failure, never both
type Result struct {
	Token   string
	Failure *Failure
}

// Success wraps a token
func Success(token string) Result {
	return Result{Token: token}
}

// Fail wraps a failure
func Fail(kind FailureKind, purpose string, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Purpose: purpose, Err: err}}
}

// OK reports whether the call succeeded
func (r Result) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Func adapts a function to the Oracle interface
type Func func(ctx context.Context, prompt, purpose string) Result

// Classify calls f
func (f Func) Classify(ctx context.Context, prompt, purpose string) Result {
	return f(ctx, prompt, purpose)
}
