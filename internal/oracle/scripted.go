package oracle

import (
	"context"
	"sync"
)

// Call records one Classify invocation
type Call struct {
	Purpose string
	Prompt  string
}

// Scripted returns fixed results per purpose and records every call. It is
// used for dry runs against canned answers and in tests.
type Scripted struct {
	mu        sync.Mutex
	responses map[string]Result
	calls     []Call
}

// NewScripted creates a scripted oracle answering each purpose with a token
func NewScripted(tokens map[string]string) *Scripted {
	s := &Scripted{responses: make(map[string]Result, len(tokens))}
	for purpose, token := range tokens {
		s.responses[purpose] = Success(token)
	}
	return s
}

// Set overrides the result for a purpose
func (s *Scripted) Set(purpose string, r Result) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[purpose] = r
	return s
}

// Classify returns the scripted result. Unscripted purposes fail as unavailable.
func (s *Scripted) Classify(_ context.Context, prompt, purpose string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Purpose: purpose, Prompt: prompt})
	if r, ok := s.responses[purpose]; ok {
		return r
	}
	return Fail(FailureUnavailable, purpose, nil)
}

// Calls returns a copy of the recorded calls
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how often purpose was asked
func (s *Scripted) CallCount(purpose string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Purpose == purpose {
			n++
		}
	}
	return n
}
