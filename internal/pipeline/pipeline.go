// Package pipeline implements the staged triage decision: an ordered list of
// heuristic and model-backed checks where the first terminal verdict wins.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pthm/triagebot/internal/actions"
	"github.com/pthm/triagebot/internal/config"
	"github.com/pthm/triagebot/internal/diffsummary"
	"github.com/pthm/triagebot/internal/oracle"
	"github.com/pthm/triagebot/internal/quality"
	"github.com/pthm/triagebot/internal/template"
)

// Kind distinguishes the two artifact types
type Kind string

const (
	KindIssue       Kind = "issue"
	KindPullRequest Kind = "pull_request"
)

// Context is external repository context gathered for a request
type Context struct {
	Readme        string                   `json:"-"`
	PinnedContent string                   `json:"-"`
	Files         []diffsummary.FileChange `json:"-"`
}

// Request is one artifact to triage
type Request struct {
	Kind    Kind    `json:"kind"`
	Number  int     `json:"number"`
	Title   string  `json:"title"`
	Body    string  `json:"-"`
	Author  string  `json:"author"`
	Context Context `json:"-"`
}

// Final is the terminal verdict of a run
type Final string

const (
	FinalSpam          Final = "SPAM"
	FinalReadmeCovered Final = "README_COVERED"
	FinalUnclear       Final = "UNCLEAR"
	FinalBasic         Final = "BASIC"
	FinalKeep          Final = "KEEP"
	FinalMalicious     Final = "MALICIOUS"
	FinalTrivial       Final = "TRIVIAL"
	FinalInvalidCommit Final = "INVALID_COMMIT"
)

// State is the per-run data shared by stages. Analyses are computed once
// before the first stage; MatchedLabel is set by classification stages.
type State struct {
	Request      Request
	Template     template.Analysis
	Extracted    template.Extracted
	Quality      quality.Analysis
	FileSummary  string
	MatchedLabel string
}

// StageOutcome is what a stage returns to the executor
type StageOutcome struct {
	Verdict  Verdict
	Token    string
	Fallback bool
	Skipped  bool

	// Final is set for terminal outcomes
	Final   Final
	Actions []actions.Action
}

func (o StageOutcome) terminal() bool {
	return o.Final != ""
}

// Stage is one named step
type Stage struct {
	Name string
	Run  func(ctx context.Context, st *State) (StageOutcome, error)
}

// StageResult is the trace entry for an executed stage
type StageResult struct {
	Stage    string        `json:"stage"`
	Verdict  Verdict       `json:"verdict"`
	Token    string        `json:"token,omitempty"`
	Fallback bool          `json:"fallback,omitempty"`
	Skipped  bool          `json:"skipped,omitempty"`
	Terminal bool          `json:"terminal,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Decision is the terminal result of a run
type Decision struct {
	RunID           string           `json:"run_id"`
	Kind            Kind             `json:"kind"`
	Number          int              `json:"number"`
	Final           Final            `json:"final"`
	TriggeringStage string           `json:"triggering_stage"`
	MatchedLabel    string           `json:"matched_label,omitempty"`
	Actions         []actions.Action `json:"actions"`
	Trace           []StageResult    `json:"trace"`

	Template template.Analysis `json:"template"`
	Quality  quality.Analysis  `json:"quality"`
}

// StageError wraps a failure that aborted a run
type StageError struct {
	RunID string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline runs a fixed list of stages
type Pipeline struct {
	kind      Kind
	stages    []Stage
	cfg       *config.Config
	oracle    oracle.Oracle
	analyzer  *template.Analyzer
	scorer    *quality.Scorer
	profile   diffsummary.Profile
	observers []Observer
}

// Option configures a pipeline
type Option func(*Pipeline)

// WithObserver adds a stage observer
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithDepth overrides the configured file-change depth profile
func WithDepth(profile diffsummary.Profile) Option {
	return func(p *Pipeline) {
		p.profile = profile
	}
}

func newPipeline(kind Kind, cfg *config.Config, o oracle.Oracle, prompts, responses []string, opts []Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, &config.ConfigurationError{Field: "config", Message: "no configuration supplied"}
	}
	if o == nil {
		return nil, fmt.Errorf("no oracle supplied")
	}
	if len(cfg.Labels) == 0 {
		return nil, &config.ConfigurationError{Field: "labels", Message: "label set is empty"}
	}
	if err := config.CheckTemplates("prompts", cfg.Prompts, prompts); err != nil {
		return nil, err
	}
	if err := config.CheckTemplates("responses", cfg.Responses, responses); err != nil {
		return nil, err
	}

	profile, err := cfg.DepthProfile()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		kind:     kind,
		cfg:      cfg,
		oracle:   o,
		analyzer: template.NewAnalyzer(cfg.TemplateOptions()),
		scorer:   quality.NewScorer(cfg.Quality),
		profile:  profile,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Kind returns the artifact kind this pipeline accepts
func (p *Pipeline) Kind() Kind {
	return p.kind
}

// Stages returns the stage names in execution order
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes stages in order until one is terminal. When none is, the
// decision is KEEP, triggered by the last stage that was not skipped.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Decision, error) {
	if req.Kind != p.kind {
		return nil, fmt.Errorf("%s pipeline cannot triage a %s", p.kind, req.Kind)
	}

	runID := uuid.NewString()
	st := p.prepare(req)

	d := &Decision{
		RunID:    runID,
		Kind:     req.Kind,
		Number:   req.Number,
		Template: st.Template,
		Quality:  st.Quality,
	}

	lastExecuted := ""
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, &StageError{RunID: runID, Stage: stage.Name, Err: err}
		}
		p.notifyStarted(runID, stage.Name, i, len(p.stages))

		start := time.Now()
		out, err := stage.Run(ctx, st)
		if err != nil {
			serr := &StageError{RunID: runID, Stage: stage.Name, Err: err}
			p.notifyFailed(runID, stage.Name, serr)
			return nil, serr
		}

		res := StageResult{
			Stage:    stage.Name,
			Verdict:  out.Verdict,
			Token:    out.Token,
			Fallback: out.Fallback,
			Skipped:  out.Skipped,
			Terminal: out.terminal(),
			Duration: time.Since(start),
		}
		d.Trace = append(d.Trace, res)
		p.notifyFinished(runID, res)

		if !out.Skipped {
			lastExecuted = stage.Name
		}

		if out.terminal() {
			d.Final = out.Final
			d.TriggeringStage = stage.Name
			d.MatchedLabel = st.MatchedLabel
			d.Actions = out.Actions
			return d, nil
		}
	}

	d.Final = FinalKeep
	d.TriggeringStage = lastExecuted
	d.MatchedLabel = st.MatchedLabel
	if st.MatchedLabel != "" {
		d.Actions = []actions.Action{actions.AddLabel(st.MatchedLabel)}
	}
	return d, nil
}

func (p *Pipeline) prepare(req Request) *State {
	analysis := p.analyzer.Detect(req.Title, req.Body)
	extracted := p.analyzer.Extract(req.Body, analysis)

	st := &State{
		Request:   req,
		Template:  analysis,
		Extracted: extracted,
		Quality:   p.scorer.Score(req.Title, req.Body, analysis, extracted),
	}
	if req.Kind == KindPullRequest {
		st.FileSummary = diffsummary.Summarize(req.Context.Files, p.profile)
	}
	return st
}

// ask renders a prompt and consults the oracle. A failed call is returned
// as the *oracle.Failure.
func (p *Pipeline) ask(ctx context.Context, purpose, promptKey string, vars map[string]string) (string, error) {
	prompt := config.Render(p.cfg.Prompts[promptKey], vars)
	res := p.oracle.Classify(ctx, prompt, purpose)
	if !res.OK() {
		return "", res.Err()
	}
	return res.Token, nil
}

func (p *Pipeline) respond(key string, vars map[string]string) string {
	return strings.TrimSpace(config.Render(p.cfg.Responses[key], vars))
}

func (p *Pipeline) labelList() string {
	return strings.Join(p.cfg.Labels, ", ")
}
