// Package bot wires a repository source, the triage pipelines and an action
// executor together.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm/triagebot/internal/actions"
	"github.com/pthm/triagebot/internal/config"
	"github.com/pthm/triagebot/internal/diffsummary"
	"github.com/pthm/triagebot/internal/oracle"
	"github.com/pthm/triagebot/internal/pipeline"
)

// Source supplies repository context
type Source interface {
	Readme(ctx context.Context) (string, error)
	PinnedContent(ctx context.Context) (string, error)
	PullRequestFiles(ctx context.Context, number int) ([]diffsummary.FileChange, error)
}

// ExecutorFactory returns the executor for one artifact
type ExecutorFactory func(kind pipeline.Kind, number int) actions.Executor

// Options configures a Bot
type Options struct {
	Config    *config.Config
	Oracle    oracle.Oracle
	Source    Source          // nil means no repository context
	Executor  ExecutorFactory // nil means decisions are not executed
	DryRun    bool
	Depth     *diffsummary.Profile
	Observers []pipeline.Observer
	Logger    *slog.Logger
}

// Bot triages issues and pull requests
type Bot struct {
	cfg      *config.Config
	source   Source
	executor ExecutorFactory
	dryRun   bool
	issues   *pipeline.Pipeline
	pulls    *pipeline.Pipeline
	logger   *slog.Logger
}

// Report is the result of triaging one artifact
type Report struct {
	Repository string             `json:"repository,omitempty"`
	Request    pipeline.Request   `json:"request"`
	Skipped    bool               `json:"skipped,omitempty"`
	SkipReason string             `json:"skip_reason,omitempty"`
	DryRun     bool               `json:"dry_run,omitempty"`
	Decision   *pipeline.Decision `json:"decision,omitempty"`
	Outcome    *actions.Outcome   `json:"outcome,omitempty"`
	Duration   time.Duration      `json:"duration"`
}

// Err returns the joined action failures, if any
func (r *Report) Err() error {
	if r.Outcome == nil {
		return nil
	}
	return r.Outcome.Err()
}

// New builds both pipelines. Configuration problems surface here.
func New(opts Options) (*Bot, error) {
	if opts.Config == nil {
		return nil, &config.ConfigurationError{Field: "config", Message: "no configuration supplied"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var popts []pipeline.Option
	for _, o := range opts.Observers {
		popts = append(popts, pipeline.WithObserver(o))
	}
	if opts.Depth != nil {
		popts = append(popts, pipeline.WithDepth(*opts.Depth))
	}

	issues, err := pipeline.NewIssuePipeline(opts.Config, opts.Oracle, popts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build issue pipeline: %w", err)
	}
	pulls, err := pipeline.NewPullRequestPipeline(opts.Config, opts.Oracle, popts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build pull request pipeline: %w", err)
	}

	return &Bot{
		cfg:      opts.Config,
		source:   opts.Source,
		executor: opts.Executor,
		dryRun:   opts.DryRun,
		issues:   issues,
		pulls:    pulls,
		logger:   logger,
	}, nil
}

// Triage decides on req and executes the decision's actions. An error means
// no decision was reached; action failures are reported in the Report.
func (b *Bot) Triage(ctx context.Context, req pipeline.Request) (*Report, error) {
	start := time.Now()
	report := &Report{Request: req, DryRun: b.dryRun}

	if b.cfg.IsSkippedAuthor(req.Author) {
		report.Skipped = true
		report.SkipReason = fmt.Sprintf("author %s is in skip_authors", req.Author)
		b.logger.Info("skipping artifact", "kind", req.Kind, "number", req.Number, "author", req.Author)
		return report, nil
	}

	p, err := b.pipelineFor(req.Kind)
	if err != nil {
		return nil, err
	}

	rc, err := b.fetchContext(ctx, req)
	if err != nil {
		return nil, err
	}
	req.Context = rc

	decision, err := p.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to triage %s #%d: %w", req.Kind, req.Number, err)
	}
	report.Decision = decision

	b.logger.Info("triage decided",
		"run_id", decision.RunID,
		"kind", req.Kind,
		"number", req.Number,
		"final", decision.Final,
		"stage", decision.TriggeringStage,
		"label", decision.MatchedLabel,
	)

	if b.executor != nil && len(decision.Actions) > 0 {
		outcome := actions.Run(ctx, b.executor(req.Kind, req.Number), decision.Actions)
		report.Outcome = &outcome
		for _, r := range outcome.Failed() {
			b.logger.Warn("action failed", "run_id", decision.RunID, "action", r.Action.String(), "error", r.Error)
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (b *Bot) pipelineFor(kind pipeline.Kind) (*pipeline.Pipeline, error) {
	switch kind {
	case pipeline.KindIssue:
		return b.issues, nil
	case pipeline.KindPullRequest:
		return b.pulls, nil
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}
}

// fetchContext reads README, pinned content and PR files concurrently
func (b *Bot) fetchContext(ctx context.Context, req pipeline.Request) (pipeline.Context, error) {
	var rc pipeline.Context
	if b.source == nil {
		return rc, nil
	}

	g, gctx := errgroup.WithContext(ctx)

	switch req.Kind {
	case pipeline.KindIssue:
		g.Go(func() error {
			readme, err := b.source.Readme(gctx)
			if err != nil {
				return err
			}
			rc.Readme = readme
			return nil
		})
		g.Go(func() error {
			pinned, err := b.source.PinnedContent(gctx)
			if err != nil {
				return err
			}
			rc.PinnedContent = pinned
			return nil
		})
	case pipeline.KindPullRequest:
		g.Go(func() error {
			files, err := b.source.PullRequestFiles(gctx, req.Number)
			if err != nil {
				return err
			}
			rc.Files = files
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return pipeline.Context{}, fmt.Errorf("failed to fetch context for %s #%d: %w", req.Kind, req.Number, err)
	}
	return rc, nil
}
