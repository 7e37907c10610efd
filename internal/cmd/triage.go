package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm/triagebot/internal/actions"
	"github.com/pthm/triagebot/internal/bot"
	"github.com/pthm/triagebot/internal/config"
	"github.com/pthm/triagebot/internal/diffsummary"
	"github.com/pthm/triagebot/internal/github"
	"github.com/pthm/triagebot/internal/oracle"
	"github.com/pthm/triagebot/internal/pipeline"
	"github.com/pthm/triagebot/internal/ui"
)

// Oracle backends
const (
	backendAnthropic  = "anthropic"
	backendClaudeCode = "claude-code"
	backendHeuristic  = "heuristic"
)

// triageFlags are shared by every command that triages
type triageFlags struct {
	dryRun  bool
	offline bool
	backend string
	depth   string
	repo    string
	timeout time.Duration
}

func (f *triageFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the actions instead of performing them")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Use the heuristic oracle instead of a model")
	cmd.Flags().StringVar(&f.backend, "backend", "", "Oracle backend (anthropic, claude-code, heuristic); defaults to the configured backend")
	cmd.Flags().StringVar(&f.depth, "depth", "", "File-change depth preset for pull requests (light, normal, deep)")
	cmd.Flags().StringVar(&f.repo, "repo", "", "Repository as owner/name (default $GITHUB_REPOSITORY)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Minute, "Give up on a triage after this long")
}

// newOracle builds the configured backend. --offline wins over --backend.
func newOracle(cfg *config.Config, f *triageFlags) (oracle.Oracle, error) {
	backend := cfg.Backend
	if f.backend != "" {
		backend = f.backend
	}
	if f.offline {
		backend = backendHeuristic
	}

	switch backend {
	case backendAnthropic:
		o, err := oracle.NewAnthropic(oracle.AnthropicConfig{Model: cfg.Model})
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic oracle: %w", err)
		}
		return o, nil
	case backendClaudeCode:
		return oracle.NewClaudeCode(cfg.Model, ""), nil
	case backendHeuristic:
		return oracle.NewHeuristic(), nil
	default:
		return nil, &config.ConfigurationError{Field: "backend", Message: fmt.Sprintf("unknown backend %q", backend)}
	}
}

// resolveRepository picks the first non-empty of the candidates and
// $GITHUB_REPOSITORY.
func resolveRepository(candidates ...string) (string, error) {
	for _, c := range append(candidates, os.Getenv("GITHUB_REPOSITORY")) {
		if c != "" {
			if _, _, err := github.ParseRepository(c); err != nil {
				return "", err
			}
			return c, nil
		}
	}
	return "", fmt.Errorf("no repository given: pass --repo owner/name or set GITHUB_REPOSITORY")
}

func newGitHubClient(cfg *config.Config, repository string) (*github.Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		slog.Warn("GITHUB_TOKEN not set, using unauthenticated requests")
	}
	return github.NewClient(repository, github.Options{
		Token:          token,
		PinnedLabel:    cfg.PinnedLabel,
		ReadmeMaxChars: cfg.ReadmeMaxChars,
		BaseURL:        os.Getenv("GITHUB_API_URL"),
	})
}

// newBot wires client, oracle and executor. dryRunOut receives the dry-run
// transcript.
func newBot(cfg *config.Config, o oracle.Oracle, client *github.Client, f *triageFlags, dryRunOut io.Writer, observers ...pipeline.Observer) (*bot.Bot, error) {
	opts := bot.Options{
		Config:    cfg,
		Oracle:    o,
		Source:    client,
		DryRun:    f.dryRun,
		Observers: observers,
		Logger:    slog.Default(),
	}

	if f.depth != "" {
		p, err := diffsummary.Preset(cfg.DepthPresets, f.depth)
		if err != nil {
			return nil, &config.ConfigurationError{Field: "depth", Message: err.Error()}
		}
		opts.Depth = &p
	}

	if f.dryRun {
		opts.Executor = func(kind pipeline.Kind, number int) actions.Executor {
			return actions.NewDryRun(dryRunOut, fmt.Sprintf("%s#%d", client.Repository(), number))
		}
	} else {
		opts.Executor = func(kind pipeline.Kind, number int) actions.Executor {
			return client.Executor(kind, number)
		}
	}

	return bot.New(opts)
}

// fetchFunc loads the request to triage
type fetchFunc func(ctx context.Context, client *github.Client) (pipeline.Request, error)

// triageRequest is the body shared by run, issue and pr: load config, build
// the oracle and bot, fetch the request, triage it and report.
func triageRequest(ctx context.Context, f *triageFlags, repository string, fetch fetchFunc) error {
	u := GetUI()

	progress := u.StartProgress()
	defer func() {
		if progress != nil {
			progress.Done(nil)
		}
	}()
	progress.SetPhase(ui.PhaseLoad)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	o, err := newOracle(cfg, f)
	if err != nil {
		return err
	}
	client, err := newGitHubClient(cfg, repository)
	if err != nil {
		return err
	}

	// dry-run output is held back until progress has cleared the terminal
	var transcript bytes.Buffer
	observers := []pipeline.Observer{pipeline.LogObserver(slog.Default())}
	if obs := progress.Observer(); obs != nil {
		observers = append(observers, obs)
	}
	b, err := newBot(cfg, o, client, f, &transcript, observers...)
	if err != nil {
		return err
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	progress.SetPhase(ui.PhaseFetch)
	progress.SetOperation(repository)
	req, err := fetch(ctx, client)
	if err != nil {
		return err
	}

	report, err := b.Triage(ctx, req)
	if err != nil {
		return err
	}
	report.Repository = repository

	if progress != nil {
		progress.Done(nil)
		progress = nil
	}

	out := u.Writer
	if u.IsJSON() {
		// keep stdout parseable
		out = u.ErrWriter
	}
	if _, err := transcript.WriteTo(out); err != nil {
		return err
	}

	return newReporter(u.Writer).Report([]*bot.Report{report})
}
