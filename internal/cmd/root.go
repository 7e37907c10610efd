package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/triagebot/internal/config"
	"github.com/pthm/triagebot/internal/reporter"
	"github.com/pthm/triagebot/internal/ui"
)

// defaultConfigPath is read when --config is not given and the file exists
const defaultConfigPath = ".github/triagebot.yml"

var (
	// Global flags
	verbose    bool
	format     string
	configPath string
	logFormat  string

	globalUI *ui.UI
)

// RootCmd is the triagebot command tree
var RootCmd = &cobra.Command{
	Use:   "triagebot",
	Short: "Triage GitHub issues and pull requests",
	Long: `triagebot decides what to do with newly opened issues and pull requests.

Each artifact passes through an ordered list of checks (spam, README
coverage, classification, quality, conventional commit titles). The first
check that reaches a verdict decides the outcome: comment, close, lock, or
keep the artifact and label it.

It runs as a GitHub Action step (triagebot run), against a single issue or
pull request (triagebot issue 42), or as a webhook server (triagebot serve).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr(), slog.LevelWarn)
		globalUI = ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), format)
	},
	SilenceUsage: true,
}

func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	RootCmd.PersistentFlags().StringVarP(&format, "format", "f", "terminal", "Output format (terminal, json)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config overlay (default "+defaultConfigPath+" if present)")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

// GetUI returns the UI configured for this invocation
func GetUI() *ui.UI {
	if globalUI == nil {
		globalUI = ui.New(os.Stdout, os.Stderr, format)
	}
	return globalUI
}

// setupLogging installs the default slog logger. level is the floor when
// --verbose is not set.
func setupLogging(w io.Writer, level slog.Level) {
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if logFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		slog.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

func newReporter(w io.Writer) reporter.Reporter {
	if format == "json" {
		return reporter.NewJSONReporter(w)
	}
	return reporter.NewTerminalReporter(w, verbose)
}
