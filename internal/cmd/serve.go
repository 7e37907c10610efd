package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm/triagebot/internal/bot"
	"github.com/pthm/triagebot/internal/event"
	"github.com/pthm/triagebot/internal/pipeline"
	"github.com/pthm/triagebot/internal/server"
)

var (
	serveFlags         triageFlags
	serveAddr          string
	serveMaxConcurrent int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Listen for GitHub issues and pull_request webhooks and triage newly
opened artifacts in the background. Deliveries are verified with the
X-Hub-Signature-256 header when TRIAGEBOT_WEBHOOK_SECRET is set.

Endpoints:
  POST /webhook   GitHub webhook receiver (202 when a triage is queued)
  GET  /health    liveness

Examples:
  TRIAGEBOT_WEBHOOK_SECRET=... GITHUB_TOKEN=... triagebot serve --addr :8080
  triagebot serve --offline --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().IntVar(&serveMaxConcurrent, "max-concurrent", 0, "Maximum concurrent triages (default from config)")
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// a server logs its decisions
	setupLogging(cmd.ErrOrStderr(), slog.LevelInfo)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	o, err := newOracle(cfg, &serveFlags)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	maxConcurrent := cfg.Server.MaxConcurrent
	if serveMaxConcurrent > 0 {
		maxConcurrent = serveMaxConcurrent
	}
	if cfg.Server.Secret == "" {
		slog.Warn("TRIAGEBOT_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	logObserver := pipeline.LogObserver(slog.Default())
	triager := server.TriagerFunc(func(ctx context.Context, ev *event.Event) (*bot.Report, error) {
		repository, err := resolveRepository(serveFlags.repo, ev.Repository)
		if err != nil {
			return nil, err
		}
		client, err := newGitHubClient(cfg, repository)
		if err != nil {
			return nil, err
		}
		b, err := newBot(cfg, o, client, &serveFlags, dryRunLog{}, logObserver)
		if err != nil {
			return nil, err
		}
		report, err := b.Triage(ctx, ev.Request)
		if err != nil {
			return nil, err
		}
		report.Repository = repository
		return report, nil
	})

	srv := server.New(triager, server.Options{
		Addr:          addr,
		Secret:        cfg.Server.Secret,
		MaxConcurrent: maxConcurrent,
		Timeout:       serveFlags.timeout,
		Logger:        slog.Default(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// dryRunLog sends dry-run transcripts to the logger, one record per write
type dryRunLog struct{}

var _ io.Writer = dryRunLog{}

func (dryRunLog) Write(p []byte) (int, error) {
	slog.Info("dry run", "output", string(p))
	return len(p), nil
}
