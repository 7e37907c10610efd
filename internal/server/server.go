// Package server receives GitHub webhooks and triages newly opened issues
// and pull requests in the background.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/sync/semaphore"

	"github.com/pthm/triagebot/internal/bot"
	"github.com/pthm/triagebot/internal/event"
	"github.com/pthm/triagebot/internal/version"
)

// Triager handles one decoded event
type Triager interface {
	Triage(ctx context.Context, ev *event.Event) (*bot.Report, error)
}

// TriagerFunc adapts a function to Triager
type TriagerFunc func(ctx context.Context, ev *event.Event) (*bot.Report, error)

func (f TriagerFunc) Triage(ctx context.Context, ev *event.Event) (*bot.Report, error) {
	return f(ctx, ev)
}

// Options configures a Server
type Options struct {
	Addr          string
	Secret        string // empty disables signature verification
	MaxConcurrent int
	Timeout       time.Duration // per triage, 0 for none
	Logger        *slog.Logger
}

// Server is the webhook server
type Server struct {
	addr    string
	secret  []byte
	timeout time.Duration
	triager Triager
	sem     *semaphore.Weighted
	logger  *slog.Logger
	mux     *http.ServeMux
	server  *http.Server

	// base is cancelled by Shutdown; in-flight triages observe it
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards closed and orders wg.Add before Shutdown's Wait
	mu     sync.Mutex
	closed bool
}

// New creates a new webhook server
func New(t Triager, opts Options) *Server {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:    opts.Addr,
		secret:  []byte(opts.Secret),
		timeout: opts.Timeout,
		triager: t,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger:  logger,
		mux:     http.NewServeMux(),
		base:    base,
		cancel:  cancel,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /webhook", s.handleWebhook)
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.logger.Info("webhook server listening", "addr", s.addr, "signed", len(s.secret) > 0)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, cancels in-flight triages and waits
// for them to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	err := s.server.Shutdown(ctx)
	s.cancel()
	s.Wait()
	return err
}

// Wait blocks until all accepted triages have finished
func (s *Server) Wait() {
	s.wg.Wait()
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Short()})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := gh.ValidatePayload(r, s.secret)
	if err != nil {
		s.logger.Warn("rejected webhook", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	name := gh.WebHookType(r)
	delivery := gh.DeliveryID(r)
	switch name {
	case "ping":
		writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
		return
	case event.NameIssues, event.NamePullRequest, "pull_request_target":
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "unsupported event"})
		return
	}

	ev, err := event.Parse(name, payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ev.Triageable() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "action " + ev.Action})
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		writeError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go s.triage(delivery, ev)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":     "accepted",
		"repository": ev.Repository,
		"kind":       ev.Request.Kind,
		"number":     ev.Request.Number,
	})
}

func (s *Server) triage(delivery string, ev *event.Event) {
	defer s.wg.Done()

	logger := s.logger.With("delivery", delivery, "repository", ev.Repository, "kind", ev.Request.Kind, "number", ev.Request.Number)

	if err := s.sem.Acquire(s.base, 1); err != nil {
		logger.Warn("triage abandoned", "error", err)
		return
	}
	defer s.sem.Release(1)

	ctx := s.base
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.triager.Triage(ctx, ev)
	if err != nil {
		logger.Error("triage failed", "error", err)
		return
	}
	if err := report.Err(); err != nil {
		logger.Warn("triage finished with failed actions", "error", err)
		return
	}
	logger.Info("triage finished", "skipped", report.Skipped, "duration", report.Duration)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("json encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
