package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/triagebot/internal/bot"
	"github.com/pthm/triagebot/internal/event"
	"github.com/pthm/triagebot/internal/pipeline"
)

const secret = "s3cret"

const openedIssue = `{
  "action": "opened",
  "issue": {"number": 12, "title": "Crash on save", "body": "it crashes", "user": {"login": "octocat"}},
  "repository": {"full_name": "acme/widgets"},
  "sender": {"login": "octocat"}
}`

type recordingTriager struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (r *recordingTriager) Triage(_ context.Context, ev *event.Event) (*bot.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.err != nil {
		return nil, r.err
	}
	return &bot.Report{Repository: ev.Repository, Request: ev.Request}, nil
}

func (r *recordingTriager) Events() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*event.Event(nil), r.events...)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func webhook(name, body, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", name)
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := New(&recordingTriager{}, Options{Addr: ":0"})
	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestWebhookAcceptsSignedIssue(t *testing.T) {
	tr := &recordingTriager{}
	s := New(tr, Options{Secret: secret, MaxConcurrent: 2})

	w := serve(s, webhook("issues", openedIssue, sign([]byte(openedIssue))))
	s.Wait()

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	events := tr.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "acme/widgets", events[0].Repository)
	assert.Equal(t, pipeline.KindIssue, events[0].Request.Kind)
	assert.Equal(t, 12, events[0].Request.Number)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	tr := &recordingTriager{}
	s := New(tr, Options{Secret: secret})

	for name, sig := range map[string]string{
		"missing": "",
		"wrong":   sign([]byte("something else")),
	} {
		t.Run(name, func(t *testing.T) {
			w := serve(s, webhook("issues", openedIssue, sig))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
	s.Wait()
	assert.Empty(t, tr.Events())
}

func TestWebhookWithoutSecret(t *testing.T) {
	tr := &recordingTriager{}
	s := New(tr, Options{})

	w := serve(s, webhook("issues", openedIssue, ""))
	s.Wait()

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, tr.Events(), 1)
}

func TestWebhookIgnores(t *testing.T) {
	edited := `{"action": "edited", "issue": {"number": 3, "title": "t"}, "repository": {"full_name": "acme/widgets"}}`

	tests := []struct {
		name  string
		event string
		body  string
		code  int
	}{
		{"ping", "ping", `{"zen": "hi"}`, http.StatusOK},
		{"unsupported event", "push", `{"ref": "main"}`, http.StatusOK},
		{"not opened", "issues", edited, http.StatusOK},
		{"malformed payload", "issues", `{"action": "opened"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &recordingTriager{}
			s := New(tr, Options{Secret: secret})

			w := serve(s, webhook(tt.event, tt.body, sign([]byte(tt.body))))
			s.Wait()

			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Empty(t, tr.Events())
		})
	}
}

func TestWebhookTriageFailureIsLogged(t *testing.T) {
	tr := &recordingTriager{err: errors.New("oracle down")}
	s := New(tr, Options{})

	w := serve(s, webhook("issues", openedIssue, ""))
	s.Wait()

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, tr.Events(), 1)
}

func TestConcurrencyIsBounded(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})

	tr := TriagerFunc(func(ctx context.Context, ev *event.Event) (*bot.Report, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return &bot.Report{Request: ev.Request}, nil
	})
	s := New(tr, Options{MaxConcurrent: 2})

	for i := 0; i < 5; i++ {
		w := serve(s, webhook("issues", openedIssue, ""))
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	require.Eventually(t, func() bool { return running.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	s.Wait()

	assert.Equal(t, int32(2), peak.Load())
}

func TestShutdownCancelsQueuedTriages(t *testing.T) {
	started := make(chan struct{}, 1)
	var calls atomic.Int32

	tr := TriagerFunc(func(ctx context.Context, ev *event.Event) (*bot.Report, error) {
		calls.Add(1)
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s := New(tr, Options{MaxConcurrent: 1})

	serve(s, webhook("issues", openedIssue, ""))
	<-started
	serve(s, webhook("issues", openedIssue, ""))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	assert.Equal(t, int32(1), calls.Load())
}

func TestWebhookRejectedAfterShutdown(t *testing.T) {
	tr := &recordingTriager{}
	s := New(tr, Options{Secret: secret})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	w := serve(s, webhook("issues", openedIssue, sign([]byte(openedIssue))))
	s.Wait()

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, tr.Events())
}

func TestShutdownRacesWithDeliveries(t *testing.T) {
	tr := &recordingTriager{}
	s := New(tr, Options{Secret: secret, MaxConcurrent: 4})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := serve(s, webhook("issues", openedIssue, sign([]byte(openedIssue))))
			assert.Contains(t, []int{http.StatusAccepted, http.StatusServiceUnavailable}, w.Code)
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	wg.Wait()
	s.Wait()
}
