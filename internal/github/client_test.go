package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/triagebot/internal/actions"
	"github.com/pthm/triagebot/internal/pipeline"
)

type apiCall struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
	mux   *http.ServeMux
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{mux: http.NewServeMux()}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient("acme/widgets", Options{
		Token:          "test-token",
		PinnedLabel:    "pinned",
		ReadmeMaxChars: 1000,
		BaseURL:        srv.URL,
	})
	require.NoError(t, err)
	return api, c
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := apiCall{Method: r.Method, Path: r.URL.Path}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &call.Body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	f.mux.ServeHTTP(w, r)
}

func (f *fakeAPI) recorded() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestParseRepository(t *testing.T) {
	owner, repo, err := ParseRepository("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)

	for _, bad := range []string{"", "acme", "acme/", "/widgets", "a/b/c"} {
		_, _, err := ParseRepository(bad)
		assert.Error(t, err, "ParseRepository(%q)", bad)
	}
}

func TestIssue(t *testing.T) {
	api, c := newFakeAPI(t)
	api.mux.HandleFunc("GET /repos/acme/widgets/issues/12", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"number": 12,
			"title":  "Crash on save",
			"body":   "Steps...",
			"user":   map[string]any{"login": "octocat"},
		})
	})

	req, err := c.Issue(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Request{
		Kind: pipeline.KindIssue, Number: 12, Title: "Crash on save", Body: "Steps...", Author: "octocat",
	}, req)
}

func TestIssueRejectsPullRequest(t *testing.T) {
	api, c := newFakeAPI(t)
	api.mux.HandleFunc("GET /repos/acme/widgets/issues/3", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"number":       3,
			"pull_request": map[string]any{"url": "https://example.invalid/pulls/3"},
		})
	})

	_, err := c.Issue(context.Background(), 3)
	assert.Error(t, err)
}

func TestReadme(t *testing.T) {
	api, c := newFakeAPI(t)
	content := "# Widgets\n\nUse them."
	api.mux.HandleFunc("GET /repos/acme/widgets/readme", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})

	got, err := c.Readme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestReadmeMissing(t *testing.T) {
	api, c := newFakeAPI(t)
	api.mux.HandleFunc("GET /repos/acme/widgets/readme", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"message": "Not Found"})
	})

	got, err := c.Readme(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPinnedContent(t *testing.T) {
	api, c := newFakeAPI(t)
	api.mux.HandleFunc("GET /repos/acme/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pinned", r.URL.Query().Get("labels"))
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		writeJSON(w, []map[string]any{
			{"number": 1, "title": "FAQ", "body": "Read this first."},
			{"number": 2, "title": "A PR", "body": "x", "pull_request": map[string]any{"url": "u"}},
		})
	})

	got, err := c.PinnedContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "## #1 FAQ\n\nRead this first.", got)
}

func TestPullRequestFilesPaginates(t *testing.T) {
	api, c := newFakeAPI(t)
	var srvURL string
	api.mux.HandleFunc("GET /repos/acme/widgets/pulls/5/files", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/widgets/pulls/5/files?page=2>; rel="next"`, srvURL))
			writeJSON(w, []map[string]any{{"filename": "a.go", "status": "modified", "additions": 3, "deletions": 1, "patch": "@@ -1 +1 @@\n-a\n+b"}})
			return
		}
		writeJSON(w, []map[string]any{{"filename": "b.go", "status": "added", "additions": 10}})
	})
	srvURL = strings.TrimSuffix(c.gh.BaseURL.String(), "/")

	files, err := c.PullRequestFiles(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.go", files[0].Filename)
	assert.Equal(t, 3, files[0].Additions)
	assert.Equal(t, "b.go", files[1].Filename)
	assert.Equal(t, "added", files[1].Status)
}

func TestExecutor(t *testing.T) {
	api, c := newFakeAPI(t)
	api.mux.HandleFunc("POST /repos/acme/widgets/issues/9/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"id": 1})
	})
	api.mux.HandleFunc("PATCH /repos/acme/widgets/issues/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"number": 9, "state": "closed"})
	})
	api.mux.HandleFunc("PUT /repos/acme/widgets/issues/9/lock", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	api.mux.HandleFunc("POST /repos/acme/widgets/issues/9/labels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"name": "bug"}})
	})

	plan := []actions.Action{
		actions.Comment("spam"),
		actions.Close(actions.CloseNotPlanned),
		actions.Lock(actions.LockSpam),
		actions.AddLabel("bug"),
	}
	outcome := actions.Run(context.Background(), c.Executor(pipeline.KindIssue, 9), plan)
	require.NoError(t, outcome.Err())

	calls := api.recorded()
	require.Len(t, calls, 4)
	assert.Equal(t, "spam", calls[0].Body["body"])
	assert.Equal(t, "closed", calls[1].Body["state"])
	assert.Equal(t, "not_planned", calls[1].Body["state_reason"])
	assert.Equal(t, "spam", calls[2].Body["lock_reason"])
	assert.Equal(t, "PUT", calls[2].Method)
}

func TestExecutorPullRequestCloseHasNoReason(t *testing.T) {
	api, c := newFakeAPI(t)
	api.mux.HandleFunc("PATCH /repos/acme/widgets/issues/4", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"number": 4, "state": "closed"})
	})

	err := c.Executor(pipeline.KindPullRequest, 4).Close(context.Background(), actions.CloseNotPlanned)
	require.NoError(t, err)

	calls := api.recorded()
	require.Len(t, calls, 1)
	_, hasReason := calls[0].Body["state_reason"]
	assert.False(t, hasReason)
}

func TestExecutorReportsFailure(t *testing.T) {
	api, c := newFakeAPI(t)
	api.mux.HandleFunc("POST /repos/acme/widgets/issues/9/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		writeJSON(w, map[string]any{"message": "Resource not accessible by integration"})
	})
	api.mux.HandleFunc("PATCH /repos/acme/widgets/issues/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"number": 9})
	})

	outcome := actions.Run(context.Background(), c.Executor(pipeline.KindIssue, 9),
		[]actions.Action{actions.Comment("x"), actions.Close(actions.CloseCompleted)})

	failed := outcome.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, actions.TypeComment, failed[0].Action.Type)
	assert.Len(t, api.recorded(), 2, "close is attempted after the comment fails")
}
