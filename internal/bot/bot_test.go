package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/triagebot/internal/actions"
	"github.com/pthm/triagebot/internal/config"
	"github.com/pthm/triagebot/internal/diffsummary"
	"github.com/pthm/triagebot/internal/oracle"
	"github.com/pthm/triagebot/internal/pipeline"
)

type fakeSource struct {
	readme    string
	pinned    string
	files     []diffsummary.FileChange
	readmeErr error
}

func (f *fakeSource) Readme(context.Context) (string, error) {
	return f.readme, f.readmeErr
}

func (f *fakeSource) PinnedContent(context.Context) (string, error) {
	return f.pinned, nil
}

func (f *fakeSource) PullRequestFiles(context.Context, int) ([]diffsummary.FileChange, error) {
	return f.files, nil
}

type harness struct {
	bot      *Bot
	oracle   *oracle.Scripted
	recorder *actions.Recorder
	executed []int
}

func newHarness(t *testing.T, src Source, tokens map[string]string) *harness {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	h := &harness{oracle: oracle.NewScripted(tokens), recorder: actions.NewRecorder()}
	b, err := New(Options{
		Config: cfg,
		Oracle: h.oracle,
		Source: src,
		Executor: func(_ pipeline.Kind, number int) actions.Executor {
			h.executed = append(h.executed, number)
			return h.recorder
		},
	})
	require.NoError(t, err)
	h.bot = b
	return h
}

func TestTriageIssueUsesReadme(t *testing.T) {
	src := &fakeSource{readme: "## Install\nRun make.", pinned: "FAQ"}
	h := newHarness(t, src, map[string]string{
		oracle.PurposeSpamCheck:      "NOT_SPAM",
		oracle.PurposeReadmeCoverage: "COVERED",
		oracle.PurposeReadmeAnswer:   "Run make.",
	})

	report, err := h.bot.Triage(context.Background(), pipeline.Request{
		Kind: pipeline.KindIssue, Number: 5, Title: "How to install?", Body: "?", Author: "newbie",
	})
	require.NoError(t, err)

	require.NotNil(t, report.Decision)
	assert.Equal(t, pipeline.FinalReadmeCovered, report.Decision.Final)
	assert.Equal(t, []int{5}, h.executed)
	assert.Equal(t, report.Decision.Actions, h.recorder.Calls())
	assert.NoError(t, report.Err())

	calls := h.oracle.Calls()
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Contains(t, calls[1].Prompt, "Run make.")
	assert.Contains(t, calls[1].Prompt, "FAQ")
}

func TestTriagePullRequestUsesFiles(t *testing.T) {
	src := &fakeSource{files: []diffsummary.FileChange{{Filename: "main.go", Status: "modified", Additions: 1}}}
	h := newHarness(t, src, map[string]string{
		oracle.PurposePRSpamCheck: "NOT_SPAM",
		oracle.PurposePRQuality:   "VALID",
		oracle.PurposePRClassify:  "enhancement",
	})

	report, err := h.bot.Triage(context.Background(), pipeline.Request{
		Kind: pipeline.KindPullRequest, Number: 9, Title: "feat: faster main", Author: "dev",
	})
	require.NoError(t, err)

	assert.Equal(t, pipeline.FinalKeep, report.Decision.Final)
	assert.Equal(t, []actions.Action{actions.AddLabel("enhancement")}, h.recorder.Calls())
	assert.Contains(t, h.oracle.Calls()[0].Prompt, "- main.go (modified, +1 -0)")
}

func TestTriageSkipsBots(t *testing.T) {
	h := newHarness(t, nil, nil)

	report, err := h.bot.Triage(context.Background(), pipeline.Request{
		Kind: pipeline.KindPullRequest, Number: 3, Title: "chore(deps): bump x", Author: "dependabot[bot]",
	})
	require.NoError(t, err)

	assert.True(t, report.Skipped)
	assert.Nil(t, report.Decision)
	assert.Empty(t, h.oracle.Calls())
	assert.Empty(t, h.executed)
}

func TestTriageContextFailure(t *testing.T) {
	src := &fakeSource{readmeErr: errors.New("rate limited")}
	h := newHarness(t, src, map[string]string{oracle.PurposeSpamCheck: "NOT_SPAM"})

	_, err := h.bot.Triage(context.Background(), pipeline.Request{Kind: pipeline.KindIssue, Number: 1, Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Empty(t, h.oracle.Calls())
}

func TestTriagePipelineFailure(t *testing.T) {
	h := newHarness(t, nil, nil)

	_, err := h.bot.Triage(context.Background(), pipeline.Request{Kind: pipeline.KindIssue, Number: 1, Title: "x"})
	var serr *pipeline.StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, pipeline.StageSpam, serr.Stage)
	assert.Empty(t, h.executed)
}

func TestTriageReportsActionFailures(t *testing.T) {
	h := newHarness(t, nil, map[string]string{oracle.PurposeSpamCheck: "SPAM"})
	h.recorder.Failing[actions.TypeLock] = errors.New("locked already")

	report, err := h.bot.Triage(context.Background(), pipeline.Request{Kind: pipeline.KindIssue, Number: 2, Title: "buy now"})
	require.NoError(t, err)

	assert.Len(t, h.recorder.Calls(), 3)
	require.Error(t, report.Err())
	var pae *actions.PlatformActionError
	assert.ErrorAs(t, report.Err(), &pae)
}

func TestTriageUnknownKind(t *testing.T) {
	h := newHarness(t, nil, nil)
	_, err := h.bot.Triage(context.Background(), pipeline.Request{Kind: "discussion", Number: 1})
	assert.Error(t, err)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Labels = nil

	_, err = New(Options{Config: cfg, Oracle: oracle.NewHeuristic()})
	var ce *config.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}
