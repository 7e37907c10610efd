package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/pthm/triagebot/internal/actions"
	"github.com/pthm/triagebot/internal/config"
	"github.com/pthm/triagebot/internal/labels"
	"github.com/pthm/triagebot/internal/oracle"
)

// Pull request stage names (spam, quality and classify are shared with issues)
const (
	StageCommitTitle = "commit_title"
)

var conventionalCommitRe = regexp.MustCompile(`(?i)^(feat|fix|docs|style|refactor|perf|test|chore|ci|build|revert)(\([^)]+\))?!?: .+$`)

// IsConventionalTitle reports whether title follows Conventional Commits
func IsConventionalTitle(title string) bool {
	return conventionalCommitRe.MatchString(strings.TrimSpace(title))
}

// NewPullRequestPipeline builds the PR variant: spam, commit_title, quality, classify
func NewPullRequestPipeline(cfg *config.Config, o oracle.Oracle, opts ...Option) (*Pipeline, error) {
	p, err := newPipeline(KindPullRequest, cfg, o, config.PullRequestPrompts, config.PullRequestResponses, opts)
	if err != nil {
		return nil, err
	}

	p.stages = []Stage{
		{Name: StageSpam, Run: p.prSpam},
		{Name: StageCommitTitle, Run: p.prCommitTitle},
		{Name: StageQuality, Run: p.prQuality},
		{Name: StageClassify, Run: p.prClassify},
	}
	return p, nil
}

func (p *Pipeline) prVars(st *State) map[string]string {
	return map[string]string{
		config.VarPRTitle:     st.Request.Title,
		config.VarPRBody:      st.Request.Body,
		config.VarAuthor:      st.Request.Author,
		config.VarFileChanges: st.FileSummary,
		config.VarLabels:      p.labelList(),
	}
}

func (p *Pipeline) prSpam(ctx context.Context, st *State) (StageOutcome, error) {
	token, err := p.ask(ctx, oracle.PurposePRSpamCheck, config.PromptPRSpamCheck, p.prVars(st))
	if err != nil {
		return StageOutcome{}, err
	}

	verdict, fallback := matchOr(token, spamVocabulary, VerdictNotSpam)
	out := StageOutcome{Verdict: verdict, Token: token, Fallback: fallback}
	if verdict == VerdictSpam {
		out.Final = FinalSpam
		out.Actions = []actions.Action{
			actions.Comment(p.respond(config.ResponseSpamPR, p.prVars(st))),
			actions.Close(actions.CloseNotPlanned),
		}
	}
	return out, nil
}

func (p *Pipeline) prCommitTitle(_ context.Context, st *State) (StageOutcome, error) {
	if IsConventionalTitle(st.Request.Title) {
		return StageOutcome{Verdict: VerdictValidCommit}, nil
	}
	return StageOutcome{
		Verdict: VerdictInvalidCommit,
		Final:   FinalInvalidCommit,
		Actions: []actions.Action{
			actions.Comment(p.respond(config.ResponseInvalidCommit, p.prVars(st))),
			actions.Close(actions.CloseNotPlanned),
		},
	}, nil
}

func (p *Pipeline) prQuality(ctx context.Context, st *State) (StageOutcome, error) {
	token, err := p.ask(ctx, oracle.PurposePRQuality, config.PromptPRQuality, p.prVars(st))
	if err != nil {
		return StageOutcome{}, err
	}

	verdict, fallback := matchOr(token, prQualityVocabulary, VerdictUnclear)
	out := StageOutcome{Verdict: verdict, Token: token, Fallback: fallback}

	switch verdict {
	case VerdictUnclear:
		// Left open and unlabeled for a human.
		out.Final = FinalUnclear
	case VerdictMalicious:
		out.Final = FinalMalicious
		out.Actions = []actions.Action{
			actions.Comment(p.respond(config.ResponseMaliciousPR, p.prVars(st))),
			actions.Close(actions.CloseNotPlanned),
			actions.Lock(actions.LockSpam),
		}
	case VerdictTrivial:
		out.Final = FinalTrivial
		out.Actions = []actions.Action{
			actions.Comment(p.respond(config.ResponseTrivialPR, p.prVars(st))),
			actions.Close(actions.CloseNotPlanned),
			actions.Lock(actions.LockResolved),
		}
	}
	return out, nil
}

func (p *Pipeline) prClassify(ctx context.Context, st *State) (StageOutcome, error) {
	token, err := p.ask(ctx, oracle.PurposePRClassify, config.PromptPRClassify, p.prVars(st))
	if err != nil {
		return StageOutcome{}, err
	}

	label, ok := labels.Resolve(token, p.cfg.Labels)
	if !ok {
		return StageOutcome{Verdict: VerdictUnlabeled, Token: token}, nil
	}
	st.MatchedLabel = label
	return StageOutcome{Verdict: VerdictLabeled, Token: token}, nil
}
