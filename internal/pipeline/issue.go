package pipeline

import (
	"context"
	"strings"

	"github.com/pthm/triagebot/internal/actions"
	"github.com/pthm/triagebot/internal/config"
	"github.com/pthm/triagebot/internal/labels"
	"github.com/pthm/triagebot/internal/oracle"
)

// Issue stage names
const (
	StageSpam     = "spam"
	StageReadme   = "readme"
	StageClassify = "classify"
	StageQuality  = "quality"
)

// NewIssuePipeline builds the issue variant: spam, readme, classify, quality.
// Missing prompt or response templates fail here, before any stage runs.
func NewIssuePipeline(cfg *config.Config, o oracle.Oracle, opts ...Option) (*Pipeline, error) {
	p, err := newPipeline(KindIssue, cfg, o, config.IssuePrompts, config.IssueResponses, opts)
	if err != nil {
		return nil, err
	}

	p.stages = []Stage{
		{Name: StageSpam, Run: p.issueSpam},
		{Name: StageReadme, Run: p.issueReadme},
		{Name: StageClassify, Run: p.issueClassify},
		{Name: StageQuality, Run: p.issueQuality},
	}
	return p, nil
}

func (p *Pipeline) issueVars(st *State) map[string]string {
	return map[string]string{
		config.VarIssueTitle:     st.Request.Title,
		config.VarIssueBody:      st.Request.Body,
		config.VarAuthor:         st.Request.Author,
		config.VarTemplateReport: st.Template.Report(),
		config.VarQualityReport:  st.Quality.Report(),
		config.VarReadmeContent:  st.Request.Context.Readme,
		config.VarPinnedContent:  st.Request.Context.PinnedContent,
		config.VarLabels:         p.labelList(),
	}
}

func (p *Pipeline) issueSpam(ctx context.Context, st *State) (StageOutcome, error) {
	token, err := p.ask(ctx, oracle.PurposeSpamCheck, config.PromptSpamCheck, p.issueVars(st))
	if err != nil {
		return StageOutcome{}, err
	}

	verdict, fallback := matchOr(token, spamVocabulary, VerdictNotSpam)
	out := StageOutcome{Verdict: verdict, Token: token, Fallback: fallback}
	if verdict == VerdictSpam {
		out.Final = FinalSpam
		out.Actions = []actions.Action{
			actions.Comment(p.respond(config.ResponseSpamIssue, p.issueVars(st))),
			actions.Close(actions.CloseNotPlanned),
			actions.Lock(actions.LockSpam),
		}
	}
	return out, nil
}

func (p *Pipeline) issueReadme(ctx context.Context, st *State) (StageOutcome, error) {
	rc := st.Request.Context
	if strings.TrimSpace(rc.Readme) == "" && strings.TrimSpace(rc.PinnedContent) == "" {
		return StageOutcome{Verdict: VerdictNotCovered}, nil
	}

	vars := p.issueVars(st)
	token, err := p.ask(ctx, oracle.PurposeReadmeCoverage, config.PromptReadmeCoverage, vars)
	if err != nil {
		return StageOutcome{}, err
	}

	verdict, fallback := matchOr(token, readmeVocabulary, VerdictNotCovered)
	out := StageOutcome{Verdict: verdict, Token: token, Fallback: fallback}
	if verdict != VerdictCovered {
		return out, nil
	}

	answer, err := p.ask(ctx, oracle.PurposeReadmeAnswer, config.PromptReadmeAnswer, vars)
	if err != nil {
		return StageOutcome{}, err
	}
	if !usableAnswer(answer) {
		// Covered but nothing postable: treat as not covered and keep going.
		out.Verdict = VerdictNotCovered
		out.Fallback = true
		return out, nil
	}

	vars[config.VarAnswer] = strings.TrimSpace(answer)
	out.Final = FinalReadmeCovered
	out.Actions = []actions.Action{
		actions.Comment(p.respond(config.ResponseReadmeCovered, vars)),
		actions.Close(actions.CloseCompleted),
	}
	return out, nil
}

func (p *Pipeline) issueClassify(ctx context.Context, st *State) (StageOutcome, error) {
	if st.Extracted.Insufficient(st.Template) {
		return StageOutcome{Verdict: VerdictUnlabeled}, nil
	}

	vars := p.issueVars(st)
	vars[config.VarIssueBody] = st.Extracted.UserContent
	token, err := p.ask(ctx, oracle.PurposeClassify, config.PromptClassify, vars)
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

func (p *Pipeline) issueQuality(ctx context.Context, st *State) (StageOutcome, error) {
	insufficient := st.Extracted.Insufficient(st.Template)
	stems := p.cfg.NeedsDetailStems
	if len(stems) == 0 {
		stems = labels.DefaultNeedsDetailStems
	}
	needsDetail := st.MatchedLabel != "" && labels.NeedsDetail(st.MatchedLabel, stems)

	if !needsDetail && !insufficient {
		return StageOutcome{Verdict: VerdictSkipped, Skipped: true}, nil
	}

	vars := p.issueVars(st)
	vars[config.VarIssueBody] = st.Extracted.UserContent

	out := StageOutcome{Verdict: VerdictUnclear}
	if !insufficient {
		token, err := p.ask(ctx, oracle.PurposeQuality, config.PromptQuality, vars)
		if err != nil {
			return StageOutcome{}, err
		}
		out.Verdict, out.Fallback = matchOr(token, qualityVocabulary, VerdictValid)
		out.Token = token
	}

	switch out.Verdict {
	case VerdictUnclear:
		comment, err := p.unclearComment(ctx, st, vars)
		if err != nil {
			return StageOutcome{}, err
		}
		out.Final = FinalUnclear
		out.Actions = []actions.Action{actions.Comment(comment)}

	case VerdictBasic:
		out.Final = FinalBasic
		out.Actions = []actions.Action{
			actions.Comment(p.respond(config.ResponseBasicQuestion, vars)),
			actions.Close(actions.CloseNotPlanned),
			actions.Lock(actions.LockResolved),
		}
	}
	return out, nil
}

// unclearComment answers from the README when possible, otherwise asks for detail
func (p *Pipeline) unclearComment(ctx context.Context, st *State, vars map[string]string) (string, error) {
	if strings.TrimSpace(st.Request.Context.Readme) != "" {
		answer, err := p.ask(ctx, oracle.PurposeUnclearAnswer, config.PromptUnclearAnswer, vars)
		if err != nil {
			return "", err
		}
		if usableAnswer(answer) {
			vars[config.VarAnswer] = strings.TrimSpace(answer)
			return p.respond(config.ResponseUnclearAnswer, vars), nil
		}
	}
	return p.respond(config.ResponseNeedsDetail, vars), nil
}
