package oracle

import (
	"context"
	"regexp"
	"strings"
)

// Heuristic is the offline backend. It never calls a model: it reads the
// markers the default prompt templates embed (template report, quality
// report, titles) and otherwise returns the non-destructive verdict for
// each purpose.
type Heuristic struct{}

// NewHeuristic creates the offline backend
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

var (
	spamPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(casino|viagra|cialis|porn|escort)\b`),
		regexp.MustCompile(`(?i)\b(buy (cheap )?followers|payday loan|crypto airdrop|free bitcoin)\b`),
		regexp.MustCompile(`(?i)(https?://\S+\s*){5,}`),
	}
	templateTypeRe = regexp.MustCompile(`(?m)^Template type:\s*(\w+)`)
	qualityLevelRe = regexp.MustCompile(`(?m)^Quality score:\s*\d+(?:/100)?\s*\((\w+)\)`)
	commitTypeRe   = regexp.MustCompile(`(?mi)^Title:\s*(feat|fix|docs|perf|refactor|test|chore|ci|build)\b`)
)

var commitTypeLabels = map[string]string{
	"feat":     "enhancement",
	"fix":      "bug",
	"docs":     "documentation",
	"perf":     "enhancement",
	"refactor": "enhancement",
	"test":     "enhancement",
	"chore":    "enhancement",
	"ci":       "enhancement",
	"build":    "enhancement",
}

// Classify answers from deterministic rules
func (h *Heuristic) Classify(_ context.Context, prompt, purpose string) Result {
	switch purpose {
	case PurposeSpamCheck, PurposePRSpamCheck:
		for _, p := range spamPatterns {
			if p.MatchString(prompt) {
				return Success("SPAM")
			}
		}
		return Success("NOT_SPAM")

	case PurposeReadmeCoverage:
		return Success("NOT_COVERED")

	case PurposeClassify:
		if m := templateTypeRe.FindStringSubmatch(prompt); m != nil {
			switch m[1] {
			case "bug_report":
				return Success("bug")
			case "feature_request":
				return Success("enhancement")
			}
		}
		return Success("question")

	case PurposeQuality:
		if m := qualityLevelRe.FindStringSubmatch(prompt); m != nil && m[1] == "low" {
			return Success("UNCLEAR")
		}
		return Success("VALID")

	case PurposePRQuality:
		return Success("VALID")

	case PurposePRClassify:
		if m := commitTypeRe.FindStringSubmatch(prompt); m != nil {
			return Success(commitTypeLabels[strings.ToLower(m[1])])
		}
		return Success("enhancement")

	case PurposeReadmeAnswer, PurposeUnclearAnswer:
		return Success("NO_ANSWER")
	}

	return Fail(FailureUnavailable, purpose, nil)
}
