package reporter

import (
	"github.com/pthm/triagebot/internal/bot"
	"github.com/pthm/triagebot/internal/pipeline"
)

// Reporter defines the interface for outputting triage results
type Reporter interface {
	// Report outputs the triage results
	Report(reports []*bot.Report) error
}

// Summary holds summary statistics for a triage run
type Summary struct {
	Total         int `json:"total"`
	Kept          int `json:"kept"`
	Rejected      int `json:"rejected"`
	Unclear       int `json:"unclear"`
	Skipped       int `json:"skipped"`
	FailedActions int `json:"failed_actions"`
}

// ComputeSummary computes summary statistics from reports
func ComputeSummary(reports []*bot.Report) Summary {
	s := Summary{Total: len(reports)}

	for _, r := range reports {
		if r.Outcome != nil {
			s.FailedActions += len(r.Outcome.Failed())
		}
		if r.Skipped || r.Decision == nil {
			s.Skipped++
			continue
		}
		switch r.Decision.Final {
		case pipeline.FinalKeep:
			s.Kept++
		case pipeline.FinalUnclear:
			s.Unclear++
		default:
			s.Rejected++
		}
	}

	return s
}
