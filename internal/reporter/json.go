package reporter

import (
	"encoding/json"
	"io"

	"github.com/pthm/triagebot/internal/bot"
)

// JSONReporter outputs results as JSON
type JSONReporter struct {
	w io.Writer
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

// JSONOutput represents the JSON output format
type JSONOutput struct {
	Reports []*bot.Report `json:"reports"`
	Summary Summary       `json:"summary"`
}

// Report outputs reports as JSON
func (r *JSONReporter) Report(reports []*bot.Report) error {
	output := JSONOutput{
		Reports: reports,
		Summary: ComputeSummary(reports),
	}
	if output.Reports == nil {
		output.Reports = []*bot.Report{}
	}

	encoder := json.NewEncoder(r.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return err
	}

	if output.Summary.FailedActions > 0 {
		return errActionsFailed(output.Summary.FailedActions)
	}
	return nil
}
