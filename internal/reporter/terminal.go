package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pthm/triagebot/internal/bot"
	"github.com/pthm/triagebot/internal/pipeline"
)

// TerminalReporter outputs results to the terminal with colors
type TerminalReporter struct {
	w       io.Writer
	verbose bool
}

// NewTerminalReporter creates a new terminal reporter. verbose adds the
// stage trace and template/quality analysis.
func NewTerminalReporter(w io.Writer, verbose bool) *TerminalReporter {
	return &TerminalReporter{w: w, verbose: verbose}
}

func errActionsFailed(n int) error {
	return fmt.Errorf("%d action call(s) failed", n)
}

// Report outputs reports to the terminal
func (r *TerminalReporter) Report(reports []*bot.Report) error {
	if len(reports) == 0 {
		color.New(color.FgHiBlack).Fprintln(r.w, "Nothing to triage")
		return nil
	}

	for _, report := range reports {
		r.printReport(report)
	}

	summary := ComputeSummary(reports)
	if len(reports) > 1 {
		r.printSummary(summary)
	}

	if summary.FailedActions > 0 {
		return errActionsFailed(summary.FailedActions)
	}
	return nil
}

func (r *TerminalReporter) printReport(report *bot.Report) {
	req := report.Request

	fmt.Fprintln(r.w)
	color.New(color.FgWhite, color.Bold).Fprintf(r.w, "%s #%d", kindLabel(req.Kind), req.Number)
	fmt.Fprintf(r.w, " %s\n", req.Title)
	if req.Author != "" {
		color.New(color.FgHiBlack).Fprintf(r.w, "  by @%s\n", req.Author)
	}

	if report.Skipped {
		color.New(color.FgHiBlack).Fprintf(r.w, "  ⊘ skipped: %s\n", report.SkipReason)
		return
	}
	d := report.Decision
	if d == nil {
		return
	}

	finalColor(d.Final).Fprintf(r.w, "  %s %s", finalIcon(d.Final), d.Final)
	color.New(color.FgHiBlack).Fprintf(r.w, " [%s]", d.TriggeringStage)
	if d.MatchedLabel != "" {
		color.New(color.FgCyan).Fprintf(r.w, " label:%s", d.MatchedLabel)
	}
	fmt.Fprintln(r.w)

	if r.verbose {
		r.printTrace(d)
	}
	r.printActions(report)
}

func (r *TerminalReporter) printTrace(d *pipeline.Decision) {
	dim := color.New(color.FgHiBlack)
	dim.Fprintf(r.w, "    run %s\n", d.RunID)
	for _, s := range d.Trace {
		line := fmt.Sprintf("    %-13s %-15s", s.Stage, s.Verdict)
		if s.Fallback {
			line += " (fallback)"
		}
		if s.Token != "" && s.Token != string(s.Verdict) {
			line += fmt.Sprintf(" %q", truncate(s.Token, 60))
		}
		dim.Fprintln(r.w, line)
	}
	dim.Fprintf(r.w, "    template: %t (%s, %.0f%%) quality: %.0f (%s)\n",
		d.Template.HasTemplate, d.Template.Type, d.Template.Confidence, d.Quality.Score, d.Quality.Level)
}

func (r *TerminalReporter) printActions(report *bot.Report) {
	d := report.Decision
	if len(d.Actions) == 0 {
		color.New(color.FgHiBlack).Fprintln(r.w, "    no actions")
		return
	}

	if report.Outcome == nil {
		verb := "planned"
		if report.DryRun {
			verb = "dry run"
		}
		for _, a := range d.Actions {
			color.New(color.FgHiBlack).Fprintf(r.w, "    · %s (%s)\n", a, verb)
		}
		return
	}

	for _, res := range report.Outcome.Results {
		if res.OK() {
			color.New(color.FgGreen).Fprintf(r.w, "    ✓ %s\n", res.Action)
			continue
		}
		color.New(color.FgRed).Fprintf(r.w, "    ✗ %s", res.Action)
		fmt.Fprintf(r.w, ": %s\n", res.Error)
	}
}

func (r *TerminalReporter) printSummary(s Summary) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "─────────────────────────────────────")

	parts := []string{}
	if s.Kept > 0 {
		parts = append(parts, color.GreenString("%d kept", s.Kept))
	}
	if s.Unclear > 0 {
		parts = append(parts, color.YellowString("%d unclear", s.Unclear))
	}
	if s.Rejected > 0 {
		parts = append(parts, color.RedString("%d rejected", s.Rejected))
	}
	if s.Skipped > 0 {
		parts = append(parts, color.HiBlackString("%d skipped", s.Skipped))
	}
	if s.FailedActions > 0 {
		parts = append(parts, color.RedString("%d failed actions", s.FailedActions))
	}

	fmt.Fprintf(r.w, "Triaged %d: %s\n", s.Total, strings.Join(parts, ", "))
}

func kindLabel(k pipeline.Kind) string {
	if k == pipeline.KindPullRequest {
		return "PR"
	}
	return "Issue"
}

func finalColor(f pipeline.Final) *color.Color {
	switch f {
	case pipeline.FinalKeep:
		return color.New(color.FgGreen, color.Bold)
	case pipeline.FinalUnclear:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func finalIcon(f pipeline.Final) string {
	switch f {
	case pipeline.FinalKeep:
		return "✓"
	case pipeline.FinalUnclear:
		return "?"
	default:
		return "✗"
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
