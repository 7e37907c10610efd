package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/triagebot/internal/labels"
	"github.com/pthm/triagebot/internal/pipeline"
	"github.com/pthm/triagebot/internal/quality"
	"github.com/pthm/triagebot/internal/template"
)

var (
	analyzeTitle string
	analyzeKind  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze an issue or PR body without calling a model",
	Long: `Run template detection, template extraction and quality scoring on a
body read from a file (or stdin). No network access is needed.

Examples:
  triagebot analyze body.md --title "[Bug] crash on save"
  gh issue view 42 --json body -q .body | triagebot analyze --title "Crash"
  triagebot analyze pr.md --kind pr --title "fix: handle nil config"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeTitle, "title", "t", "", "Title of the issue or pull request")
	analyzeCmd.Flags().StringVar(&analyzeKind, "kind", "issue", "Artifact kind (issue, pr)")
	RootCmd.AddCommand(analyzeCmd)
}

// analysisOutput is the JSON shape of analyze
type analysisOutput struct {
	Title             string             `json:"title"`
	Template          template.Analysis  `json:"template"`
	Extracted         template.Extracted `json:"extracted"`
	Insufficient      bool               `json:"insufficient"`
	Quality           quality.Analysis   `json:"quality"`
	ConventionalTitle *bool              `json:"conventional_title,omitempty"`
	SuggestedLabel    string             `json:"suggested_label,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var (
		body []byte
		err  error
	)
	if len(args) > 0 && args[0] != "-" {
		body, err = os.ReadFile(args[0])
	} else {
		body, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	analyzer := template.NewAnalyzer(cfg.TemplateOptions())
	analysis := analyzer.Detect(analyzeTitle, string(body))
	extracted := analyzer.Extract(string(body), analysis)

	out := analysisOutput{
		Title:        analyzeTitle,
		Template:     analysis,
		Extracted:    extracted,
		Insufficient: extracted.Insufficient(analysis),
		Quality:      quality.NewScorer(cfg.Quality).Score(analyzeTitle, string(body), analysis, extracted),
	}

	switch analyzeKind {
	case "pr", string(pipeline.KindPullRequest):
		ok := pipeline.IsConventionalTitle(analyzeTitle)
		out.ConventionalTitle = &ok
	case string(pipeline.KindIssue):
		// template type doubles as a label hint
		if label, ok := labels.Resolve(string(analysis.Type), cfg.Labels); ok {
			out.SuggestedLabel = label
		}
	default:
		return fmt.Errorf("unknown kind %q (want issue or pr)", analyzeKind)
	}

	u := GetUI()
	if u.IsJSON() {
		enc := json.NewEncoder(u.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printAnalysis(u.Writer, out)
	return nil
}

func printAnalysis(w io.Writer, out analysisOutput) {
	s := GetUI().Styles

	fmt.Fprintln(w, s.Header.Render("Template"))
	fmt.Fprintf(w, "  %s detected: %t (%s, %.0f%% confidence)\n",
		s.Check(out.Template.HasTemplate), out.Template.HasTemplate, out.Template.Type, out.Template.Confidence)
	if len(out.Template.Indicators) > 0 {
		fmt.Fprintf(w, "  %s\n", s.Muted.Render("indicators: "+strings.Join(out.Template.Indicators, ", ")))
	}
	if out.Extracted.TotalSections > 0 {
		fmt.Fprintf(w, "  %s sections filled: %d/%d\n",
			s.Check(out.Extracted.ValidSections > 0), out.Extracted.ValidSections, out.Extracted.TotalSections)
	}
	for _, sec := range out.Extracted.Sections {
		fmt.Fprintf(w, "    %s %s\n", s.IconBullet, sec.Title)
	}
	if out.Insufficient {
		fmt.Fprintf(w, "  %s\n", s.Reject.Render(s.IconReject+" template left unfilled"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Header.Render("Quality"))
	levelStyle := s.Keep
	switch out.Quality.Level {
	case quality.LevelLow:
		levelStyle = s.Reject
	case quality.LevelMedium:
		levelStyle = s.Unclear
	}
	fmt.Fprintf(w, "  score: %s\n", levelStyle.Render(fmt.Sprintf("%.0f/100 (%s)", out.Quality.Score, out.Quality.Level)))
	for _, r := range out.Quality.Reasons {
		fmt.Fprintf(w, "    %s %s\n", s.IconBullet, r)
	}

	if out.ConventionalTitle != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Header.Render("Title"))
		fmt.Fprintf(w, "  %s conventional commit: %t\n", s.Check(*out.ConventionalTitle), *out.ConventionalTitle)
	}
	if out.SuggestedLabel != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", s.Subheader.Render("suggested label:"), s.Label.Render(out.SuggestedLabel))
	}
}
