package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/triagebot/internal/labels"
)

var resolveLabels []string

var resolveCmd = &cobra.Command{
	Use:   "resolve <answer>",
	Short: "Map a free-text classification answer onto the label set",
	Long: `Show which configured label a classification answer resolves to.
Useful for checking label names and aliases before deploying a config.

Examples:
  triagebot resolve "Bug report"
  triagebot resolve "feature request" --labels bug,feature,docs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringSliceVar(&resolveLabels, "labels", nil, "Label set to resolve against (default: configured labels)")
	RootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	set := resolveLabels
	if len(set) == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		set = cfg.Labels
	}
	if bad := labels.Validate(set); len(bad) > 0 {
		return fmt.Errorf("blank or duplicate labels: %q", bad)
	}

	answer := strings.Join(args, " ")
	label, ok := labels.Resolve(answer, set)

	u := GetUI()
	if u.IsJSON() {
		return json.NewEncoder(u.Writer).Encode(map[string]any{
			"answer":  answer,
			"label":   label,
			"matched": ok,
		})
	}

	s := u.Styles
	if !ok {
		fmt.Fprintf(u.Writer, "%s %q matches none of: %s\n", s.Check(false), answer, strings.Join(set, ", "))
		return fmt.Errorf("no label matched")
	}
	fmt.Fprintf(u.Writer, "%s %q -> %s\n", s.Check(true), answer, s.Label.Render(label))
	return nil
}
