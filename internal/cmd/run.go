package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/triagebot/internal/event"
	"github.com/pthm/triagebot/internal/github"
	"github.com/pthm/triagebot/internal/pipeline"
)

var (
	runFlags  triageFlags
	eventPath string
	eventName string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Triage the issue or pull request in a GitHub Actions event",
	Long: `Triage the artifact described by the event payload GitHub Actions
provides. Only "opened" events are triaged; anything else exits cleanly.

Examples:
  triagebot run
  triagebot run --event-path event.json --event-name issues --dry-run`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&eventPath, "event-path", "", "Event payload file (default $GITHUB_EVENT_PATH)")
	runCmd.Flags().StringVar(&eventName, "event-name", "", "Event name (default $GITHUB_EVENT_NAME, inferred from the payload if unset)")
	RootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	path := eventPath
	if path == "" {
		path = os.Getenv("GITHUB_EVENT_PATH")
	}
	if path == "" {
		return fmt.Errorf("no event payload: pass --event-path or set GITHUB_EVENT_PATH")
	}
	name := eventName
	if name == "" {
		name = os.Getenv("GITHUB_EVENT_NAME")
	}

	ev, err := event.ParseFile(name, path)
	if err != nil {
		return err
	}

	if !ev.Triageable() {
		u := GetUI()
		fmt.Fprintln(u.Writer, u.Styles.Skip.Render(
			fmt.Sprintf("%s %s event with action %q is not triaged", u.Styles.IconSkip, ev.Name, ev.Action),
		))
		return nil
	}

	repository, err := resolveRepository(runFlags.repo, ev.Repository)
	if err != nil {
		return err
	}

	return triageRequest(cmd.Context(), &runFlags, repository, func(context.Context, *github.Client) (pipeline.Request, error) {
		return ev.Request, nil
	})
}
