package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pthm/triagebot/internal/github"
	"github.com/pthm/triagebot/internal/pipeline"
)

var (
	issueFlags triageFlags
	prFlags    triageFlags
)

var issueCmd = &cobra.Command{
	Use:   "issue <number>",
	Short: "Fetch and triage an issue",
	Long: `Fetch an issue from GitHub and triage it.

Examples:
  triagebot issue 42 --repo acme/widgets --dry-run
  triagebot issue 42 --offline --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runByNumber(cmd, &issueFlags, pipeline.KindIssue, args[0])
	},
}

var prCmd = &cobra.Command{
	Use:     "pr <number>",
	Aliases: []string{"pull-request"},
	Short:   "Fetch and triage a pull request",
	Long: `Fetch a pull request and its changed files from GitHub and triage it.

Examples:
  triagebot pr 7 --repo acme/widgets --dry-run
  triagebot pr 7 --depth deep`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runByNumber(cmd, &prFlags, pipeline.KindPullRequest, args[0])
	},
}

func init() {
	issueFlags.register(issueCmd)
	prFlags.register(prCmd)
	RootCmd.AddCommand(issueCmd)
	RootCmd.AddCommand(prCmd)
}

func runByNumber(cmd *cobra.Command, f *triageFlags, kind pipeline.Kind, arg string) error {
	number, err := strconv.Atoi(arg)
	if err != nil || number <= 0 {
		return fmt.Errorf("invalid number %q", arg)
	}

	repository, err := resolveRepository(f.repo)
	if err != nil {
		return err
	}

	return triageRequest(cmd.Context(), f, repository, func(ctx context.Context, client *github.Client) (pipeline.Request, error) {
		if kind == pipeline.KindPullRequest {
			return client.PullRequest(ctx, number)
		}
		return client.Issue(ctx, number)
	})
}
