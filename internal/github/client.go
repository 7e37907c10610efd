// Package github reads triage context from and applies triage actions to a
// GitHub repository.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/pthm/triagebot/internal/diffsummary"
	"github.com/pthm/triagebot/internal/parser"
	"github.com/pthm/triagebot/internal/pipeline"
	"github.com/pthm/triagebot/internal/version"
)

// maxFiles bounds how many PR files are listed
const maxFiles = 300

// Options configures a Client
type Options struct {
	Token          string
	PinnedLabel    string
	ReadmeMaxChars int
	BaseURL        string // API root, for GitHub Enterprise or tests
	HTTPClient     *http.Client
}

// Client is a repository-scoped GitHub API client
type Client struct {
	gh             *gh.Client
	owner          string
	repo           string
	pinnedLabel    string
	readmeMaxChars int
}

// ParseRepository splits "owner/name"
func ParseRepository(s string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return parts[0], parts[1], nil
}

// NewClient creates a client for repository ("owner/name")
func NewClient(repository string, opts Options) (*Client, error) {
	owner, repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}

	client := gh.NewClient(opts.HTTPClient)
	client.UserAgent = version.UserAgent()
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{
		gh:             client,
		owner:          owner,
		repo:           repo,
		pinnedLabel:    opts.PinnedLabel,
		readmeMaxChars: opts.ReadmeMaxChars,
	}, nil
}

// Repository returns "owner/name"
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// Issue fetches an issue as a triage request
func (c *Client) Issue(ctx context.Context, number int) (pipeline.Request, error) {
	issue, _, err := c.gh.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("failed to get issue #%d: %w", number, err)
	}
	if issue.IsPullRequest() {
		return pipeline.Request{}, fmt.Errorf("#%d is a pull request", number)
	}
	return pipeline.Request{
		Kind:   pipeline.KindIssue,
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		Author: issue.GetUser().GetLogin(),
	}, nil
}

// PullRequest fetches a pull request as a triage request
func (c *Client) PullRequest(ctx context.Context, number int) (pipeline.Request, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}
	return pipeline.Request{
		Kind:   pipeline.KindPullRequest,
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		Author: pr.GetUser().GetLogin(),
	}, nil
}

// Readme returns the repository README trimmed to whole sections. A
// repository without a README yields "".
func (c *Client) Readme(ctx context.Context) (string, error) {
	readme, _, err := c.gh.Repositories.GetReadme(ctx, c.owner, c.repo, nil)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get README: %w", err)
	}

	content, err := readme.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode README: %w", err)
	}
	return parser.Bound(content, c.readmeMaxChars), nil
}

// PinnedContent concatenates open issues carrying the pinned label. No
// label configured yields "".
func (c *Client) PinnedContent(ctx context.Context) (string, error) {
	if c.pinnedLabel == "" {
		return "", nil
	}

	issues, _, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, &gh.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{c.pinnedLabel},
		ListOptions: gh.ListOptions{PerPage: 10},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list pinned issues: %w", err)
	}

	var blocks []string
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("## #%d %s\n\n%s", issue.GetNumber(), issue.GetTitle(), strings.TrimSpace(issue.GetBody())))
	}
	return parser.Bound(strings.Join(blocks, "\n\n"), c.readmeMaxChars), nil
}

// PullRequestFiles lists the changed files of a pull request
func (c *Client) PullRequestFiles(ctx context.Context, number int) ([]diffsummary.FileChange, error) {
	var files []diffsummary.FileChange
	opts := &gh.ListOptions{PerPage: 100}

	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list files of #%d: %w", number, err)
		}
		for _, f := range page {
			files = append(files, diffsummary.FileChange{
				Filename:  f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Patch:     f.GetPatch(),
			})
		}
		if resp.NextPage == 0 || len(files) >= maxFiles {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

func isNotFound(err error) bool {
	var errResp *gh.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}
