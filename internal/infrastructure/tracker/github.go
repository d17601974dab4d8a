package tracker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"modguard/internal/bootstrap/logging"
	"modguard/internal/errs"
	"modguard/internal/ports"
)

// GitHubTracker files escalation issues in one repository.
type GitHubTracker struct {
	client *github.Client
	owner  string
	repo   string
}

func NewGitHubTracker(token, owner, repo string) (*GitHubTracker, error) {
	if token == "" {
		return nil, errors.New("github token is required")
	}
	if owner == "" || repo == "" {
		return nil, errors.New("github owner and repo are required")
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	))
	return &GitHubTracker{
		client: github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}, nil
}

// WithBaseURL redirects API calls, for GitHub Enterprise or tests.
func (t *GitHubTracker) WithBaseURL(baseURL string) (*GitHubTracker, error) {
	client, err := t.client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, errs.Wrap(err, "set enterprise urls")
	}
	t.client = client
	return t, nil
}

func (t *GitHubTracker) CreateIssue(ctx context.Context, issue ports.Issue) (ports.IssueRef, error) {
	if ctx == nil {
		return ports.IssueRef{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.IssueRef{}, errs.Wrap(err, "check context")
	}
	if issue.Title == "" {
		return ports.IssueRef{}, errors.New("issue title is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "tracker.github"),
		slog.String("repo", t.owner+"/"+t.repo),
	)

	request := &github.IssueRequest{
		Title: github.Ptr(issue.Title),
		Body:  github.Ptr(issue.Body),
	}
	if len(issue.Labels) > 0 {
		labels := append([]string(nil), issue.Labels...)
		request.Labels = &labels
	}

	created, _, err := t.client.Issues.Create(logCtx, t.owner, t.repo, request)
	if err != nil {
		return ports.IssueRef{}, errs.Wrap(err, "create github issue")
	}

	ref := ports.IssueRef{
		Number: created.GetNumber(),
		URL:    created.GetHTMLURL(),
	}
	logging.Info(logCtx, "escalation issue filed",
		slog.Int("issue_number", ref.Number),
		slog.String("issue_url", ref.URL),
	)
	return ref, nil
}
