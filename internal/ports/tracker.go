package ports

import "context"

type Issue struct {
	Title  string
	Body   string
	Labels []string
}

type IssueRef struct {
	Number int
	URL    string
}

// IssueTracker files an escalation with an external tracking system.
// Delivery is best effort: callers log and swallow its errors so that
// escalation can never replace the failure being escalated.
type IssueTracker interface {
	CreateIssue(ctx context.Context, issue Issue) (IssueRef, error)
}
