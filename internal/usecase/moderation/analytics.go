package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
)

const (
	analyticsOperation  = "analytics"
	recentRequestsLimit = 10
)

// Summary aggregates one submitter's moderation history.
type Summary struct {
	SubmitterID    string    `json:"submitter_id"`
	TotalRequests  int64     `json:"total_requests"`
	SafeCount      int64     `json:"safe_count"`
	FlaggedCount   int64     `json:"flagged_count"`
	PendingCount   int64     `json:"pending_count"`
	RecentRequests []Outcome `json:"recent_requests"`
}

// Analytics returns the aggregate counts and the ten most recent
// requests (newest first) for one submitter. Store failures are
// escalated and propagated.
func (s *Service) Analytics(ctx context.Context, submitterID string) (Summary, error) {
	if ctx == nil {
		return Summary{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return Summary{}, errors.New("moderation repository is required")
	}

	submitterID = strings.TrimSpace(submitterID)
	if submitterID == "" {
		return Summary{}, errors.New("submitter id is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "moderation.analytics"),
		slog.String("submitter_id", submitterID),
	)

	summary := Summary{SubmitterID: submitterID}

	var err error
	if summary.TotalRequests, err = s.repo.CountRequestsBySubmitter(logCtx, submitterID); err != nil {
		return Summary{}, s.escalateAnalytics(logCtx, errs.Wrap(err, "count requests"), submitterID)
	}
	if summary.SafeCount, err = s.repo.CountResultsBySubmitter(logCtx, submitterID, false); err != nil {
		return Summary{}, s.escalateAnalytics(logCtx, errs.Wrap(err, "count safe results"), submitterID)
	}
	if summary.FlaggedCount, err = s.repo.CountResultsBySubmitter(logCtx, submitterID, true); err != nil {
		return Summary{}, s.escalateAnalytics(logCtx, errs.Wrap(err, "count flagged results"), submitterID)
	}
	if summary.PendingCount, err = s.repo.CountRequestsByStatus(logCtx, submitterID, domainmod.StatusPending); err != nil {
		return Summary{}, s.escalateAnalytics(logCtx, errs.Wrap(err, "count pending requests"), submitterID)
	}

	recent, err := s.repo.ListRecentRequests(logCtx, submitterID, recentRequestsLimit)
	if err != nil {
		return Summary{}, s.escalateAnalytics(logCtx, errs.Wrap(err, "list recent requests"), submitterID)
	}

	summary.RecentRequests = make([]Outcome, 0, len(recent))
	for _, request := range recent {
		outcome, err := s.materialize(logCtx, request)
		if err != nil {
			return Summary{}, s.escalateAnalytics(logCtx, errs.Wrap(err, "materialize recent request"), submitterID)
		}
		summary.RecentRequests = append(summary.RecentRequests, outcome)
	}

	return summary, nil
}

func (s *Service) escalateAnalytics(ctx context.Context, cause error, submitterID string) error {
	return s.escalateStore(ctx, cause, submitterID, "", analyticsOperation)
}
