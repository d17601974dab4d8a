package moderation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"modguard/internal/bootstrap/logging"
	"modguard/internal/errs"
)

const cleanupOperation = "cleanup"

// PurgeOlderThan deletes requests created before now-retention, together
// with their results and notification logs, in one transaction. Returns
// the number of purged requests.
func (s *Service) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}
	if s.repo == nil || s.uow == nil {
		return 0, errors.New("moderation repository and unit of work are required")
	}
	if retention <= 0 {
		return 0, errors.New("retention must be positive")
	}

	cutoff := time.Now().UTC().Add(-retention)
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "moderation.cleanup"),
		slog.Time("cutoff", cutoff),
	)

	var purged int64
	err := s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		n, err := s.repo.DeleteRequestsBefore(txCtx, cutoff)
		if err != nil {
			return err
		}
		purged = n
		return nil
	})
	if err != nil {
		return 0, s.escalateStore(logCtx, errs.Wrap(err, "purge aged requests"), "", "", cleanupOperation)
	}

	logging.Info(logCtx, "cleanup completed", slog.Int64("purged_requests", purged))
	return purged, nil
}
