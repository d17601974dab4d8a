package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/ports"
)

const submitOperation = "moderation"

type SubmitInput struct {
	SubmitterID string
	ContentType domainmod.ContentType
	Content     []byte
}

// Submit runs one content submission through the full lifecycle. A given
// fingerprint is classified at most once: resubmissions and concurrent
// duplicates observe the first request's record. Classifier failures
// degrade to a conservative safe result; only store failures fail the
// call, and those are escalated before propagating.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Outcome, error) {
	if ctx == nil {
		return Outcome{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil || s.uow == nil {
		return Outcome{}, errors.New("moderation repository and unit of work are required")
	}

	submitterID := strings.TrimSpace(input.SubmitterID)
	if submitterID == "" {
		return Outcome{}, errors.New("submitter id is required")
	}
	if len(input.Content) == 0 {
		return Outcome{}, errors.New("content is required")
	}
	if input.ContentType != domainmod.ContentTypeText && input.ContentType != domainmod.ContentTypeImage {
		return Outcome{}, fmt.Errorf("unsupported content type %q", input.ContentType)
	}

	fingerprint := domainmod.Fingerprint(input.Content)
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "moderation.submit"),
		slog.String("submitter_id", submitterID),
		slog.String("content_type", string(input.ContentType)),
	)

	// Dedup is checked before any mutation.
	existing, err := s.repo.FindRequestByFingerprint(logCtx, fingerprint)
	if err == nil {
		logging.Info(logCtx, "duplicate content, returning existing outcome",
			slog.Uint64("request_id", existing.RequestID))
		return s.materializeOrEscalate(logCtx, existing, submitterID, input.ContentType)
	}
	if !errors.Is(err, ports.ErrRequestNotFound) {
		return Outcome{}, s.escalateStore(logCtx, errs.Wrap(err, "dedup lookup"), submitterID, input.ContentType, submitOperation)
	}

	request, err := s.repo.CreateRequest(logCtx, ports.ModerationRequestCreate{
		SubmitterID: submitterID,
		ContentType: input.ContentType,
		Fingerprint: fingerprint,
		Status:      domainmod.StatusProcessing,
	})
	if errors.Is(err, ports.ErrDuplicateFingerprint) {
		// Lost the race on the uniqueness constraint: observe the winner.
		winner, werr := s.repo.FindRequestByFingerprint(logCtx, fingerprint)
		if werr != nil {
			return Outcome{}, s.escalateStore(logCtx, errs.Wrap(werr, "refetch after duplicate"), submitterID, input.ContentType, submitOperation)
		}
		logging.Info(logCtx, "lost dedup race, returning winner's outcome",
			slog.Uint64("request_id", winner.RequestID))
		return s.materializeOrEscalate(logCtx, winner, submitterID, input.ContentType)
	}
	if err != nil {
		// The insert never succeeded, so there is no row to mark FAILED.
		return Outcome{}, s.escalateStore(logCtx, errs.Wrap(err, "create request"), submitterID, input.ContentType, submitOperation)
	}

	logging.Info(logCtx, "moderation request created", slog.Uint64("request_id", request.RequestID))

	verdict := s.classify(logCtx, input)

	var result ports.ModerationResult
	txErr := s.uow.WithTx(logCtx, func(txCtx context.Context) error {
		attached, err := s.repo.AttachResult(txCtx, ports.ModerationResultCreate{
			RequestID:      request.RequestID,
			Classification: verdict.Classification,
			Confidence:     verdict.Confidence,
			Reasoning:      verdict.Reasoning,
			RawResponse:    verdict.Raw,
		})
		if err != nil {
			return errs.Wrap(err, "attach result")
		}
		if err := s.repo.SetRequestStatus(txCtx, request.RequestID, domainmod.StatusCompleted); err != nil {
			return errs.Wrap(err, "complete request")
		}
		result = attached
		return nil
	})
	if txErr != nil {
		s.markFailedBestEffort(logCtx, request.RequestID)
		return Outcome{}, s.escalateStore(logCtx, errs.Wrap(txErr, "persist result"), submitterID, input.ContentType, submitOperation)
	}
	request.Status = domainmod.StatusCompleted

	logging.Info(logCtx, "moderation completed",
		slog.Uint64("request_id", request.RequestID),
		slog.String("classification", string(result.Classification)),
		slog.Float64("confidence", result.Confidence),
	)

	if err := s.dispatchNotifications(logCtx, request, result); err != nil {
		return Outcome{}, s.escalateStore(logCtx, err, submitterID, input.ContentType, submitOperation)
	}

	return s.materializeOrEscalate(logCtx, request, submitterID, input.ContentType)
}

// classify invokes the external classifier and absorbs its failures:
// a transport error or timeout degrades to an assumed-safe verdict so
// the submission itself never fails on the AI path.
func (s *Service) classify(ctx context.Context, input SubmitInput) domainmod.Verdict {
	if s.classifier == nil {
		return safeFallback("error during analysis: classifier not configured")
	}

	verdict, err := s.classifier.Analyze(ctx, input.ContentType, input.Content)
	if err != nil {
		logging.Warn(ctx, "classifier failure, assuming safe", slog.Any("err", errs.Loggable(err)))
		return safeFallback(fmt.Sprintf("error during analysis: %v", err))
	}

	verdict.Confidence = domainmod.ClampConfidence(verdict.Confidence)
	return verdict
}

func safeFallback(reasoning string) domainmod.Verdict {
	return domainmod.Verdict{
		Classification: domainmod.ClassificationSafe,
		Confidence:     0.5,
		Reasoning:      reasoning,
	}
}

// dispatchNotifications fans out to the configured channels and logs one
// entry per attempted channel, regardless of each channel's outcome. The
// safe-content skip lives inside the dispatcher, per channel, so safe
// results still produce SKIPPED log entries without any outbound call.
func (s *Service) dispatchNotifications(ctx context.Context, request ports.ModerationRequest, result ports.ModerationResult) error {
	if s.dispatcher == nil {
		return nil
	}

	outcomes := s.dispatcher.FanOut(ctx, request, result)
	for channel, delivery := range outcomes {
		if err := s.repo.AppendNotificationLog(ctx, ports.NotificationLogCreate{
			RequestID:    request.RequestID,
			Channel:      channel,
			Status:       delivery.Status,
			ErrorMessage: delivery.Detail,
		}); err != nil {
			return errs.Wrapf(err, "log notification for channel %s", channel)
		}
	}
	return nil
}

func (s *Service) markFailedBestEffort(ctx context.Context, requestID uint64) {
	if err := s.repo.SetRequestStatus(ctx, requestID, domainmod.StatusFailed); err != nil {
		logging.Warn(ctx, "could not mark request failed",
			slog.Uint64("request_id", requestID),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func (s *Service) materializeOrEscalate(ctx context.Context, request ports.ModerationRequest, submitterID string, contentType domainmod.ContentType) (Outcome, error) {
	outcome, err := s.materialize(ctx, request)
	if err != nil {
		return Outcome{}, s.escalateStore(ctx, errs.Wrap(err, "materialize outcome"), submitterID, contentType, submitOperation)
	}
	return outcome, nil
}
