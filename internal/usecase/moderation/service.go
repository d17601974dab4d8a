package moderation

import (
	"context"

	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/ports"
	"modguard/internal/usecase/escalate"
)

// Dispatcher fans a flagged outcome out to notification channels.
// Implemented by notify.Dispatcher; narrowed here so tests can stub it.
type Dispatcher interface {
	FanOut(ctx context.Context, request ports.ModerationRequest, result ports.ModerationResult) map[domainmod.Channel]ports.Delivery
}

// Escalator captures a failure into a structured record and files it
// externally on a best-effort basis.
type Escalator interface {
	CaptureAndEscalate(ctx context.Context, cause error, ec escalate.Context) escalate.Record
}

// Service drives the moderation request lifecycle: dedup lookup,
// classifier invocation, result persistence, notification fan-out, and
// escalation of unexpected failures.
type Service struct {
	repo       ports.ModerationRepository
	uow        ports.UnitOfWork
	classifier ports.Classifier
	dispatcher Dispatcher
	escalator  Escalator
}

func NewService(
	repo ports.ModerationRepository,
	uow ports.UnitOfWork,
	classifier ports.Classifier,
	dispatcher Dispatcher,
	escalator Escalator,
) *Service {
	return &Service{
		repo:       repo,
		uow:        uow,
		classifier: classifier,
		dispatcher: dispatcher,
		escalator:  escalator,
	}
}

// escalateStore routes a store-layer failure to the escalator and returns
// the (stack-annotated) error for propagation. Escalation is a side
// effect here, never a substitute for failing the call.
func (s *Service) escalateStore(ctx context.Context, cause error, submitterID string, contentType domainmod.ContentType, operation string) error {
	cause = errs.WithStack(cause)
	if s.escalator != nil {
		s.escalator.CaptureAndEscalate(ctx, cause, escalate.Context{
			SubmitterID: submitterID,
			ContentType: string(contentType),
			Operation:   operation,
		})
	}
	return cause
}
