package moderation

import (
	"context"
	"errors"
	"time"

	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/ports"
)

// ResultView is the caller-facing projection of a persisted result.
type ResultView struct {
	ResultID       uint64                   `json:"id"`
	Classification domainmod.Classification `json:"classification"`
	Confidence     float64                  `json:"confidence"`
	Reasoning      string                   `json:"reasoning,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

// Outcome is the materialized state of one moderation request: the
// request metadata plus its result, if one has been attached.
type Outcome struct {
	RequestID   uint64                `json:"id"`
	SubmitterID string                `json:"submitter_id"`
	ContentType domainmod.ContentType `json:"content_type"`
	Status      domainmod.Status      `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	Result      *ResultView           `json:"result,omitempty"`
}

// materialize reads the request's current outcome. A missing result is
// not an error: a concurrently processing request simply has none yet.
func (s *Service) materialize(ctx context.Context, request ports.ModerationRequest) (Outcome, error) {
	result, err := s.repo.GetResultByRequest(ctx, request.RequestID)
	if err != nil {
		if errors.Is(err, ports.ErrResultNotFound) {
			return outcomeFrom(request, nil), nil
		}
		return Outcome{}, err
	}
	return outcomeFrom(request, &result), nil
}

func outcomeFrom(request ports.ModerationRequest, result *ports.ModerationResult) Outcome {
	outcome := Outcome{
		RequestID:   request.RequestID,
		SubmitterID: request.SubmitterID,
		ContentType: request.ContentType,
		Status:      request.Status,
		CreatedAt:   request.CreatedAt,
	}
	if result != nil {
		outcome.Result = &ResultView{
			ResultID:       result.ResultID,
			Classification: result.Classification,
			Confidence:     result.Confidence,
			Reasoning:      result.Reasoning,
			CreatedAt:      result.CreatedAt,
		}
	}
	return outcome
}
