package ports

import (
	"context"
	"errors"
	"time"

	"modguard/internal/domain/moderation"
)

var (
	ErrRequestNotFound = errors.New("moderation request not found")
	ErrResultNotFound  = errors.New("moderation result not found")

	// ErrDuplicateFingerprint means the store's uniqueness constraint on
	// the content fingerprint rejected an insert. Callers resolve it by
	// refetching the winner's record; it is never surfaced upward.
	ErrDuplicateFingerprint = errors.New("duplicate content fingerprint")
)

type ModerationRequest struct {
	RequestID   uint64
	SubmitterID string
	ContentType moderation.ContentType
	Fingerprint string
	Status      moderation.Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ModerationRequestCreate struct {
	SubmitterID string
	ContentType moderation.ContentType
	Fingerprint string
	Status      moderation.Status
}

type ModerationResult struct {
	ResultID       uint64
	RequestID      uint64
	Classification moderation.Classification
	Confidence     float64
	Reasoning      string
	RawResponse    string
	CreatedAt      time.Time
}

type ModerationResultCreate struct {
	RequestID      uint64
	Classification moderation.Classification
	Confidence     float64
	Reasoning      string
	RawResponse    string
}

type NotificationLogCreate struct {
	RequestID    uint64
	Channel      moderation.Channel
	Status       moderation.DeliveryStatus
	ErrorMessage string
}

type ModerationReadRepository interface {
	FindRequestByFingerprint(ctx context.Context, fingerprint string) (ModerationRequest, error)
	GetRequest(ctx context.Context, requestID uint64) (ModerationRequest, error)
	GetResultByRequest(ctx context.Context, requestID uint64) (ModerationResult, error)
	CountRequestsBySubmitter(ctx context.Context, submitterID string) (int64, error)
	CountResultsBySubmitter(ctx context.Context, submitterID string, flagged bool) (int64, error)
	CountRequestsByStatus(ctx context.Context, submitterID string, status moderation.Status) (int64, error)
	ListRecentRequests(ctx context.Context, submitterID string, limit int) ([]ModerationRequest, error)
}

type ModerationRepository interface {
	ModerationReadRepository
	CreateRequest(ctx context.Context, input ModerationRequestCreate) (ModerationRequest, error)
	AttachResult(ctx context.Context, input ModerationResultCreate) (ModerationResult, error)
	SetRequestStatus(ctx context.Context, requestID uint64, status moderation.Status) error
	AppendNotificationLog(ctx context.Context, input NotificationLogCreate) error
	DeleteRequestsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
