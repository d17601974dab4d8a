package ports

import (
	"context"

	"modguard/internal/domain/moderation"
)

// Delivery is the uniform per-channel outcome of a fan-out.
type Delivery struct {
	Status moderation.DeliveryStatus
	// Detail carries the error message for failed deliveries and the
	// skip reason for skipped ones.
	Detail string
}

// ChannelNotifier delivers a flagged moderation outcome to one channel.
// Only configured channels are constructed; an unconfigured channel is
// absent from the dispatcher rather than erroring at send time.
type ChannelNotifier interface {
	Channel() moderation.Channel
	Send(ctx context.Context, request ModerationRequest, result ModerationResult) error
}
