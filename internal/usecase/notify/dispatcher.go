package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/ports"
)

const defaultChannelTimeout = 10 * time.Second

// skip reason reported for every channel when content is safe.
const safeSkipReason = "content is safe"

// Dispatcher fans a flagged moderation outcome out to the configured
// channels. Channels are fully isolated from each other: one channel's
// error or panic never prevents the remaining attempts and never raises
// out of FanOut.
type Dispatcher struct {
	notifiers []ports.ChannelNotifier
	timeout   time.Duration
}

func NewDispatcher(notifiers []ports.ChannelNotifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultChannelTimeout
	}
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   timeout,
	}
}

// Channels returns the configured channel names, used for logging one
// outcome row per attempted channel.
func (d *Dispatcher) Channels() []domainmod.Channel {
	out := make([]domainmod.Channel, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		out = append(out, n.Channel())
	}
	return out
}

func (d *Dispatcher) FanOut(ctx context.Context, request ports.ModerationRequest, result ports.ModerationResult) map[domainmod.Channel]ports.Delivery {
	outcomes := make(map[domainmod.Channel]ports.Delivery, len(d.notifiers))
	for _, notifier := range d.notifiers {
		outcomes[notifier.Channel()] = d.deliver(ctx, notifier, request, result)
	}
	return outcomes
}

// deliver applies the safe-content skip per channel, so a channel added
// later inherits the rule without the dispatcher knowing about it.
func (d *Dispatcher) deliver(ctx context.Context, notifier ports.ChannelNotifier, request ports.ModerationRequest, result ports.ModerationResult) (delivery ports.Delivery) {
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "notify.dispatcher"),
		slog.String("channel", string(notifier.Channel())),
		slog.Uint64("request_id", request.RequestID),
	)

	defer func() {
		if r := recover(); r != nil {
			logging.Error(logCtx, "channel adapter panicked", slog.Any("panic", r))
			delivery = ports.Delivery{
				Status: domainmod.DeliveryFailed,
				Detail: fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	if !result.Classification.Flagged() {
		return ports.Delivery{
			Status: domainmod.DeliverySkipped,
			Detail: safeSkipReason,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := notifier.Send(callCtx, request, result); err != nil {
		logging.Warn(logCtx, "channel delivery failed", slog.Any("err", errs.Loggable(err)))
		return ports.Delivery{
			Status: domainmod.DeliveryFailed,
			Detail: err.Error(),
		}
	}

	logging.Info(logCtx, "channel delivery sent")
	return ports.Delivery{Status: domainmod.DeliverySent}
}
