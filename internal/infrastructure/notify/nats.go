package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/ports"
)

const defaultModerationSubject = "moderation.flagged"

// NATSNotifier publishes flagged moderation events for downstream
// consumers. The event carries the verdict, never the content itself.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	if subject == "" {
		subject = defaultModerationSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("modguard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errs.Wrap(err, "connect to nats")
	}
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

func (n *NATSNotifier) Channel() domainmod.Channel {
	return domainmod.ChannelNATS
}

// Close drains the connection so queued messages still go out.
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}

type moderationEvent struct {
	RequestID      uint64    `json:"request_id"`
	SubmitterID    string    `json:"submitter_id"`
	ContentType    string    `json:"content_type"`
	Classification string    `json:"classification"`
	Confidence     float64   `json:"confidence"`
	Reasoning      string    `json:"reasoning"`
	CreatedAt      time.Time `json:"created_at"`
}

func (n *NATSNotifier) Send(ctx context.Context, request ports.ModerationRequest, result ports.ModerationResult) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "notify.nats"),
		slog.Uint64("request_id", request.RequestID),
	)

	payload, err := json.Marshal(moderationEvent{
		RequestID:      request.RequestID,
		SubmitterID:    request.SubmitterID,
		ContentType:    string(request.ContentType),
		Classification: string(result.Classification),
		Confidence:     result.Confidence,
		Reasoning:      result.Reasoning,
		CreatedAt:      request.CreatedAt,
	})
	if err != nil {
		return errs.Wrap(err, "encode moderation event")
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return errs.Wrap(err, "publish moderation event")
	}
	if err := n.conn.FlushWithContext(logCtx); err != nil {
		return errs.Wrap(err, "flush moderation event")
	}

	logging.Info(logCtx, "moderation event published", slog.String("subject", n.subject))
	return nil
}
