package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/ports"
)

// SlackNotifier posts a moderation alert attachment into one channel.
type SlackNotifier struct {
	client    *slack.Client
	channelID string
}

func NewSlackNotifier(botToken, channelID string, opts ...slack.Option) (*SlackNotifier, error) {
	if botToken == "" {
		return nil, errors.New("slack bot token is required")
	}
	if channelID == "" {
		return nil, errors.New("slack channel id is required")
	}
	return &SlackNotifier{
		client:    slack.New(botToken, opts...),
		channelID: channelID,
	}, nil
}

func (n *SlackNotifier) Channel() domainmod.Channel {
	return domainmod.ChannelSlack
}

func (n *SlackNotifier) Send(ctx context.Context, request ports.ModerationRequest, result ports.ModerationResult) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "notify.slack"),
		slog.Uint64("request_id", request.RequestID),
	)

	classification := strings.ToUpper(string(result.Classification))
	attachment := slack.Attachment{
		Color: attachmentColor(result.Classification),
		Title: fmt.Sprintf("🚨 Content Moderation Alert - %s", classification),
		Fields: []slack.AttachmentField{
			{Title: "User Email", Value: request.SubmitterID, Short: true},
			{Title: "Content Type", Value: string(request.ContentType), Short: true},
			{Title: "Classification", Value: classification, Short: true},
			{Title: "Confidence", Value: fmt.Sprintf("%.2f", result.Confidence), Short: true},
			{Title: "Reasoning", Value: reasoningOrDefault(result.Reasoning), Short: false},
			{Title: "Request ID", Value: fmt.Sprintf("%d", request.RequestID), Short: true},
		},
		Footer: "Content Moderation Service",
		Ts:     jsonNumber(request.CreatedAt.Unix()),
	}

	_, _, err := n.client.PostMessageContext(logCtx, n.channelID, slack.MsgOptionAttachments(attachment))
	if err != nil {
		return errs.Wrap(err, "post slack message")
	}

	logging.Info(logCtx, "slack alert posted", slog.String("channel_id", n.channelID))
	return nil
}

func attachmentColor(classification domainmod.Classification) string {
	switch classification {
	case domainmod.ClassificationSafe:
		return "good"
	case domainmod.ClassificationToxic, domainmod.ClassificationHarassment:
		return "danger"
	default:
		return "warning"
	}
}

func jsonNumber(v int64) json.Number {
	return json.Number(strconv.FormatInt(v, 10))
}

func reasoningOrDefault(reasoning string) string {
	if reasoning == "" {
		return "No reasoning provided"
	}
	return reasoning
}
