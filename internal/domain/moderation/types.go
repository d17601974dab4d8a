package moderation

import (
	"fmt"
	"strings"
)

// ContentType identifies what kind of payload a submission carries.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
)

// Status is the lifecycle state of a moderation request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Classification is one of the five fixed moderation labels.
type Classification string

const (
	ClassificationSafe          Classification = "safe"
	ClassificationToxic         Classification = "toxic"
	ClassificationSpam          Classification = "spam"
	ClassificationHarassment    Classification = "harassment"
	ClassificationInappropriate Classification = "inappropriate"
)

// Channel names a notification delivery target.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSlack Channel = "slack"
	ChannelNATS  Channel = "nats"
)

// DeliveryStatus records the outcome of one channel attempt.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

var classifications = map[Classification]struct{}{
	ClassificationSafe:          {},
	ClassificationToxic:         {},
	ClassificationSpam:          {},
	ClassificationHarassment:    {},
	ClassificationInappropriate: {},
}

// ParseContentType accepts the wire spelling of a content type.
func ParseContentType(raw string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(raw))) {
	case ContentTypeText:
		return ContentTypeText, nil
	case ContentTypeImage:
		return ContentTypeImage, nil
	default:
		return "", fmt.Errorf("unsupported content type %q", raw)
	}
}

// ParseClassification accepts any casing of the five labels.
func ParseClassification(raw string) (Classification, bool) {
	c := Classification(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := classifications[c]; !ok {
		return "", false
	}
	return c, true
}

// Flagged reports whether a classification requires notification fan-out.
func (c Classification) Flagged() bool {
	return c != ClassificationSafe
}
