package classifier

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/ports"
)

const (
	textSystemPrompt = `You are a content moderation expert. Analyze the given text and classify it into one of these categories:
- SAFE: Appropriate content that follows community guidelines
- TOXIC: Content that is harmful, offensive, or promotes hate speech
- SPAM: Unwanted promotional content or repetitive messages
- HARASSMENT: Content that targets individuals with abuse or threats
- INAPPROPRIATE: Content that is unsuitable for general audiences

Provide your response in JSON format with:
- classification: one of the above categories
- confidence: confidence score (0.0 to 1.0)
- reasoning: brief explanation for your classification`

	imageSystemPrompt = `You are an image content moderation expert. Analyze the given image and classify it into one of these categories:
- SAFE: Appropriate image that follows community guidelines
- TOXIC: Image that is harmful, offensive, or promotes hate speech
- SPAM: Unwanted promotional content or repetitive images
- HARASSMENT: Image that targets individuals with abuse or threats
- INAPPROPRIATE: Image that is unsuitable for general audiences

Provide your response in JSON format with:
- classification: one of the above categories
- confidence: confidence score (0.0 to 1.0)
- reasoning: brief explanation for your classification`

	// Low temperature keeps classifications stable across retries.
	classifierTemperature = 0.1
	classifierMaxTokens   = 500

	requestTimeout = 30 * time.Second
)

// OpenAIClassifier asks a chat-completion model for a moderation verdict.
// Responses are decoded leniently: a malformed reply degrades to a safe
// verdict instead of failing the request.
type OpenAIClassifier struct {
	client openai.Client
	model  string
}

type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	baseURL string
}

// WithBaseURL points the classifier at an alternate API endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) {
		o.baseURL = url
	}
}

func NewOpenAIClassifier(apiKey, model string, opts ...OpenAIOption) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("classifier api key is required")
	}
	if model == "" {
		return nil, errors.New("classifier model is required")
	}

	var options openAIOptions
	for _, opt := range opts {
		opt(&options)
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(requestTimeout),
	}
	if options.baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(options.baseURL))
	}

	return &OpenAIClassifier{
		client: openai.NewClient(requestOpts...),
		model:  model,
	}, nil
}

func (c *OpenAIClassifier) Analyze(ctx context.Context, contentType domainmod.ContentType, content []byte) (domainmod.Verdict, error) {
	if ctx == nil {
		return domainmod.Verdict{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return domainmod.Verdict{}, errs.Wrap(err, "check context")
	}
	if len(content) == 0 {
		return domainmod.Verdict{}, errors.New("content is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "classifier.openai"),
		slog.String("content_type", string(contentType)),
		slog.String("model", c.model),
	)

	var messages []openai.ChatCompletionMessageParamUnion
	switch contentType {
	case domainmod.ContentTypeText:
		messages = []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(textSystemPrompt),
			openai.UserMessage(fmt.Sprintf("Please analyze this text for content moderation:\n\n%s", content)),
		}
	case domainmod.ContentTypeImage:
		dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(content)
		messages = []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(imageSystemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Please analyze this image for content moderation."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		}
	default:
		return domainmod.Verdict{}, fmt.Errorf("unsupported content type: %s", contentType)
	}

	completion, err := c.client.Chat.Completions.New(logCtx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(classifierTemperature),
		MaxTokens:   openai.Int(classifierMaxTokens),
	})
	if err != nil {
		return domainmod.Verdict{}, errs.Wrap(errors.Join(ports.ErrClassifierUnavailable, err), "chat completion")
	}
	if len(completion.Choices) == 0 {
		return domainmod.Verdict{}, errs.Wrap(ports.ErrClassifierUnavailable, "completion returned no choices")
	}

	raw := completion.Choices[0].Message.Content
	verdict := domainmod.DecodeVerdict(raw)

	logging.Info(logCtx, "content analyzed",
		slog.String("classification", string(verdict.Classification)),
		slog.Float64("confidence", verdict.Confidence),
	)
	return verdict, nil
}
