package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/ports"
)

const (
	defaultBrevoBaseURL = "https://api.brevo.com"
	brevoSendPath       = "/v3/sendTransacEmail"
	brevoSenderName     = "Content Moderation Service"
)

// BrevoNotifier emails the submitter a moderation alert through the
// Brevo transactional API.
type BrevoNotifier struct {
	apiKey      string
	senderEmail string
	baseURL     string
	httpClient  *http.Client
}

type BrevoOption func(*BrevoNotifier)

// WithBrevoBaseURL points the notifier at an alternate API endpoint.
func WithBrevoBaseURL(url string) BrevoOption {
	return func(n *BrevoNotifier) {
		n.baseURL = strings.TrimSuffix(url, "/")
	}
}

func WithBrevoHTTPClient(client *http.Client) BrevoOption {
	return func(n *BrevoNotifier) {
		n.httpClient = client
	}
}

func NewBrevoNotifier(apiKey, senderEmail string, opts ...BrevoOption) (*BrevoNotifier, error) {
	if apiKey == "" {
		return nil, errors.New("brevo api key is required")
	}
	if senderEmail == "" {
		return nil, errors.New("brevo sender email is required")
	}

	notifier := &BrevoNotifier{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		baseURL:     defaultBrevoBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(notifier)
	}
	return notifier, nil
}

func (n *BrevoNotifier) Channel() domainmod.Channel {
	return domainmod.ChannelEmail
}

type brevoAddress struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type brevoSendRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

func (n *BrevoNotifier) Send(ctx context.Context, request ports.ModerationRequest, result ports.ModerationResult) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "notify.brevo"),
		slog.Uint64("request_id", request.RequestID),
	)

	classification := strings.ToUpper(string(result.Classification))
	payload := brevoSendRequest{
		Sender:      brevoAddress{Name: brevoSenderName, Email: n.senderEmail},
		To:          []brevoAddress{{Name: "User", Email: request.SubmitterID}},
		Subject:     fmt.Sprintf("Content Moderation Alert - %s", classification),
		HTMLContent: renderAlertEmail(request, result),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "encode email payload")
	}

	req, err := http.NewRequestWithContext(logCtx, http.MethodPost, n.baseURL+brevoSendPath, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, "build email request")
	}
	req.Header.Set("api-key", n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(err, "send email request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.Wrapf(errors.New(strings.TrimSpace(string(detail))), "brevo returned HTTP %d", resp.StatusCode)
	}

	logging.Info(logCtx, "email alert sent", slog.String("recipient", request.SubmitterID))
	return nil
}

func renderAlertEmail(request ports.ModerationRequest, result ports.ModerationResult) string {
	classification := strings.ToUpper(string(result.Classification))
	return fmt.Sprintf(`<html>
<body>
    <h2>🚨 Content Moderation Alert</h2>
    <p><strong>Classification:</strong> %s</p>
    <p><strong>User Email:</strong> %s</p>
    <p><strong>Content Type:</strong> %s</p>
    <p><strong>Confidence:</strong> %.2f</p>
    <p><strong>Reasoning:</strong> %s</p>
    <p><strong>Request ID:</strong> %d</p>
    <p><strong>Timestamp:</strong> %s</p>
    <hr>
    <p><em>This is an automated alert from the Content Moderation Service.</em></p>
</body>
</html>`,
		classification,
		request.SubmitterID,
		request.ContentType,
		result.Confidence,
		reasoningOrDefault(result.Reasoning),
		request.RequestID,
		request.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
	)
}
