package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"

	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/ports"
)

func sampleRequest() ports.ModerationRequest {
	return ports.ModerationRequest{
		RequestID:   42,
		SubmitterID: "a@b.com",
		ContentType: domainmod.ContentTypeText,
		Status:      domainmod.StatusCompleted,
		CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleResult() ports.ModerationResult {
	return ports.ModerationResult{
		ResultID:       7,
		RequestID:      42,
		Classification: domainmod.ClassificationSpam,
		Confidence:     0.9,
		Reasoning:      "promotional content",
	}
}

func TestBrevoSend(t *testing.T) {
	var captured brevoSendRequest
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/sendTransacEmail" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		apiKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId": "msg-1"}`))
	}))
	defer server.Close()

	notifier, err := NewBrevoNotifier("brevo-key", "alerts@modguard.dev", WithBrevoBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := notifier.Send(context.Background(), sampleRequest(), sampleResult()); err != nil {
		t.Fatalf("send: %v", err)
	}

	if apiKey != "brevo-key" {
		t.Fatalf("unexpected api key header: %q", apiKey)
	}
	if captured.Sender.Email != "alerts@modguard.dev" {
		t.Fatalf("unexpected sender: %+v", captured.Sender)
	}
	if len(captured.To) != 1 || captured.To[0].Email != "a@b.com" {
		t.Fatalf("unexpected recipients: %+v", captured.To)
	}
	if captured.Subject != "Content Moderation Alert - SPAM" {
		t.Fatalf("unexpected subject: %q", captured.Subject)
	}
	for _, fragment := range []string{"SPAM", "promotional content", "Request ID:</strong> 42", "2026-08-01 12:00:00 UTC"} {
		if !strings.Contains(captured.HTMLContent, fragment) {
			t.Fatalf("email body missing %q", fragment)
		}
	}
}

func TestBrevoSendUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "invalid sender"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	notifier, err := NewBrevoNotifier("brevo-key", "alerts@modguard.dev", WithBrevoBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	err = notifier.Send(context.Background(), sampleRequest(), sampleResult())
	if err == nil {
		t.Fatalf("non-201 response must fail")
	}
	if !strings.Contains(err.Error(), "HTTP 400") {
		t.Fatalf("error must carry the status: %v", err)
	}
}

func TestSlackSendPostsAttachment(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "1.0"}`))
	}))
	defer server.Close()

	notifier, err := NewSlackNotifier("xoxb-test", "C123", slack.OptionAPIURL(server.URL+"/"))
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := notifier.Send(context.Background(), sampleRequest(), sampleResult()); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got := form.Get("channel"); got != "C123" {
		t.Fatalf("unexpected channel: %q", got)
	}
	attachments := form.Get("attachments")
	var decoded []slack.Attachment
	if err := json.Unmarshal([]byte(attachments), &decoded); err != nil {
		t.Fatalf("decode attachments: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one attachment, got %d", len(decoded))
	}
	if decoded[0].Title != "🚨 Content Moderation Alert - SPAM" {
		t.Fatalf("unexpected title: %q", decoded[0].Title)
	}
	if decoded[0].Color != "warning" {
		t.Fatalf("unexpected color: %q", decoded[0].Color)
	}
	if len(decoded[0].Fields) != 6 {
		t.Fatalf("expected six fields, got %d", len(decoded[0].Fields))
	}
}

func TestSlackSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))
	defer server.Close()

	notifier, err := NewSlackNotifier("xoxb-test", "C404", slack.OptionAPIURL(server.URL+"/"))
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	err = notifier.Send(context.Background(), sampleRequest(), sampleResult())
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected channel_not_found, got %v", err)
	}
}

func TestAttachmentColors(t *testing.T) {
	cases := map[domainmod.Classification]string{
		domainmod.ClassificationSafe:          "good",
		domainmod.ClassificationToxic:         "danger",
		domainmod.ClassificationHarassment:    "danger",
		domainmod.ClassificationSpam:          "warning",
		domainmod.ClassificationInappropriate: "warning",
	}
	for classification, want := range cases {
		if got := attachmentColor(classification); got != want {
			t.Fatalf("%s: expected %q, got %q", classification, want, got)
		}
	}
}
