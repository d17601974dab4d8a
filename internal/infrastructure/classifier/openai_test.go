package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/ports"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func newTestClassifier(t *testing.T, handler http.HandlerFunc) *OpenAIClassifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	classifier, err := NewOpenAIClassifier("test-key", "gpt-4o-mini", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	return classifier
}

func TestAnalyzeTextVerdict(t *testing.T) {
	var captured map[string]any
	classifier := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody(
			`{"classification": "SPAM", "confidence": 0.9, "reasoning": "promotional content"}`,
		))
	})

	verdict, err := classifier.Analyze(context.Background(), domainmod.ContentTypeText, []byte("buy now"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.Classification != domainmod.ClassificationSpam {
		t.Fatalf("unexpected classification: %s", verdict.Classification)
	}
	if verdict.Confidence != 0.9 {
		t.Fatalf("unexpected confidence: %v", verdict.Confidence)
	}
	if verdict.Reasoning != "promotional content" {
		t.Fatalf("unexpected reasoning: %q", verdict.Reasoning)
	}

	if captured["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %v", captured["model"])
	}
	messages, ok := captured["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected system and user message, got %v", captured["messages"])
	}
}

func TestAnalyzeImageSendsDataURL(t *testing.T) {
	var captured map[string]any
	classifier := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody(
			`{"classification": "SAFE", "confidence": 0.97, "reasoning": "nothing objectionable"}`,
		))
	})

	verdict, err := classifier.Analyze(context.Background(), domainmod.ContentTypeImage, []byte{0x89, 0x50, 0x4e, 0x47})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.Classification != domainmod.ClassificationSafe {
		t.Fatalf("unexpected classification: %s", verdict.Classification)
	}

	raw, _ := json.Marshal(captured)
	if !strings.Contains(string(raw), "data:image/png;base64,") {
		t.Fatalf("request must carry the image as a data url")
	}
}

func TestAnalyzeMalformedReplyDegradesSafe(t *testing.T) {
	classifier := newTestClassifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("I refuse to answer in JSON."))
	})

	verdict, err := classifier.Analyze(context.Background(), domainmod.ContentTypeText, []byte("anything"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.Classification != domainmod.ClassificationSafe {
		t.Fatalf("unexpected classification: %s", verdict.Classification)
	}
	if verdict.Confidence != 0.5 {
		t.Fatalf("unexpected confidence: %v", verdict.Confidence)
	}
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	classifier := newTestClassifier(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "invalid request"}}`, http.StatusBadRequest)
	})

	_, err := classifier.Analyze(context.Background(), domainmod.ContentTypeText, []byte("anything"))
	if !errors.Is(err, ports.ErrClassifierUnavailable) {
		t.Fatalf("expected classifier-unavailable, got %v", err)
	}
}

func TestAnalyzeRejectsEmptyContent(t *testing.T) {
	classifier := newTestClassifier(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})
	if _, err := classifier.Analyze(context.Background(), domainmod.ContentTypeText, nil); err == nil {
		t.Fatalf("empty content must fail")
	}
}

func TestNewOpenAIClassifierValidation(t *testing.T) {
	if _, err := NewOpenAIClassifier("", "gpt-4o-mini"); err == nil {
		t.Fatalf("missing api key must fail")
	}
	if _, err := NewOpenAIClassifier("key", ""); err == nil {
		t.Fatalf("missing model must fail")
	}
}
