package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/usecase/moderation"
)

type stubModerationService struct {
	submitInput  moderation.SubmitInput
	submitResult moderation.Outcome
	submitErr    error

	analyticsUser   string
	analyticsResult moderation.Summary
	analyticsErr    error
}

func (s *stubModerationService) Submit(_ context.Context, input moderation.SubmitInput) (moderation.Outcome, error) {
	s.submitInput = input
	return s.submitResult, s.submitErr
}

func (s *stubModerationService) Analytics(_ context.Context, submitterID string) (moderation.Summary, error) {
	s.analyticsUser = submitterID
	return s.analyticsResult, s.analyticsErr
}

func performRequest(t *testing.T, svc moderationAPIService, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	handler := newModerationAPIHandler(svc, "modguard", "test")
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestModerateTextEndpoint(t *testing.T) {
	svc := &stubModerationService{
		submitResult: moderation.Outcome{
			RequestID:   1,
			SubmitterID: "a@b.com",
			ContentType: domainmod.ContentTypeText,
			Status:      domainmod.StatusCompleted,
			Result: &moderation.ResultView{
				ResultID:       1,
				Classification: domainmod.ClassificationSpam,
				Confidence:     0.9,
				Reasoning:      "promotional content",
			},
		},
	}

	recorder := performRequest(t, svc, http.MethodPost, "/api/v1/moderate/text",
		`{"email_id": "a@b.com", "text_content": "buy now"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", recorder.Code, recorder.Body.String())
	}
	if svc.submitInput.ContentType != domainmod.ContentTypeText {
		t.Fatalf("unexpected content type: %s", svc.submitInput.ContentType)
	}
	if string(svc.submitInput.Content) != "buy now" {
		t.Fatalf("unexpected content: %q", svc.submitInput.Content)
	}

	var outcome moderation.Outcome
	if err := json.Unmarshal(recorder.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if outcome.Result == nil || outcome.Result.Classification != domainmod.ClassificationSpam {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestModerateTextValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "bad email", body: `{"email_id": "not-an-email", "text_content": "x"}`},
		{name: "empty content", body: `{"email_id": "a@b.com", "text_content": ""}`},
		{name: "oversize content", body: `{"email_id": "a@b.com", "text_content": "` + strings.Repeat("a", 10001) + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := performRequest(t, &stubModerationService{}, http.MethodPost, "/api/v1/moderate/text", tc.body)
			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", recorder.Code)
			}
		})
	}
}

func TestModerateImageEndpoint(t *testing.T) {
	svc := &stubModerationService{
		submitResult: moderation.Outcome{Status: domainmod.StatusCompleted},
	}
	encoded := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47})

	recorder := performRequest(t, svc, http.MethodPost, "/api/v1/moderate/image",
		`{"email_id": "a@b.com", "image_data": "`+encoded+`"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", recorder.Code, recorder.Body.String())
	}
	if svc.submitInput.ContentType != domainmod.ContentTypeImage {
		t.Fatalf("unexpected content type: %s", svc.submitInput.ContentType)
	}
	if len(svc.submitInput.Content) != 4 {
		t.Fatalf("image must be decoded before submission, got %d bytes", len(svc.submitInput.Content))
	}
}

func TestModerateImageRejectsInvalidBase64(t *testing.T) {
	recorder := performRequest(t, &stubModerationService{}, http.MethodPost, "/api/v1/moderate/image",
		`{"email_id": "a@b.com", "image_data": "not base64!!"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestModerateSubmissionFailure(t *testing.T) {
	svc := &stubModerationService{submitErr: errors.New("disk full")}

	recorder := performRequest(t, svc, http.MethodPost, "/api/v1/moderate/text",
		`{"email_id": "a@b.com", "text_content": "anything"}`)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	var resp apiErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != "moderation failed" {
		t.Fatalf("unexpected error message: %q", resp.Error)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	svc := &stubModerationService{
		analyticsResult: moderation.Summary{
			SubmitterID:   "a@b.com",
			TotalRequests: 5,
			SafeCount:     3,
			FlaggedCount:  2,
		},
	}

	recorder := performRequest(t, svc, http.MethodGet, "/api/v1/analytics/summary?user=a@b.com", "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if svc.analyticsUser != "a@b.com" {
		t.Fatalf("unexpected user: %q", svc.analyticsUser)
	}
	var summary moderation.Summary
	if err := json.Unmarshal(recorder.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalRequests != 5 || summary.FlaggedCount != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestAnalyticsRequiresValidEmail(t *testing.T) {
	recorder := performRequest(t, &stubModerationService{}, http.MethodGet, "/api/v1/analytics/summary?user=bogus", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestHealthAndInfoEndpoints(t *testing.T) {
	recorder := performRequest(t, &stubModerationService{}, http.MethodGet, "/api/v1/health", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("health: unexpected status %d", recorder.Code)
	}

	recorder = performRequest(t, &stubModerationService{}, http.MethodGet, "/", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("info: unexpected status %d", recorder.Code)
	}
	var info map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info["service"] != "modguard" {
		t.Fatalf("unexpected service name: %q", info["service"])
	}
}
