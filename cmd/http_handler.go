package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"modguard/internal/bootstrap/logging"
	domainmod "modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/usecase/moderation"
)

const maxTextContentLength = 10000

type moderationAPIService interface {
	Submit(ctx context.Context, input moderation.SubmitInput) (moderation.Outcome, error)
	Analytics(ctx context.Context, submitterID string) (moderation.Summary, error)
}

type moderationAPIHandler struct {
	svc     moderationAPIService
	appName string
	appEnv  string
}

type textModerationRequest struct {
	EmailID     string `json:"email_id"`
	TextContent string `json:"text_content"`
}

type imageModerationRequest struct {
	EmailID   string `json:"email_id"`
	ImageData string `json:"image_data"`
}

type apiErrorResponse struct {
	Error     string    `json:"error"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newModerationAPIHandler(svc moderationAPIService, appName, appEnv string) http.Handler {
	h := &moderationAPIHandler{
		svc:     svc,
		appName: appName,
		appEnv:  appEnv,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", h.handleInfo)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/moderate/text", h.handleModerateText)
		r.Post("/moderate/image", h.handleModerateImage)
		r.Get("/analytics/summary", h.handleAnalytics)
		r.Get("/health", h.handleHealth)
	})
	return r
}

func (h *moderationAPIHandler) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":     h.appName,
		"environment": h.appEnv,
		"status":      "running",
	})
}

func (h *moderationAPIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *moderationAPIHandler) handleModerateText(w http.ResponseWriter, r *http.Request) {
	var req textModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !validEmail(req.EmailID) {
		writeAPIError(w, http.StatusBadRequest, "invalid email format", "")
		return
	}
	if len(req.TextContent) == 0 || len(req.TextContent) > maxTextContentLength {
		writeAPIError(w, http.StatusBadRequest, "text content must be between 1 and 10000 characters", "")
		return
	}

	h.submit(w, r, moderation.SubmitInput{
		SubmitterID: req.EmailID,
		ContentType: domainmod.ContentTypeText,
		Content:     []byte(req.TextContent),
	})
}

func (h *moderationAPIHandler) handleModerateImage(w http.ResponseWriter, r *http.Request) {
	var req imageModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !validEmail(req.EmailID) {
		writeAPIError(w, http.StatusBadRequest, "invalid email format", "")
		return
	}
	imageBytes, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil || len(imageBytes) == 0 {
		writeAPIError(w, http.StatusBadRequest, "image_data must be base64 encoded", "")
		return
	}

	h.submit(w, r, moderation.SubmitInput{
		SubmitterID: req.EmailID,
		ContentType: domainmod.ContentTypeImage,
		Content:     imageBytes,
	})
}

func (h *moderationAPIHandler) submit(w http.ResponseWriter, r *http.Request, input moderation.SubmitInput) {
	ctx := logging.WithAttrs(r.Context(),
		slog.String("component", "api.moderate"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	outcome, err := h.svc.Submit(ctx, input)
	if err != nil {
		logging.Error(ctx, "moderation failed", slog.Any("err", errs.Loggable(err)))
		writeAPIError(w, http.StatusInternalServerError, "moderation failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *moderationAPIHandler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if !validEmail(user) {
		writeAPIError(w, http.StatusBadRequest, "invalid email format", "")
		return
	}

	ctx := logging.WithAttrs(r.Context(),
		slog.String("component", "api.analytics"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	summary, err := h.svc.Analytics(ctx, user)
	if err != nil {
		logging.Error(ctx, "analytics failed", slog.Any("err", errs.Loggable(err)))
		writeAPIError(w, http.StatusInternalServerError, "analytics retrieval failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func validEmail(email string) bool {
	return email != "" && strings.Contains(email, "@") && strings.Contains(email, ".")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, apiErrorResponse{
		Error:     message,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
