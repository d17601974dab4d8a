package escalate

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"modguard/internal/bootstrap/logging"
	"modguard/internal/errs"
	"modguard/internal/ports"
)

// Context carries the caller-side facts merged into an escalation record.
type Context struct {
	SubmitterID string
	ContentType string
	Operation   string
}

// Record is the structured form of one captured failure.
type Record struct {
	EventID     string
	Kind        string
	Message     string
	Timestamp   time.Time
	Environment string
	StackTrace  string
	SubmitterID string
	ContentType string
	Operation   string
}

const trackerTimeout = 10 * time.Second

// Escalator converts caught failures into structured records and files
// them with an external issue tracker. Filing is best effort in both
// directions: a nil tracker only logs, and tracker failures are swallowed
// so escalation can never mask the error being escalated.
type Escalator struct {
	tracker     ports.IssueTracker
	environment string
	labels      []string
}

func NewEscalator(tracker ports.IssueTracker, environment string, labels []string) *Escalator {
	if environment == "" {
		environment = "development"
	}
	if len(labels) == 0 {
		labels = []string{"bug", "escalation", "content-moderation"}
	}
	return &Escalator{
		tracker:     tracker,
		environment: environment,
		labels:      labels,
	}
}

// CaptureAndEscalate builds the record, reports it to Sentry when a hub
// is configured, and delegates issue creation. It never returns an error:
// the caller re-raises the original failure, not anything that happened
// here.
func (e *Escalator) CaptureAndEscalate(ctx context.Context, cause error, ec Context) Record {
	record := e.capture(cause, ec)

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "escalate"),
		slog.String("event_id", record.EventID),
		slog.String("operation", record.Operation),
	)
	logging.Error(logCtx, "failure captured for escalation",
		slog.String("kind", record.Kind),
		slog.Any("err", errs.Loggable(cause)),
	)

	e.reportToSentry(cause, record)

	if e.tracker == nil {
		logging.Warn(logCtx, "issue tracker not configured, escalation logged only")
		return record
	}

	// Detach from the caller's deadline: the original request may already
	// be failing or canceled, and escalation should still get its chance.
	trackerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trackerTimeout)
	defer cancel()

	ref, err := e.tracker.CreateIssue(trackerCtx, ports.Issue{
		Title:  fmt.Sprintf("Moderation error: %s", record.Kind),
		Body:   renderIssueBody(record),
		Labels: e.labels,
	})
	if err != nil {
		logging.Warn(logCtx, "issue creation failed, swallowing", slog.Any("err", errs.Loggable(err)))
		return record
	}

	logging.Info(logCtx, "escalation issue created",
		slog.Int("issue_number", ref.Number),
		slog.String("issue_url", ref.URL),
	)
	return record
}

func (e *Escalator) capture(cause error, ec Context) Record {
	message := "no message"
	if cause != nil {
		message = cause.Error()
	}

	stack := errs.StackText(cause)
	if stack == "" {
		stack = string(debug.Stack())
	}

	return Record{
		EventID:     uuid.NewString(),
		Kind:        errs.Name(cause),
		Message:     message,
		Timestamp:   time.Now().UTC(),
		Environment: e.environment,
		StackTrace:  stack,
		SubmitterID: ec.SubmitterID,
		ContentType: ec.ContentType,
		Operation:   ec.Operation,
	}
}

// reportToSentry is a no-op unless sentry.Init ran at bootstrap.
func (e *Escalator) reportToSentry(cause error, record Record) {
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil || cause == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("operation", record.Operation)
		scope.SetTag("environment", record.Environment)
		scope.SetExtra("event_id", record.EventID)
		scope.SetExtra("submitter_id", record.SubmitterID)
		scope.SetExtra("content_type", record.ContentType)
		hub.CaptureException(cause)
	})
}

func renderIssueBody(record Record) string {
	var b strings.Builder

	b.WriteString("## Escalated failure\n\n")
	fmt.Fprintf(&b, "**Error kind:** %s\n", record.Kind)
	fmt.Fprintf(&b, "**Error message:** %s\n", record.Message)
	fmt.Fprintf(&b, "**Timestamp:** %s\n", record.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Environment:** %s\n", record.Environment)
	fmt.Fprintf(&b, "**Event ID:** %s\n", record.EventID)

	b.WriteString("\n### Stack trace\n```\n")
	b.WriteString(strings.TrimSpace(record.StackTrace))
	b.WriteString("\n```\n")

	b.WriteString("\n### Context\n")
	fmt.Fprintf(&b, "- **Submitter:** %s\n", valueOrNA(record.SubmitterID))
	fmt.Fprintf(&b, "- **Content type:** %s\n", valueOrNA(record.ContentType))
	fmt.Fprintf(&b, "- **Operation:** %s\n", valueOrNA(record.Operation))

	b.WriteString("\n---\n*Filed automatically by the moderation service.*\n")
	return b.String()
}

func valueOrNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "n/a"
	}
	return v
}
