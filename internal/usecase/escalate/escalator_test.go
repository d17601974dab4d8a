package escalate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"modguard/internal/errs"
	"modguard/internal/ports"
)

type stubTracker struct {
	issues []ports.Issue
	err    error
}

func (s *stubTracker) CreateIssue(_ context.Context, issue ports.Issue) (ports.IssueRef, error) {
	s.issues = append(s.issues, issue)
	if s.err != nil {
		return ports.IssueRef{}, s.err
	}
	return ports.IssueRef{Number: 7, URL: "https://example.test/issues/7"}, nil
}

func TestCaptureAndEscalateFilesIssue(t *testing.T) {
	tracker := &stubTracker{}
	esc := NewEscalator(tracker, "staging", nil)

	cause := errs.WithStack(errors.New("store unavailable"))
	record := esc.CaptureAndEscalate(context.Background(), cause, Context{
		SubmitterID: "a@b.com",
		ContentType: "text",
		Operation:   "moderation",
	})

	if record.EventID == "" {
		t.Fatalf("expected generated event id")
	}
	if record.Kind != "store unavailable" {
		t.Fatalf("unexpected kind: %q", record.Kind)
	}
	if record.Environment != "staging" {
		t.Fatalf("unexpected environment: %q", record.Environment)
	}
	if record.StackTrace == "" {
		t.Fatalf("expected stack trace")
	}
	if record.SubmitterID != "a@b.com" || record.ContentType != "text" {
		t.Fatalf("context not merged: %+v", record)
	}

	if len(tracker.issues) != 1 {
		t.Fatalf("expected one issue, got %d", len(tracker.issues))
	}
	issue := tracker.issues[0]
	if issue.Title != "Moderation error: store unavailable" {
		t.Fatalf("unexpected title: %q", issue.Title)
	}
	if !strings.Contains(issue.Body, "a@b.com") || !strings.Contains(issue.Body, record.EventID) {
		t.Fatalf("issue body missing context:\n%s", issue.Body)
	}
	if len(issue.Labels) != 3 {
		t.Fatalf("expected default labels, got %v", issue.Labels)
	}
}

func TestTrackerFailureIsSwallowed(t *testing.T) {
	tracker := &stubTracker{err: errors.New("github unreachable")}
	esc := NewEscalator(tracker, "", nil)

	record := esc.CaptureAndEscalate(context.Background(), errors.New("primary failure"), Context{Operation: "analytics"})
	if record.Kind != "primary failure" {
		t.Fatalf("unexpected kind: %q", record.Kind)
	}
	if len(tracker.issues) != 1 {
		t.Fatalf("tracker must still have been attempted")
	}
}

func TestNilTrackerLogsOnly(t *testing.T) {
	esc := NewEscalator(nil, "development", []string{"ops"})

	record := esc.CaptureAndEscalate(context.Background(), errors.New("boom"), Context{})
	if record.EventID == "" || record.Kind != "boom" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestCaptureStackFallback(t *testing.T) {
	esc := NewEscalator(nil, "development", nil)

	// No StackError in the chain: a fresh stack is captured best-effort.
	record := esc.CaptureAndEscalate(context.Background(), errors.New("bare error"), Context{})
	if record.StackTrace == "" {
		t.Fatalf("expected fallback stack capture")
	}
}
