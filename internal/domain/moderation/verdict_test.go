package moderation

import (
	"strings"
	"testing"
)

func TestDecodeVerdictJSON(t *testing.T) {
	raw := `{"classification": "SPAM", "confidence": 0.9, "reasoning": "promotional content"}`

	v := DecodeVerdict(raw)
	if v.Classification != ClassificationSpam {
		t.Fatalf("unexpected classification: %s", v.Classification)
	}
	if v.Confidence != 0.9 {
		t.Fatalf("unexpected confidence: %v", v.Confidence)
	}
	if v.Reasoning != "promotional content" {
		t.Fatalf("unexpected reasoning: %q", v.Reasoning)
	}
	if v.Raw != raw {
		t.Fatalf("raw output must be preserved")
	}
}

func TestDecodeVerdictCodeFence(t *testing.T) {
	raw := "```json\n{\"classification\": \"toxic\", \"confidence\": 0.85, \"reasoning\": \"hate speech\"}\n```"

	v := DecodeVerdict(raw)
	if v.Classification != ClassificationToxic {
		t.Fatalf("unexpected classification: %s", v.Classification)
	}
	if v.Confidence != 0.85 {
		t.Fatalf("unexpected confidence: %v", v.Confidence)
	}
}

func TestDecodeVerdictClampsConfidence(t *testing.T) {
	high := DecodeVerdict(`{"classification": "spam", "confidence": 1.7}`)
	if high.Confidence != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", high.Confidence)
	}

	low := DecodeVerdict(`{"classification": "spam", "confidence": -0.3}`)
	if low.Confidence != 0.0 {
		t.Fatalf("expected clamp to 0.0, got %v", low.Confidence)
	}
}

func TestDecodeVerdictKeywordFallback(t *testing.T) {
	v := DecodeVerdict("The message is clearly HARASSMENT targeting one user.")
	if v.Classification != ClassificationHarassment {
		t.Fatalf("unexpected classification: %s", v.Classification)
	}
	if v.Confidence != 0.6 {
		t.Fatalf("unexpected heuristic confidence: %v", v.Confidence)
	}
	if !strings.Contains(v.Reasoning, "inferred") {
		t.Fatalf("unexpected reasoning: %q", v.Reasoning)
	}
}

func TestDecodeVerdictFlaggedBeatsSafeKeyword(t *testing.T) {
	v := DecodeVerdict("Not safe: this is spam.")
	if v.Classification != ClassificationSpam {
		t.Fatalf("flagged keyword must win over safe, got %s", v.Classification)
	}
}

func TestDecodeVerdictUnparseableDefaultsSafe(t *testing.T) {
	v := DecodeVerdict("I am sorry, I cannot help with that request.")
	if v.Classification != ClassificationSafe {
		t.Fatalf("unexpected classification: %s", v.Classification)
	}
	if v.Confidence != 0.5 {
		t.Fatalf("unexpected confidence: %v", v.Confidence)
	}
	if v.Reasoning != "failed to parse classifier response" {
		t.Fatalf("unexpected reasoning: %q", v.Reasoning)
	}
}

func TestDecodeVerdictUnknownLabelInJSON(t *testing.T) {
	// Valid JSON with a label outside the taxonomy falls through to the
	// keyword pass, which also finds nothing here.
	v := DecodeVerdict(`{"classification": "dubious", "confidence": 0.7}`)
	if v.Classification != ClassificationSafe || v.Confidence != 0.5 {
		t.Fatalf("expected safe fallback, got %s/%v", v.Classification, v.Confidence)
	}
}
