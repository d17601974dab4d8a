package moderation

import (
	"encoding/json"
	"strings"
)

// Verdict is the decoded outcome of one classifier call.
type Verdict struct {
	Classification Classification
	Confidence     float64
	Reasoning      string
	Raw            string
}

const (
	fallbackReasoning  = "failed to parse classifier response"
	inferredReasoning  = "classification inferred from unstructured response"
	fallbackConfidence = 0.5
	inferredConfidence = 0.6
)

// ClampConfidence forces a confidence score into [0, 1]. The classifier
// is not trusted to respect the range it was asked for.
func ClampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

type verdictPayload struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// DecodeVerdict turns free-form classifier output into a Verdict. It is
// pure and never fails: a JSON payload with a valid label wins, then a
// keyword match against the label set, then the safe default.
func DecodeVerdict(raw string) Verdict {
	if v, ok := decodeJSONVerdict(raw); ok {
		return v
	}
	if v, ok := inferVerdict(raw); ok {
		return v
	}

	return Verdict{
		Classification: ClassificationSafe,
		Confidence:     fallbackConfidence,
		Reasoning:      fallbackReasoning,
		Raw:            raw,
	}
}

func decodeJSONVerdict(raw string) (Verdict, bool) {
	body := stripCodeFence(raw)

	var payload verdictPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return Verdict{}, false
	}

	classification, ok := ParseClassification(payload.Classification)
	if !ok {
		return Verdict{}, false
	}

	reasoning := strings.TrimSpace(payload.Reasoning)
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}

	return Verdict{
		Classification: classification,
		Confidence:     ClampConfidence(payload.Confidence),
		Reasoning:      reasoning,
		Raw:            raw,
	}, true
}

// inferVerdict scans unstructured output for a label name. Flagged labels
// are checked first so that text mentioning both "safe" and a violation
// resolves to the violation.
func inferVerdict(raw string) (Verdict, bool) {
	haystack := strings.ToLower(raw)

	ordered := []Classification{
		ClassificationToxic,
		ClassificationHarassment,
		ClassificationSpam,
		ClassificationInappropriate,
		ClassificationSafe,
	}
	for _, label := range ordered {
		if strings.Contains(haystack, string(label)) {
			return Verdict{
				Classification: label,
				Confidence:     inferredConfidence,
				Reasoning:      inferredReasoning,
				Raw:            raw,
			}, true
		}
	}

	return Verdict{}, false
}

// stripCodeFence removes a surrounding markdown fence, which chat models
// routinely add around JSON they were asked for.
func stripCodeFence(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}

	body = strings.TrimPrefix(body, "```")
	if idx := strings.Index(body, "\n"); idx >= 0 {
		// Drop the fence language tag line ("json", "").
		body = body[idx+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
