package ports

import (
	"context"
	"errors"

	"modguard/internal/domain/moderation"
)

// ErrClassifierUnavailable marks transport-level classifier failures
// (network error, timeout, non-2xx). The orchestrator recovers from it
// with a conservative safe verdict instead of failing the submission.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// Classifier obtains a moderation verdict for raw content. Implementations
// must bound the call with their configured timeout and must decode
// whatever the model returns into a valid Verdict; only transport failures
// surface as errors.
type Classifier interface {
	Analyze(ctx context.Context, contentType moderation.ContentType, content []byte) (moderation.Verdict, error)
}
