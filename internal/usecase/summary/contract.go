package summary

import (
	"context"

	"github.com/iracify/iracify/internal/domain"
)

// Synthesizer is the synthesis collaborator boundary. It receives the
// bounded candidate payload and returns the provider's raw JSON (to be
// validated here) or a typed failure. Retry policy lives behind this
// interface; the pipeline never depends on attempt counts or timing.
type Synthesizer interface {
	Synthesize(ctx context.Context, req domain.SynthesisRequest) ([]byte, error)
	SynthesizeGist(ctx context.Context, text string) ([]byte, error)
}
