package llm

import (
	"context"
	"time"
)

// boundedGenerator caps every model call with a timeout. Expiry is reported as
// an ordinary generation error so callers fall through to their deterministic
// fallbacks, the same way they would on a parse failure.
type boundedGenerator struct {
	inner   TextGenerator
	timeout time.Duration
}

// NewBoundedGenerator wraps a TextGenerator with a per-call timeout.
// A non-positive timeout returns the generator unchanged.
func NewBoundedGenerator(inner TextGenerator, timeout time.Duration) TextGenerator {
	if timeout <= 0 {
		return inner
	}
	return &boundedGenerator{inner: inner, timeout: timeout}
}

// GenerateContent invokes the wrapped generator with a bounded context.
func (b *boundedGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.inner.GenerateContent(ctx, prompt)
}
