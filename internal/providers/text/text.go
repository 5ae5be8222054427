// Package text wraps the generative-AI providers that turn blog content into
// platform-specific posts. Providers are capability-equivalent; callers order
// them into a Chain and the first success wins.
package text

import (
	"context"

	"repurposer/internal/domain"
)

// Request is the normalized input passed to any text provider.
type Request struct {
	Title       string
	Content     string
	ContentType domain.ContentType
	Options     domain.GenerationOptions
}

// Generator produces one piece of platform-idiomatic text. The contract is
// non-emptiness, not exact phrasing.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
