package text

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Chain tries providers in a fixed priority order and returns the first
// non-empty result. The order is configuration-driven and never reshuffled,
// so a given sequence of provider failures always takes the same path.
type Chain struct {
	providers []Generator
}

// NewChain builds a chain from an ordered provider list.
func NewChain(providers ...Generator) (*Chain, error) {
	if len(providers) == 0 {
		return nil, errors.New("text: chain requires at least one provider")
	}
	return &Chain{providers: providers}, nil
}

func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

// Generate walks the chain until a provider succeeds. Exhaustion returns an
// error naming every provider's failure reason.
func (c *Chain) Generate(ctx context.Context, req Request) (string, error) {
	var attempts []error
	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		content, err := provider.Generate(ctx, req)
		if err == nil && strings.TrimSpace(content) != "" {
			return content, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: empty result", provider.Name())
		}
		attempts = append(attempts, err)
	}
	return "", fmt.Errorf("text: all providers failed: %w", errors.Join(attempts...))
}

var _ Generator = (*Chain)(nil)
