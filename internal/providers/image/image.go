// Package image wraps the image-generation providers. A provider returns
// either inline bytes or a short-lived source URL; the pipeline downloads and
// persists the binary.
package image

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request describes one image generation.
type Request struct {
	Prompt string
	Size   string
}

// Asset is the normalized provider result. At least one of Data and URL is
// set on success.
type Asset struct {
	Data   []byte
	URL    string
	Format string
	Width  int
	Height int
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Asset, error)
}

// Chain tries providers in a fixed priority order, mirroring the text chain.
type Chain struct {
	providers []Generator
}

func NewChain(providers ...Generator) (*Chain, error) {
	if len(providers) == 0 {
		return nil, errors.New("image: chain requires at least one provider")
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

func (c *Chain) Generate(ctx context.Context, req Request) (*Asset, error) {
	var attempts []error
	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		asset, err := provider.Generate(ctx, req)
		if err == nil && asset != nil && (len(asset.Data) > 0 || asset.URL != "") {
			return asset, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: empty asset", provider.Name())
		}
		attempts = append(attempts, err)
	}
	return nil, fmt.Errorf("image: all providers failed: %w", errors.Join(attempts...))
}

var _ Generator = (*Chain)(nil)
