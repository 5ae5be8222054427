package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"repurposer/internal/domain"
	"repurposer/internal/providers/image"
	"repurposer/internal/providers/text"
	"repurposer/internal/storage"
)

// GenerationRequest is the orchestrator's internal unit of work: one job
// snapshot paired with one content type. It is never persisted.
type GenerationRequest struct {
	Job         *domain.Job
	ContentType domain.ContentType
}

// Result is one produced artifact body. Exactly one field is non-empty.
type Result struct {
	Content  string
	FilePath string
}

// ArtifactGenerator turns a generation request into one artifact body.
// Generators are pure functions of their inputs plus network I/O; they never
// persist anything themselves.
type ArtifactGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (Result, error)
}

// Registry routes each content type to its generation strategy.
type Registry struct {
	textGen  ArtifactGenerator
	imageGen ArtifactGenerator
}

func NewRegistry(textGen, imageGen ArtifactGenerator) *Registry {
	return &Registry{textGen: textGen, imageGen: imageGen}
}

// ForType returns the strategy handling the given content type.
func (r *Registry) ForType(ct domain.ContentType) ArtifactGenerator {
	if ct.IsImage() {
		return r.imageGen
	}
	return r.textGen
}

// TextArtifact generates a platform text post through a provider chain.
type TextArtifact struct {
	chain text.Generator
}

func NewTextArtifact(chain text.Generator) *TextArtifact {
	return &TextArtifact{chain: chain}
}

func (t *TextArtifact) Generate(ctx context.Context, req GenerationRequest) (Result, error) {
	content, err := t.chain.Generate(ctx, text.Request{
		Title:       req.Job.Title,
		Content:     req.Job.OriginalContent,
		ContentType: req.ContentType,
		Options:     req.Job.Options,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Content: content}, nil
}

// ImageArtifact generates an image in three steps: derive a prompt from the
// source content via the text chain, render it through the image chain, then
// persist the binary through the sink. Any step failing fails the attempt.
type ImageArtifact struct {
	prompts    text.Generator
	images     image.Generator
	sink       storage.Sink
	downloader *http.Client
}

func NewImageArtifact(prompts text.Generator, images image.Generator, sink storage.Sink, downloader *http.Client) *ImageArtifact {
	if downloader == nil {
		downloader = &http.Client{Timeout: 60 * time.Second}
	}
	return &ImageArtifact{prompts: prompts, images: images, sink: sink, downloader: downloader}
}

func (g *ImageArtifact) Generate(ctx context.Context, req GenerationRequest) (Result, error) {
	prompt, err := g.prompts.Generate(ctx, text.Request{
		Title:       req.Job.Title,
		Content:     req.Job.OriginalContent,
		ContentType: req.ContentType,
		Options:     req.Job.Options,
	})
	if err != nil {
		return Result{}, fmt.Errorf("derive prompt: %w", err)
	}

	asset, err := g.images.Generate(ctx, image.Request{Prompt: prompt})
	if err != nil {
		return Result{}, err
	}

	data := asset.Data
	if len(data) == 0 {
		data, err = g.download(ctx, asset.URL)
		if err != nil {
			return Result{}, fmt.Errorf("download image: %w", err)
		}
	}

	locator, err := g.sink.Put(ctx, data, req.ContentType.StorageHint())
	if err != nil {
		return Result{}, fmt.Errorf("store image: %w", err)
	}
	return Result{FilePath: locator}, nil
}

func (g *ImageArtifact) download(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("provider returned no image payload")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.downloader.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image body")
	}
	return data, nil
}
