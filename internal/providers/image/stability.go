package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"repurposer/internal/domain"
)

const (
	stabilityProviderName   = "stability"
	stabilityDefaultTimeout = 120 * time.Second
	defaultStabilityEngine  = "stable-diffusion-xl-1024-v1-0"
)

// StabilityOptions configures the Stability AI image provider.
type StabilityOptions struct {
	APIKey     string
	Host       string
	EngineID   string
	HTTPClient *http.Client
}

// StabilityGenerator generates images through the Stability text-to-image
// API, which returns base64 artifacts inline.
type StabilityGenerator struct {
	apiKey   string
	host     string
	engineID string
	client   *http.Client
}

type stabilityRequest struct {
	TextPrompts []stabilityTextPrompt `json:"text_prompts"`
	Height      int                   `json:"height"`
	Width       int                   `json:"width"`
	CfgScale    float64               `json:"cfg_scale"`
	Steps       int                   `json:"steps"`
	Samples     int                   `json:"samples"`
}

type stabilityTextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64 string `json:"base64"`
	} `json:"artifacts"`
}

func NewStabilityGenerator(opts StabilityOptions) (*StabilityGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("stability api key is required")
	}
	host := strings.TrimRight(opts.Host, "/")
	if host == "" {
		host = "https://api.stability.ai"
	}
	engine := strings.TrimSpace(opts.EngineID)
	if engine == "" {
		engine = defaultStabilityEngine
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: stabilityDefaultTimeout}
	}
	return &StabilityGenerator{
		apiKey:   strings.TrimSpace(opts.APIKey),
		host:     host,
		engineID: engine,
		client:   client,
	}, nil
}

func (s *StabilityGenerator) Name() string { return stabilityProviderName }

func (s *StabilityGenerator) Generate(ctx context.Context, req Request) (*Asset, error) {
	width, height := parseSize(req.Size)
	payload := stabilityRequest{
		TextPrompts: []stabilityTextPrompt{{Text: req.Prompt, Weight: 1.0}},
		Height:      height,
		Width:       width,
		CfgScale:    7.0,
		Steps:       30,
		Samples:     1,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("stability: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/generation/%s/text-to-image", s.host, s.engineID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("stability: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stability: %w: %w", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stability: status %d: %w", resp.StatusCode, domain.ErrProviderFailure)
	}
	var out stabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("stability: decode response: %w: %w", domain.ErrProviderFailure, err)
	}
	if len(out.Artifacts) == 0 {
		return nil, fmt.Errorf("stability: no artifacts: %w", domain.ErrProviderFailure)
	}
	data, err := decodeBase64Image(out.Artifacts[0].Base64)
	if err != nil {
		return nil, fmt.Errorf("stability: decode artifact: %w: %w", domain.ErrProviderFailure, err)
	}
	return &Asset{Data: data, Format: "image/png", Width: width, Height: height}, nil
}

func parseSize(size string) (int, int) {
	parts := strings.SplitN(strings.TrimSpace(size), "x", 2)
	if len(parts) == 2 {
		var w, h int
		if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return 1024, 1024
}

// decodeBase64Image tolerates data-URL prefixes on inline payloads.
func decodeBase64Image(raw string) ([]byte, error) {
	if idx := strings.Index(raw, ","); idx >= 0 && strings.Contains(raw[:idx], ";base64") {
		raw = raw[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	return data, nil
}

var _ Generator = (*StabilityGenerator)(nil)
