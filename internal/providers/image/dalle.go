package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"repurposer/internal/domain"
)

const (
	dalleProviderName   = "dalle"
	dalleDefaultTimeout = 120 * time.Second
	defaultDalleModel   = "dall-e-3"
	defaultDalleSize    = "1024x1024"
)

// DalleOptions configures the OpenAI image provider.
type DalleOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// DalleGenerator generates images through the OpenAI images API. The API
// returns a short-lived URL; downloading is left to the caller.
type DalleGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type dalleRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type dalleResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func NewDalleGenerator(opts DalleOptions) (*DalleGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultDalleModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: dalleDefaultTimeout}
	}
	return &DalleGenerator{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (d *DalleGenerator) Name() string { return dalleProviderName }

func (d *DalleGenerator) Generate(ctx context.Context, req Request) (*Asset, error) {
	size := req.Size
	if size == "" {
		size = defaultDalleSize
	}
	payload := dalleRequest{
		Model:  d.model,
		Prompt: req.Prompt,
		Size:   size,
		N:      1,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("dalle: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/images/generations", d.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("dalle: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)
	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dalle: %w: %w", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dalle: status %d: %w", resp.StatusCode, domain.ErrProviderFailure)
	}
	var out dalleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("dalle: decode response: %w: %w", domain.ErrProviderFailure, err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("dalle: no image returned: %w", domain.ErrProviderFailure)
	}
	first := out.Data[0]
	asset := &Asset{URL: first.URL, Format: "image/png"}
	if first.B64JSON != "" {
		data, decErr := decodeBase64Image(first.B64JSON)
		if decErr != nil {
			return nil, fmt.Errorf("dalle: decode image payload: %w: %w", domain.ErrProviderFailure, decErr)
		}
		asset.Data = data
	}
	if len(asset.Data) == 0 && asset.URL == "" {
		return nil, fmt.Errorf("dalle: empty image payload: %w", domain.ErrProviderFailure)
	}
	return asset, nil
}

var _ Generator = (*DalleGenerator)(nil)
