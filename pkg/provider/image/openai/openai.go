// Package openai provides an illustration provider backed by the OpenAI
// Images API (DALL·E). It implements the image.Provider interface.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/storytrail/pkg/provider/image"
)

const (
	// DefaultModel is the image model used when none is configured.
	DefaultModel = oai.ImageModelDallE3

	defaultSize    = oai.ImageGenerateParamsSize1024x1024
	defaultQuality = oai.ImageGenerateParamsQualityStandard

	// maxDownloadBytes bounds URL-format downloads.
	maxDownloadBytes = 32 << 20
)

// ResponseFormat selects how the API returns the generated image.
type ResponseFormat string

const (
	// FormatB64JSON returns the image inline as base64. This is the default.
	FormatB64JSON ResponseFormat = "b64_json"

	// FormatURL returns a short-lived URL that the provider downloads.
	FormatURL ResponseFormat = "url"
)

// Compile-time interface assertion.
var _ image.Provider = (*Provider)(nil)

// Provider implements image.Provider using the OpenAI Images API.
type Provider struct {
	client     oai.Client
	httpClient *http.Client
	model      string
	size       string
	quality    string
	format     ResponseFormat
}

// config holds optional configuration for the provider.
type config struct {
	baseURL    string
	timeout    time.Duration
	size       string
	quality    string
	format     ResponseFormat
	maxRetries int
	httpClient *http.Client
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout. Image generation is slow;
// keep this generous.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithSize sets the image size (e.g. "1024x1024", "1792x1024").
func WithSize(size string) Option {
	return func(c *config) {
		c.size = size
	}
}

// WithQuality sets the image quality ("standard" or "hd").
func WithQuality(quality string) Option {
	return func(c *config) {
		c.quality = quality
	}
}

// WithResponseFormat selects inline base64 or URL delivery.
func WithResponseFormat(f ResponseFormat) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithMaxRetries sets how often the SDK retries failed requests.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets the HTTP client used both for API calls and for
// downloading URL-format results.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// New constructs a new OpenAI image Provider. If model is empty,
// [DefaultModel] is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai image: apiKey must not be empty")
	}
	if model == "" {
		model = string(DefaultModel)
	}

	cfg := &config{
		size:       string(defaultSize),
		quality:    string(defaultQuality),
		format:     FormatB64JSON,
		maxRetries: -1,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.format != FormatB64JSON && cfg.format != FormatURL {
		return nil, fmt.Errorf("openai image: unsupported response format %q", cfg.format)
	}

	hc := &http.Client{}
	if cfg.httpClient != nil {
		cp := *cfg.httpClient
		hc = &cp
	}
	if cfg.timeout > 0 {
		hc.Timeout = cfg.timeout
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(hc),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.maxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.maxRetries))
	}

	return &Provider{
		client:     oai.NewClient(reqOpts...),
		httpClient: hc,
		model:      model,
		size:       cfg.size,
		quality:    cfg.quality,
		format:     cfg.format,
	}, nil
}

// Generate implements image.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string) (*image.Image, error) {
	if prompt == "" {
		return nil, errors.New("openai image: prompt must not be empty")
	}

	resp, err := p.client.Images.Generate(ctx, oai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          oai.ImageModel(p.model),
		N:              oai.Int(1),
		Size:           oai.ImageGenerateParamsSize(p.size),
		Quality:        oai.ImageGenerateParamsQuality(p.quality),
		ResponseFormat: oai.ImageGenerateParamsResponseFormat(p.format),
	})
	if err != nil {
		return nil, fmt.Errorf("openai image: generate: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai image: empty response")
	}
	first := resp.Data[0]

	var data []byte
	switch {
	case first.B64JSON != "":
		data, err = base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("openai image: decode base64: %w", err)
		}
	case first.URL != "":
		data, err = p.download(ctx, first.URL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("openai image: response carries neither data nor url")
	}

	return &image.Image{
		Data:          data,
		Format:        "png",
		RevisedPrompt: first.RevisedPrompt,
	}, nil
}

// download fetches a URL-format result.
func (p *Provider) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("openai image: build download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai image: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai image: download: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("openai image: read download: %w", err)
	}
	return data, nil
}

// Model returns the configured model ID.
func (p *Provider) Model() string {
	return p.model
}
