package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
	DefaultModel      = "gemini-2.5-flash-image"

	maxResponseBytes = 64 << 20
)

type Options struct {
	APIKey      string
	BaseURL     string
	APIVersion  string
	Model       string
	AspectRatio string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

type Client struct {
	apiKey      string
	baseURL     string
	apiVersion  string
	model       string
	aspectRatio string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	apiVersion := strings.Trim(opts.APIVersion, "/ ")
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(opts.Timeout)
	}

	return &Client{
		apiKey:      opts.APIKey,
		baseURL:     baseURL,
		apiVersion:  apiVersion,
		model:       model,
		aspectRatio: opts.AspectRatio,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// NewHTTPClient builds a client with dial and header timeouts sized for
// image generation, which can take tens of seconds.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   15 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

func (c *Client) Model() string { return c.model }

// GenerateImage sends the reference image with the prompt and returns either
// an image or the reason none was produced.
func (c *Client) GenerateImage(ctx context.Context, img ImageInput, prompt string) (Outcome, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("gemini: prompt is empty")
	}
	if len(img.Data) == 0 {
		return nil, errors.New("gemini: reference image is empty")
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(img.Data)
	}

	req := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{InlineData: &requestBlob{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(img.Data)}},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}
	if c.aspectRatio != "" {
		req.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: c.aspectRatio}
	}

	outcome, err := c.generateContent(ctx, req)
	if err != nil && req.GenerationConfig.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		c.logger.Warn("Model rejected imageConfig, retrying without it", zap.String("model", c.model))
		req.GenerationConfig.ImageConfig = nil
		outcome, err = c.generateContent(ctx, req)
	}
	return outcome, err
}

func (c *Client) generateContent(ctx context.Context, payload generateContentRequest) (Outcome, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Request failed", zap.Error(err))
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Response received",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(rawBody)),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode >= 400 {
		apiErr := parseAPIError(resp.StatusCode, rawBody)
		c.logger.Warn("API request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("api_status", apiErr.Status),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	return decodeOutcome(rawBody)
}

func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var decoded errorResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		apiErr.Status = decoded.Error.Status
		apiErr.Message = decoded.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

// decodeOutcome maps a 2xx body onto an Outcome. Anything that does not fit
// the documented response shape is ErrMalformedResponse.
func decodeOutcome(body []byte) (Outcome, error) {
	var decoded generateContentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if fb := decoded.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return &RefusalText{Text: fb.BlockReasonMessage, BlockReason: fb.BlockReason}, nil
	}
	if len(decoded.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}

	cand := decoded.Candidates[0]
	var text strings.Builder
	var image *Blob
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p.Thought {
				continue
			}
			if p.Text != "" {
				if text.Len() > 0 {
					text.WriteString("\n")
				}
				text.WriteString(p.Text)
			}
			if b := p.blob(); b != nil && image == nil {
				image = b
			}
		}
	}

	if image != nil {
		if len(image.Data) == 0 {
			return nil, ErrEmptyPayload
		}
		mimeType := image.MimeType
		if mimeType == "" {
			mimeType = http.DetectContentType(image.Data)
		}
		return &ImagePayload{Data: image.Data, MimeType: mimeType, Text: text.String()}, nil
	}

	return &RefusalText{Text: text.String(), FinishReason: cand.FinishReason}, nil
}
