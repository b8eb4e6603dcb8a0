package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ASHUVINAYAK1/project-maker/internal/telemetry"
)

// GatewayError reports a non-success HTTP status from the generation service.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

// ModelInfo describes one model installed on the generation service.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// GenerateOptions tunes a single generation request.
type GenerateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// GenerateRequest is one prompt for the generation service.
type GenerateRequest struct {
	Model   string
	Prompt  string
	System  string
	Options *GenerateOptions
}

// Client is a thin HTTP client for a local or remote Ollama service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// mockResponder is used for testing to bypass real API calls
	mockResponder func(string) (string, error)
}

// NewClient creates a new gateway client.
// baseURL defaults to http://localhost:11434 if empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Longer timeout for local models
		},
	}
}

// WithMockResponder sets a mock responder for testing.
func (c *Client) WithMockResponder(fn func(string) (string, error)) *Client {
	c.mockResponder = fn
	return c
}

// IsAvailable issues a lightweight capability probe. It never returns an
// error; any failure, including a timeout after 5 seconds, reads as false.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.mockResponder != nil {
		return true
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the models installed on the service.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.TrackGatewayRequest("tags", "error", time.Since(start))
		return nil, fmt.Errorf("failed to reach generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		telemetry.TrackGatewayRequest("tags", "error", time.Since(start))
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		telemetry.TrackGatewayRequest("tags", "error", time.Since(start))
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}

	telemetry.TrackGatewayRequest("tags", "ok", time.Since(start))
	return payload.Models, nil
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (c *Client) postGenerate(ctx context.Context, req GenerateRequest, stream bool) (*http.Response, error) {
	body := map[string]any{
		"model":  req.Model,
		"prompt": req.Prompt,
		"stream": stream,
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if req.Options != nil {
		body["options"] = req.Options
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

// Generate sends a single request and returns the complete response text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if c.mockResponder != nil {
		return c.mockResponder(req.Prompt)
	}
	if req.Model == "" {
		return "", fmt.Errorf("model is required")
	}

	start := time.Now()
	resp, err := c.postGenerate(ctx, req, false)
	if err != nil {
		telemetry.TrackGatewayRequest("generate", "error", time.Since(start))
		return "", err
	}
	defer resp.Body.Close()

	var payload generateChunk
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		telemetry.TrackGatewayRequest("generate", "error", time.Since(start))
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Error != "" {
		telemetry.TrackGatewayRequest("generate", "error", time.Since(start))
		return "", fmt.Errorf("generation service error: %s", payload.Error)
	}

	telemetry.TrackGatewayRequest("generate", "ok", time.Since(start))
	return payload.Response, nil
}

// GenerateStream sends a streaming request and calls onChunk for each
// incremental text fragment as it arrives. The stream ends on a chunk with
// done=true or transport EOF. Malformed records are skipped. Cancelling ctx
// stops consumption immediately; the returned error then wraps ctx.Err() so
// callers can tell "user cancelled" apart from "stream broke" with errors.Is.
// The aggregated text received so far is returned either way.
func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest, onChunk func(string)) (string, error) {
	if c.mockResponder != nil {
		text, err := c.mockResponder(req.Prompt)
		if err == nil && onChunk != nil {
			onChunk(text)
		}
		return text, err
	}
	if req.Model == "" {
		return "", fmt.Errorf("model is required")
	}

	start := time.Now()
	resp, err := c.postGenerate(ctx, req, true)
	if err != nil {
		telemetry.TrackGatewayRequest("generate_stream", "error", time.Since(start))
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			telemetry.TrackGatewayRequest("generate_stream", "cancelled", time.Since(start))
			return full.String(), fmt.Errorf("stream cancelled: %w", ctxErr)
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Malformed frames are dropped, not fatal
			continue
		}
		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if onChunk != nil {
				onChunk(chunk.Response)
			}
		}
		if chunk.Done {
			telemetry.TrackGatewayRequest("generate_stream", "ok", time.Since(start))
			return full.String(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			telemetry.TrackGatewayRequest("generate_stream", "cancelled", time.Since(start))
			return full.String(), fmt.Errorf("stream cancelled: %w", ctxErr)
		}
		telemetry.TrackGatewayRequest("generate_stream", "error", time.Since(start))
		return full.String(), fmt.Errorf("stream transport error: %w", err)
	}

	telemetry.TrackGatewayRequest("generate_stream", "ok", time.Since(start))
	return full.String(), nil
}
