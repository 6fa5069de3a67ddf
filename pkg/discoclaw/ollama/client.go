// Package ollama implements the HTTP client for the Ollama generation API.
// Two call shapes are used: /api/chat for conversational requests carrying the
// full transcript, and /api/generate for one-shot requests (thread-title
// summaries and image descriptions), optionally with embedded base64 images.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Message is one chat turn in the Ollama wire format.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Client talks to an Ollama server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client for the Ollama server at host:port. The host may be a
// bare hostname or carry an explicit scheme; a port already embedded in the
// host takes precedence over the port argument.
func New(host string, port int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	base := host
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")
	if port > 0 && !hasPort(base) {
		base = fmt.Sprintf("%s:%d", base, port)
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			// No global timeout: generation can take minutes on slow models.
			// Callers bound each request with their context; the transport
			// timeouts below catch hung connections.
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   5,
				IdleConnTimeout:       120 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 300 * time.Second,
			},
		},
		logger: logger.With("component", "ollama"),
	}
}

// hasPort reports whether the URL's authority already carries a port.
func hasPort(base string) bool {
	u, err := url.Parse(base)
	return err == nil && u.Port() != ""
}

// BaseURL returns the resolved server address.
func (c *Client) BaseURL() string { return c.baseURL }

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Chat sends the transcript plus the new user message and returns the
// generated assistant message.
func (c *Client) Chat(ctx context.Context, model string, msgs []Message) (Message, error) {
	req := chatRequest{Model: model, Messages: msgs, Stream: false}

	start := time.Now()
	var resp chatResponse
	if err := c.post(ctx, "/api/chat", req, &resp); err != nil {
		return Message{}, fmt.Errorf("chat request: %w", err)
	}

	c.logger.Debug("chat completed",
		"model", model,
		"messages", len(msgs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.Message, nil
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends a one-shot prompt, optionally with base64-encoded images,
// and returns the generated text.
func (c *Client) Generate(ctx context.Context, model, prompt string, images []string) (string, error) {
	req := generateRequest{Model: model, Prompt: prompt, Images: images, Stream: false}

	start := time.Now()
	var resp generateResponse
	if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}

	c.logger.Debug("generation completed",
		"model", model,
		"images", len(images),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.Response, nil
}

// post marshals body, sends it, and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return fmt.Errorf("server returned %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
