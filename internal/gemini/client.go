package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultPingTimeout bounds the health-check probe to the model service.
const DefaultPingTimeout = 2 * time.Second

// Client wraps the Gemini API for schema-constrained JSON generation. Both
// the transaction analyzer and the query engine go through this one call
// path so prompt plumbing stays out of business logic.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a Gemini client for the given model. Every Generate call
// is bounded by timeout; a zero timeout disables the deadline.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model, timeout: timeout}, nil
}

// Generate sends the prompt with an enforced JSON output schema and returns
// the raw response text. The schema's Required list is passed through to the
// model, so callers can rely on declared fields being present on success.
func (c *Client) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("gemini: empty response from model")
	}

	return cleanModelJSON(rawText), nil
}

// Ping issues a minimal token-count request with a short deadline to verify
// the model service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: "ping"}},
		},
	}

	if _, err := c.client.Models.CountTokens(ctx, c.model, contents, nil); err != nil {
		return fmt.Errorf("gemini: ping: %w", err)
	}
	return nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the JSON response mode.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON value, keep only
	// from the first opener to the last matching closer.
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	switch {
	case objStart != -1 && (arrStart == -1 || objStart < arrStart):
		if end := strings.LastIndex(s, "}"); end > objStart {
			s = strings.TrimSpace(s[objStart : end+1])
		}
	case arrStart != -1:
		if end := strings.LastIndex(s, "]"); end > arrStart {
			s = strings.TrimSpace(s[arrStart : end+1])
		}
	}

	return s
}
