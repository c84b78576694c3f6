package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/kozlony/internal/toc"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"

	// Hungarian answers in markdown, rendered later by RenderHTML.
	claudeSystem = "Magyarul válaszolj, tömören, markdown formátumban."
)

// ClaudeClient summarizes through the Anthropic Messages API.
type ClaudeClient struct {
	apiKey     string
	model      string
	maxTokens  int
	endpoint   string
	httpClient *http.Client
}

func NewClaudeClient(apiKey, model string, maxInputTokens int) *ClaudeClient {
	return &ClaudeClient{
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxInputTokens,
		endpoint:   anthropicURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithEndpoint points the client at another Messages API URL.
func (c *ClaudeClient) WithEndpoint(endpoint string) *ClaudeClient {
	c.endpoint = endpoint
	return c
}

func (c *ClaudeClient) Model() string { return c.model }

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string     `json:"model"`
	MaxTokens int        `json:"max_tokens"`
	System    string     `json:"system,omitempty"`
	Messages  []chatTurn `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *ClaudeClient) Summarize(ctx context.Context, entries []toc.Entry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	prompt, _ := BuildPrompt(entries, c.maxTokens)

	resp, err := c.send(ctx, messagesRequest{
		Model:     c.model,
		MaxTokens: 1024,
		System:    claudeSystem,
		Messages:  []chatTurn{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("empty response from claude")
	}
	return stripCodeBlock(sb.String()), nil
}

// send posts one Messages request. 429 and 5xx come back as *RetryableError.
func (c *ClaudeClient) send(ctx context.Context, req messagesRequest) (*messagesResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("claude api: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch code := httpResp.StatusCode; {
	case code == http.StatusTooManyRequests || code >= 500:
		return nil, &RetryableError{StatusCode: code, Message: string(body)}
	case code != http.StatusOK:
		return nil, fmt.Errorf("claude api status %d: %s", code, truncate(string(body), 200))
	}

	var out messagesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("claude error: %s: %s", out.Error.Type, out.Error.Message)
	}
	return &out, nil
}

// Close releases idle connections.
func (c *ClaudeClient) Close() {
	c.httpClient.CloseIdleConnections()
}

var fencedRe = regexp.MustCompile("(?s)^```(?:markdown|md)?\\s*(.*?)\\s*```$")

// stripCodeBlock unwraps a reply the model put inside a markdown fence.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := fencedRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
