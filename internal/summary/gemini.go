package summary

import (
	"context"
	"errors"
	"net/http"

	"github.com/dgallion1/kozlony/internal/toc"
	"google.golang.org/genai"
)

// Gemini summarizes through the Google Gen AI SDK.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func NewGemini(ctx context.Context, apiKey, model string, maxInputTokens int) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing gemini api key")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model, maxTokens: maxInputTokens}, nil
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Summarize(ctx context.Context, entries []toc.Entry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	prompt, _ := BuildPrompt(entries, g.maxTokens)
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500) {
			return "", &RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return "", err
	}
	text := res.Text()
	if text == "" {
		return "", errors.New("empty response from gemini")
	}
	return stripCodeBlock(text), nil
}
