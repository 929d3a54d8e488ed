package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient talks to the Messages API.
type AnthropicClient struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

var _ Completer = (*AnthropicClient)(nil)

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends one user message with a system prompt.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model":                          c.cfg.Model,
		c.cfg.Provider.MaxTokensParam(): c.cfg.MaxTokens,
		"temperature":                    c.cfg.Temperature,
		"system":                         system,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	}
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, c.httpClient, c.cfg.Provider, c.cfg.Endpoint, headers, payload, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return sb.String(), nil
}
