package llm

import (
	"context"
	"fmt"
	"net/http"
)

// OpenAIClient implements Completer for OpenAI-compatible chat completion APIs.
// Zhipu exposes the same wire format and is served by this client as well.
type OpenAIClient struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

var _ Completer = (*OpenAIClient)(nil)

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts a system and a user message and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature":                    c.cfg.Temperature,
		c.cfg.Provider.MaxTokensParam(): c.cfg.MaxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var resp chatCompletionResponse
	if err := postJSON(ctx, c.httpClient, c.cfg.Provider, c.cfg.Endpoint, headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s returned no choices", c.cfg.Provider)
	}
	return resp.Choices[0].Message.Content, nil
}
