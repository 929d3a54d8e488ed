package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GoogleClient calls the Gemini generateContent endpoint.
type GoogleClient struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

var _ Completer = (*GoogleClient)(nil)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete sends the system instruction and user content in a single request.
func (c *GoogleClient) Complete(ctx context.Context, system, user string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s:generateContent", strings.TrimSuffix(c.cfg.Endpoint, "/"), url.PathEscape(c.cfg.Model))
	payload := map[string]any{
		"systemInstruction": map[string]any{"parts": []geminiPart{{Text: system}}},
		"contents": []map[string]any{
			{"role": "user", "parts": []geminiPart{{Text: user}}},
		},
		"generationConfig": map[string]any{
			"temperature":                    c.cfg.Temperature,
			c.cfg.Provider.MaxTokensParam(): c.cfg.MaxTokens,
		},
	}
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	var resp geminiResponse
	if err := postJSON(ctx, c.httpClient, c.cfg.Provider, endpoint, headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("google returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("google returned empty content")
	}
	return sb.String(), nil
}
