package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider is the closed set of supported language-model backends.
type Provider int

const (
	ProviderAnthropic Provider = iota + 1
	ProviderOpenAI
	ProviderGoogle
	ProviderZhipu
)

type providerSpec struct {
	name           string
	apiKeyEnv      string
	maxTokensParam string
	endpoint       string
}

var providerSpecs = map[Provider]providerSpec{
	ProviderAnthropic: {"anthropic", "ANTHROPIC_API_KEY", "max_tokens", "https://api.anthropic.com/v1/messages"},
	ProviderOpenAI:    {"openai", "OPENAI_API_KEY", "max_tokens", "https://api.openai.com/v1/chat/completions"},
	ProviderGoogle:    {"google", "GOOGLE_API_KEY", "maxOutputTokens", "https://generativelanguage.googleapis.com/v1beta/models"},
	ProviderZhipu:     {"zhipu", "ZHIPU_API_KEY", "max_tokens", "https://open.bigmodel.cn/api/paas/v4/chat/completions"},
}

// ParseProvider resolves a configuration string to a Provider.
func ParseProvider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, spec := range providerSpecs {
		if spec.name == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unsupported llm provider %q (supported: anthropic, openai, google, zhipu)", name)
}

func (p Provider) String() string {
	if spec, ok := providerSpecs[p]; ok {
		return spec.name
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

// APIKeyEnv names the environment variable holding the provider credential.
func (p Provider) APIKeyEnv() string { return providerSpecs[p].apiKeyEnv }

// MaxTokensParam is the request field that caps output length for the provider.
func (p Provider) MaxTokensParam() string { return providerSpecs[p].maxTokensParam }

// DefaultEndpoint is the public API endpoint used when none is configured.
func (p Provider) DefaultEndpoint() string { return providerSpecs[p].endpoint }

// Completer performs one system+user round trip and returns the model text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ProviderConfig is everything needed to build a Completer.
type ProviderConfig struct {
	Provider    Provider
	Model       string
	APIKey      string
	Endpoint    string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewCompleter builds the concrete client for cfg.Provider.
func NewCompleter(cfg ProviderConfig, client *http.Client) (Completer, error) {
	if _, ok := providerSpecs[cfg.Provider]; !ok {
		return nil, fmt.Errorf("unsupported llm provider %s", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s is required for the %s provider", cfg.Provider.APIKeyEnv(), cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is not configured")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = cfg.Provider.DefaultEndpoint()
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return &AnthropicClient{cfg: cfg, httpClient: client}, nil
	case ProviderGoogle:
		return &GoogleClient{cfg: cfg, httpClient: client}, nil
	default:
		return &OpenAIClient{cfg: cfg, httpClient: client}, nil
	}
}
