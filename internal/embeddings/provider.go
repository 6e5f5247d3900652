package embeddings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/leadgen/phantom-cli/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
// EmbedBatch returns one vector per input, in input order.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Dim      int
}

// LoadConfig resolves embeddings config from environment variables first, then ~/.phantom/.env.
func LoadConfig() (*Config, error) {
	get := func(key string) (string, error) { return config.GetConfigValue(key) }

	provider, err := get("PHANTOM_EMBEDDINGS_PROVIDER")
	if err != nil {
		return nil, err
	}
	model, err := get("PHANTOM_EMBEDDINGS_MODEL")
	if err != nil {
		return nil, err
	}
	apiKey, err := get("PHANTOM_EMBEDDINGS_API_KEY")
	if err != nil {
		return nil, err
	}
	baseURL, err := get("PHANTOM_EMBEDDINGS_BASE_URL")
	if err != nil {
		return nil, err
	}
	dimStr, err := get("PHANTOM_EMBEDDINGS_DIM")
	if err != nil {
		return nil, err
	}
	var dim int
	if dimStr != "" {
		dim, err = strconv.Atoi(dimStr)
		if err != nil || dim <= 0 {
			return nil, fmt.Errorf("invalid PHANTOM_EMBEDDINGS_DIM %q", dimStr)
		}
	}

	return &Config{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Dim:      dim,
	}, nil
}

// NewFromConfig returns an embeddings provider.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("embeddings provider is not configured (set PHANTOM_EMBEDDINGS_PROVIDER)")
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg), nil
	case "ollama":
		return NewOllama(cfg), nil
	case "local":
		return NewLocal(cfg.Dim), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}
