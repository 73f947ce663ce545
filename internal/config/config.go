package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Supported chat providers.
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Config aggregates the service configuration.
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Gemini   GeminiConfig
	AI       AIConfig
	LogLevel string
}

// Load reads configuration from environment variables. It fails when the
// selected provider has no credentials.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	provider, err := loadProviderConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:   server,
		Provider: provider,
		Gemini: GeminiConfig{
			APIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		AI:       loadAIConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	switch provider.Name {
	case ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required. Create a .env file with GEMINI_API_KEY=your-api-key-here or set it in your shell")
		}
	case ProviderArk:
		if !cfg.AI.Enabled() {
			return nil, errors.New("ark provider selected but credentials are missing: set Model plus ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
		}
	}

	return cfg, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// Accept ":8000" or "127.0.0.1:8000" as-is.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// ProviderConfig selects the generative backend and bounds its calls.
type ProviderConfig struct {
	Name    string
	Timeout time.Duration
}

func loadProviderConfig() (ProviderConfig, error) {
	name := strings.ToLower(getEnvOrDefault("CHAT_PROVIDER", ProviderGemini))
	if name != ProviderGemini && name != ProviderArk {
		return ProviderConfig{}, fmt.Errorf("invalid CHAT_PROVIDER value: %q", name)
	}

	timeout, err := parseDurationEnv("PROVIDER_TIMEOUT", 30*time.Second)
	if err != nil {
		return ProviderConfig{}, err
	}
	if timeout <= 0 {
		return ProviderConfig{}, fmt.Errorf("invalid PROVIDER_TIMEOUT value %q: must be positive", os.Getenv("PROVIDER_TIMEOUT"))
	}

	return ProviderConfig{Name: name, Timeout: timeout}, nil
}

// GeminiConfig holds the Google Gemini credentials.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// AIConfig describes the Volcengine Ark chat model.
type AIConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled reports whether the required Ark credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model. Sampling parameters are supplied per call.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, errors.New("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	})
}

func loadAIConfig() AIConfig {
	return AIConfig{
		APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:     strings.TrimSpace(os.Getenv("Model")),
		BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}

	// Bare integers are seconds.
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return time.Duration(secs) * time.Second, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
