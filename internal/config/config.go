package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tripmate/pkg/utils"
)

type Config struct {
	Port     string
	LogLevel string

	PostgresURL string
	SessionTTL  time.Duration

	AIProvider           string
	GeminiAPIKey         string
	GeminiModel          string
	GeminiEmbeddingModel string
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIEmbeddingModel string

	OffersAPIURL  string
	OffersAPIKey  string
	OffersTimeout time.Duration

	PaymentWebhookSecret string
	JWTSecret            string
	JWTTTL               time.Duration
	AdminKey             string

	PlannerRulesPath string
}

// AIKey returns the API key for the configured provider.
func (c Config) AIKey() string {
	switch strings.ToLower(c.AIProvider) {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	}
	return ""
}

func (c Config) AIModel() string {
	if strings.EqualFold(c.AIProvider, "openai") {
		return c.OpenAIModel
	}
	return c.GeminiModel
}

func (c Config) AIEmbeddingModel() string {
	if strings.EqualFold(c.AIProvider, "openai") {
		return c.OpenAIEmbeddingModel
	}
	return c.GeminiEmbeddingModel
}

// Load reads a local .env if one exists, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:                 get("PORT", "8080"),
		LogLevel:             get("LOG_LEVEL", "info"),
		PostgresURL:          get("POSTGRES_URL", ""),
		AIProvider:           strings.ToLower(get("AI_PROVIDER", "none")),
		GeminiAPIKey:         get("GEMINI_API_KEY", ""),
		GeminiModel:          get("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiEmbeddingModel: get("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		OpenAIAPIKey:         get("OPENAI_API_KEY", ""),
		OpenAIModel:          get("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIEmbeddingModel: get("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		OffersAPIURL:         strings.TrimRight(get("OFFERS_API_URL", ""), "/"),
		OffersAPIKey:         get("OFFERS_API_KEY", ""),
		PaymentWebhookSecret: get("PAYMENT_WEBHOOK_SECRET", ""),
		JWTSecret:            get("JWT_SECRET", ""),
		AdminKey:             get("ADMIN_KEY", ""),
		PlannerRulesPath:     get("PLANNER_RULES_PATH", ""),
	}

	var err error
	if cfg.SessionTTL, err = duration(get("SESSION_TTL", "2h")); err != nil {
		return Config{}, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if cfg.OffersTimeout, err = duration(get("OFFERS_TIMEOUT", "5s")); err != nil {
		return Config{}, fmt.Errorf("OFFERS_TIMEOUT: %w", err)
	}
	if cfg.JWTTTL, err = duration(get("JWT_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("JWT_TTL: %w", err)
	}

	switch cfg.AIProvider {
	case "none", "gemini", "openai":
	default:
		return Config{}, fmt.Errorf("AI_PROVIDER: unsupported provider %q", cfg.AIProvider)
	}
	if cfg.JWTSecret == "" {
		// Tokens from a random secret die with the process.
		secret, err := utils.GenerateSecureToken(32)
		if err != nil {
			return Config{}, err
		}
		cfg.JWTSecret = secret
	}
	return cfg, nil
}

// duration accepts Go durations ("90m") or plain seconds ("30").
func duration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if n, aerr := strconv.Atoi(s); aerr == nil {
		d, err = time.Duration(n)*time.Second, nil
	}
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}
