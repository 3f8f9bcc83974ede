package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/utils"
)

// Config is built once in main and passed into constructors. Components never
// read the environment themselves.
type Config struct {
	Port          string   `yaml:"port"`
	LogMode       string   `yaml:"log_mode"`
	ClientOrigins []string `yaml:"client_origins"`
	Tracing       bool     `yaml:"tracing"`

	JWTSecretKey  string `yaml:"jwt_secret_key"`
	AccessTTLSecs int    `yaml:"access_ttl_seconds"`

	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      LLMConfig      `yaml:"llm"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LLMConfig struct {
	Provider        string   `yaml:"provider"`
	Transport       string   `yaml:"transport"`
	BaseURL         string   `yaml:"base_url"`
	APIKey          string   `yaml:"api_key"`
	Model           string   `yaml:"model"`
	Temperature     *float64 `yaml:"temperature"`
	TopP            *float64 `yaml:"top_p"`
	MaxOutputTokens *int     `yaml:"max_output_tokens"`
	TimeoutSeconds  int      `yaml:"timeout_seconds"`
}

// Load reads the optional YAML file named by CONFIG_FILE, then applies
// environment overrides on top.
func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		Port:          "4000",
		LogMode:       "development",
		ClientOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		JWTSecretKey:  "dev-secret",
		AccessTTLSecs: 7 * 24 * 3600,
		Postgres: PostgresConfig{
			Host: "localhost",
			Port: "5432",
			User: "postgres",
			Name: "daleel",
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			Model:          "llama3.1:8b",
			TimeoutSeconds: 180,
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	cfg.LogMode = utils.GetEnv("LOG_MODE", cfg.LogMode, log)
	if origins := utils.GetEnv("CLIENT_ORIGINS", "", nil); origins != "" {
		cfg.ClientOrigins = splitAndTrim(origins)
	}
	cfg.Tracing = utils.GetEnvAsBool("TRACING_ENABLED", cfg.Tracing, log)

	cfg.JWTSecretKey = utils.GetEnv("JWT_SECRET_KEY", cfg.JWTSecretKey, nil)
	cfg.AccessTTLSecs = utils.GetEnvAsInt("ACCESS_TOKEN_TTL", cfg.AccessTTLSecs, log)

	cfg.Postgres.Host = utils.GetEnv("POSTGRES_HOST", cfg.Postgres.Host, log)
	cfg.Postgres.Port = utils.GetEnv("POSTGRES_PORT", cfg.Postgres.Port, log)
	cfg.Postgres.User = utils.GetEnv("POSTGRES_USER", cfg.Postgres.User, log)
	cfg.Postgres.Password = utils.GetEnv("POSTGRES_PASSWORD", cfg.Postgres.Password, nil)
	cfg.Postgres.Name = utils.GetEnv("POSTGRES_NAME", cfg.Postgres.Name, log)

	cfg.Redis.Addr = utils.GetEnv("REDIS_ADDR", cfg.Redis.Addr, log)
	cfg.Redis.Password = utils.GetEnv("REDIS_PASSWORD", cfg.Redis.Password, nil)
	cfg.Redis.DB = utils.GetEnvAsInt("REDIS_DB", cfg.Redis.DB, log)

	cfg.LLM.Provider = strings.ToLower(utils.GetEnv("LLM_PROVIDER", cfg.LLM.Provider, log))
	cfg.LLM.Transport = strings.ToLower(utils.GetEnv("LLM_TRANSPORT", cfg.LLM.Transport, log))
	cfg.LLM.BaseURL = utils.GetEnv("LLM_BASE_URL", cfg.LLM.BaseURL, log)
	cfg.LLM.APIKey = utils.GetEnv("LLM_API_KEY", cfg.LLM.APIKey, nil)
	cfg.LLM.Model = utils.GetEnv("LLM_MODEL", cfg.LLM.Model, log)
	if v := utils.GetEnvAsFloatPtr("LLM_TEMPERATURE", log); v != nil {
		cfg.LLM.Temperature = v
	}
	if v := utils.GetEnvAsFloatPtr("LLM_TOP_P", log); v != nil {
		cfg.LLM.TopP = v
	}
	if v := utils.GetEnvAsIntPtr("LLM_MAX_OUTPUT_TOKENS", log); v != nil {
		cfg.LLM.MaxOutputTokens = v
	}
	cfg.LLM.TimeoutSeconds = utils.GetEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds, log)

	return cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
