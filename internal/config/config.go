// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

type Config struct {
	Addr         string
	DBPath       string
	CatalogFile  string
	LogMode      string
	Provider     Provider
	Model        string
	MaxAttempts  int
	LLMRPS       float64
	OTLPEndpoint string
	OTLPInsecure bool
	NoLLM        bool
	PDFPage      string
}

func Load() (Config, error) {
	cfg := Config{
		Addr:         getEnv("CIRCUIT_ADDR", ":8080"),
		DBPath:       getEnv("CIRCUIT_DB_PATH", "./data/circuit.db"),
		CatalogFile:  getEnv("CIRCUIT_CATALOG_FILE", ""),
		LogMode:      getEnv("CIRCUIT_LOG_MODE", "dev"),
		Provider:     Provider(strings.ToLower(getEnv("CIRCUIT_LLM_PROVIDER", string(ProviderAnthropic)))),
		Model:        getEnv("CIRCUIT_LLM_MODEL", ""),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: boolEnv("OTEL_EXPORTER_OTLP_INSECURE"),
		NoLLM:        boolEnv("CIRCUIT_NO_LLM"),
		PDFPage:      strings.ToLower(getEnv("CIRCUIT_PDF_PAGE", "a4")),
	}
	if port := getEnv("PORT", ""); port != "" && os.Getenv("CIRCUIT_ADDR") == "" {
		cfg.Addr = ":" + port
	}
	switch cfg.Provider {
	case ProviderAnthropic, ProviderGemini:
	default:
		return Config{}, fmt.Errorf("CIRCUIT_LLM_PROVIDER: unknown provider %q", cfg.Provider)
	}

	var err error
	if cfg.MaxAttempts, err = intEnv("CIRCUIT_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("CIRCUIT_MAX_ATTEMPTS must be >= 1, got %d", cfg.MaxAttempts)
	}
	if cfg.LLMRPS, err = floatEnv("CIRCUIT_LLM_RPS", 1); err != nil {
		return Config{}, err
	}
	if cfg.LLMRPS <= 0 {
		return Config{}, fmt.Errorf("CIRCUIT_LLM_RPS must be > 0, got %v", cfg.LLMRPS)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func boolEnv(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func intEnv(key string, def int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
