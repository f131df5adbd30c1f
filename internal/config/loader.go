package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unalkalkan/la5asni/pkg/types"
	"gopkg.in/yaml.v3"
)

const envPrefix = "LA_"

// Load reads and parses the configuration file
// It also supports environment variable overrides with LA_ prefix
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid and fills in defaults
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	switch cfg.Storage.Adapter {
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	default:
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	seen := make(map[string]bool)
	for _, p := range cfg.Providers.LLM {
		if p.Name == "" {
			return fmt.Errorf("llm provider name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate llm provider: %s", p.Name)
		}
		seen[p.Name] = true
	}

	switch cfg.Retrieval.Backend {
	case "", "none":
		cfg.Retrieval.Backend = "none"
	case "chroma":
		if cfg.Retrieval.Endpoint == "" {
			return fmt.Errorf("chroma retrieval endpoint is required")
		}
		if cfg.Retrieval.Collection == "" {
			return fmt.Errorf("chroma retrieval collection is required")
		}
		if cfg.Retrieval.Provider == "" {
			return fmt.Errorf("chroma retrieval requires an embedding provider")
		}
	default:
		return fmt.Errorf("invalid retrieval backend: %s (must be 'none' or 'chroma')", cfg.Retrieval.Backend)
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 5
	}

	if cfg.Analysis.MaxUploadMB <= 0 {
		cfg.Analysis.MaxUploadMB = 25
	}
	if cfg.Analysis.MaxDocumentChars <= 0 {
		cfg.Analysis.MaxDocumentChars = 24000
	}
	if cfg.Analysis.RefineProvider == "" {
		cfg.Analysis.RefineProvider = cfg.Analysis.DefaultProvider
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid logging format: %s (must be 'json' or 'text')", cfg.Logging.Format)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides
// Environment variables should be prefixed with LA_
func applyEnvOverrides(cfg *types.Config) {
	if val := os.Getenv(envPrefix + "SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv(envPrefix + "SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv(envPrefix + "SERVER_CORS_ORIGINS"); val != "" {
		cfg.Server.CORSOrigins = splitList(val)
	}

	if val := os.Getenv(envPrefix + "STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv(envPrefix + "STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv(envPrefix + "STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv(envPrefix + "STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv(envPrefix + "STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv(envPrefix + "STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv(envPrefix + "STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}

	if val := os.Getenv(envPrefix + "RETRIEVAL_BACKEND"); val != "" {
		cfg.Retrieval.Backend = val
	}
	if val := os.Getenv(envPrefix + "RETRIEVAL_ENDPOINT"); val != "" {
		cfg.Retrieval.Endpoint = val
	}
	if val := os.Getenv(envPrefix + "RETRIEVAL_COLLECTION"); val != "" {
		cfg.Retrieval.Collection = val
	}

	if val := os.Getenv(envPrefix + "ANALYSIS_DEFAULT_PROVIDER"); val != "" {
		cfg.Analysis.DefaultProvider = val
	}

	if val := os.Getenv(envPrefix + "LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv(envPrefix + "LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	applyProviderEnvOverrides(cfg)
}

// applyProviderEnvOverrides applies provider-specific env vars,
// e.g. LA_LLM_GROQ_API_KEY or LA_LLM_GEMINI_ENDPOINT
func applyProviderEnvOverrides(cfg *types.Config) {
	for i := range cfg.Providers.LLM {
		name := strings.ToUpper(strings.ReplaceAll(cfg.Providers.LLM[i].Name, "-", "_"))
		prefix := fmt.Sprintf("%sLLM_%s_", envPrefix, name)
		if val := os.Getenv(prefix + "API_KEY"); val != "" {
			cfg.Providers.LLM[i].APIKey = val
		}
		if val := os.Getenv(prefix + "ENDPOINT"); val != "" {
			cfg.Providers.LLM[i].Endpoint = val
		}
		if val := os.Getenv(prefix + "MODEL"); val != "" {
			cfg.Providers.LLM[i].Model = val
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  30,
			WriteTimeout: 120,
			CORSOrigins:  []string{"http://localhost:3000"},
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/la5asni/storage",
			},
		},
		Retrieval: types.RetrievalConfig{
			Backend: "none",
			TopK:    5,
		},
		Analysis: types.AnalysisConfig{
			DefaultProvider:  "groq",
			MaxUploadMB:      25,
			MaxDocumentChars: 24000,
		},
		Logging: types.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
