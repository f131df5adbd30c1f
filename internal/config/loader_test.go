package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/unalkalkan/la5asni/pkg/types"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
server:
  host: "localhost"
  port: 9090
  read_timeout: 10
  write_timeout: 10
  cors_origins: ["http://localhost:3000", "https://app.example.com"]

storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"

providers:
  llm:
    - name: "groq"
      enabled: true
      endpoint: "https://api.groq.com/openai/v1"
      model: "llama3-70b-8192"
      options:
        temperature: "0.2"
        max_tokens: "2048"
    - name: "gemini"
      enabled: false
      endpoint: "https://generativelanguage.googleapis.com/v1beta/openai"
      model: "gemini-2.0-flash"

analysis:
  default_provider: "groq"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.Server.CORSOrigins))
	}
	if cfg.Storage.Local.BasePath != "/tmp/test" {
		t.Errorf("Expected base_path '/tmp/test', got '%s'", cfg.Storage.Local.BasePath)
	}
	if len(cfg.Providers.LLM) != 2 {
		t.Fatalf("Expected 2 LLM providers, got %d", len(cfg.Providers.LLM))
	}
	if cfg.Providers.LLM[0].Options["max_tokens"] != "2048" {
		t.Errorf("Expected max_tokens option '2048', got '%s'", cfg.Providers.LLM[0].Options["max_tokens"])
	}

	// Defaults filled in by Validate
	if cfg.Retrieval.Backend != "none" {
		t.Errorf("Expected retrieval backend 'none', got '%s'", cfg.Retrieval.Backend)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("Expected top_k 5, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Analysis.RefineProvider != "groq" {
		t.Errorf("Expected refine provider to default to 'groq', got '%s'", cfg.Analysis.RefineProvider)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*types.Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *types.Config) {},
			wantErr: false,
		},
		{
			name: "invalid port",
			modify: func(c *types.Config) {
				c.Server.Port = 0
			},
			wantErr: true,
		},
		{
			name: "invalid storage adapter",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "invalid"
			},
			wantErr: true,
		},
		{
			name: "missing local base path",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "local"
				c.Storage.Local.BasePath = ""
			},
			wantErr: true,
		},
		{
			name: "relative local base path",
			modify: func(c *types.Config) {
				c.Storage.Local.BasePath = "data/storage"
			},
			wantErr: true,
		},
		{
			name: "missing s3 bucket",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "s3"
				c.Storage.S3.Bucket = ""
			},
			wantErr: true,
		},
		{
			name: "valid s3",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "s3"
				c.Storage.S3.Bucket = "la5asni"
				c.Storage.S3.Region = "eu-central-1"
			},
			wantErr: false,
		},
		{
			name: "duplicate provider",
			modify: func(c *types.Config) {
				c.Providers.LLM = []types.LLMProviderConfig{{Name: "groq"}, {Name: "groq"}}
			},
			wantErr: true,
		},
		{
			name: "unnamed provider",
			modify: func(c *types.Config) {
				c.Providers.LLM = []types.LLMProviderConfig{{Model: "x"}}
			},
			wantErr: true,
		},
		{
			name: "chroma without collection",
			modify: func(c *types.Config) {
				c.Retrieval.Backend = "chroma"
				c.Retrieval.Endpoint = "http://localhost:8001"
				c.Retrieval.Provider = "openai"
			},
			wantErr: true,
		},
		{
			name: "unknown retrieval backend",
			modify: func(c *types.Config) {
				c.Retrieval.Backend = "pinecone"
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *types.Config) {
				c.Logging.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefault()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
server:
  host: "localhost"
  port: 8080
storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"
providers:
  llm:
    - name: "groq"
      enabled: true
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv("LA_SERVER_PORT", "9999")
	t.Setenv("LA_STORAGE_LOCAL_BASE_PATH", "/tmp/override")
	t.Setenv("LA_LLM_GROQ_API_KEY", "secret")
	t.Setenv("LA_SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env override, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Local.BasePath != "/tmp/override" {
		t.Errorf("Expected base_path '/tmp/override' from env override, got '%s'", cfg.Storage.Local.BasePath)
	}
	if cfg.Providers.LLM[0].APIKey != "secret" {
		t.Errorf("Expected API key from env override, got '%s'", cfg.Providers.LLM[0].APIKey)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("Unexpected CORS origins: %v", cfg.Server.CORSOrigins)
	}
}

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()
	if cfg == nil {
		t.Fatal("GetDefault() returned nil")
	}
	if cfg.Server.Port <= 0 {
		t.Error("Default config has invalid port")
	}
	if cfg.Storage.Adapter == "" {
		t.Error("Default config has empty storage adapter")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}
