package types

// Config represents the overall application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	Analysis  AnalysisConfig  `yaml:"analysis" json:"analysis"`
	Export    ExportConfig    `yaml:"export" json:"export"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string   `yaml:"host" json:"host"`
	Port         int      `yaml:"port" json:"port"`
	ReadTimeout  int      `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int      `yaml:"write_timeout" json:"write_timeout"` // seconds
	CORSOrigins  []string `yaml:"cors_origins" json:"cors_origins"`
}

// StorageConfig defines storage adapter settings
type StorageConfig struct {
	Adapter string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts `yaml:"local" json:"local"`
	S3      S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"-"`
	SecretAccessKey string `yaml:"secret_access_key" json:"-"`
}

// ProvidersConfig holds all provider configurations
type ProvidersConfig struct {
	LLM []LLMProviderConfig `yaml:"llm" json:"llm"`
}

// LLMProviderConfig configures an OpenAI-compatible chat provider (Groq, Gemini, OpenAI, Ollama...)
type LLMProviderConfig struct {
	Name           string            `yaml:"name" json:"name"`
	Enabled        bool              `yaml:"enabled" json:"enabled"`
	Endpoint       string            `yaml:"endpoint" json:"endpoint"`
	APIKey         string            `yaml:"api_key" json:"-"`
	Model          string            `yaml:"model" json:"model"`
	EmbeddingModel string            `yaml:"embedding_model" json:"embedding_model,omitempty"`
	Options        map[string]string `yaml:"options" json:"options,omitempty"` // timeout, temperature, max_tokens
}

// RetrievalConfig configures the knowledge-base lookup used to enrich prompts
type RetrievalConfig struct {
	Backend    string `yaml:"backend" json:"backend"` // "none" or "chroma"
	Endpoint   string `yaml:"endpoint" json:"endpoint"`
	Collection string `yaml:"collection" json:"collection"`
	Provider   string `yaml:"provider" json:"provider"` // LLM provider used for query embeddings
	TopK       int    `yaml:"top_k" json:"top_k"`
}

// AnalysisConfig holds document analysis settings
type AnalysisConfig struct {
	DefaultProvider  string `yaml:"default_provider" json:"default_provider"`
	RefineProvider   string `yaml:"refine_provider" json:"refine_provider"`
	MaxUploadMB      int    `yaml:"max_upload_mb" json:"max_upload_mb"`
	MaxDocumentChars int    `yaml:"max_document_chars" json:"max_document_chars"`
}

// ExportConfig holds report rendering settings
type ExportConfig struct {
	FontPath string `yaml:"font_path" json:"font_path"` // UTF-8 TTF, required for Arabic output
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json or text
}
