// Package config provides configuration loading for lexrag.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for both the query server and the
// ingestion job.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Qdrant    QdrantConfig    `koanf:"qdrant"`
	Ollama    OllamaConfig    `koanf:"ollama"`
	Parser    ParserConfig    `koanf:"parser"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Segment   SegmentConfig   `koanf:"segment"`
	Upload    UploadConfig    `koanf:"upload"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// QdrantConfig holds vector store connection and collection settings.
type QdrantConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	UseTLS         bool          `koanf:"use_tls"`
	APIKey         string        `koanf:"api_key"`
	Collection     string        `koanf:"collection"`
	VectorSize     uint64        `koanf:"vector_size"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// OllamaConfig holds the embedding and completion model settings.
type OllamaConfig struct {
	BaseURL           string        `koanf:"base_url"`
	EmbeddingModel    string        `koanf:"embedding_model"`
	CompletionModel   string        `koanf:"completion_model"`
	CompletionTimeout time.Duration `koanf:"completion_timeout"`
}

// ParserConfig holds the external document-parse service settings.
type ParserConfig struct {
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// IngestConfig holds batch ingestion settings.
type IngestConfig struct {
	ManifestPath string `koanf:"manifest_path"`
	DocumentDir  string `koanf:"document_dir"`
	Workers      int    `koanf:"workers"`
}

// RetrievalConfig holds similarity search settings.
type RetrievalConfig struct {
	TopK     uint64  `koanf:"top_k"`
	MinScore float32 `koanf:"min_score"`
}

// SegmentConfig holds paragraph segmentation settings.
type SegmentConfig struct {
	ParagraphGapThreshold float64 `koanf:"paragraph_gap_threshold"`
}

// UploadConfig holds upload validation settings for the query endpoint.
type UploadConfig struct {
	MaxFileBytes      int64    `koanf:"max_file_bytes"`
	AllowedMediaTypes []string `koanf:"allowed_media_types"`
}

// applyDefaults sets default values for missing configuration fields.
// Defaults match the knowledge base the index was built for: 768-dim
// nomic-embed-text vectors under cosine distance.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "local_citations"
	}
	if cfg.Qdrant.VectorSize == 0 {
		cfg.Qdrant.VectorSize = 768 // nomic-embed-text dimensions
	}
	if cfg.Qdrant.RequestTimeout == 0 {
		cfg.Qdrant.RequestTimeout = 30 * time.Second
	}

	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Ollama.EmbeddingModel == "" {
		cfg.Ollama.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.Ollama.CompletionModel == "" {
		cfg.Ollama.CompletionModel = "llama3.2:8b"
	}
	if cfg.Ollama.CompletionTimeout == 0 {
		cfg.Ollama.CompletionTimeout = 2 * time.Minute
	}

	if cfg.Parser.RequestTimeout == 0 {
		cfg.Parser.RequestTimeout = 90 * time.Second
	}

	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 4
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.MinScore == 0 {
		cfg.Retrieval.MinScore = 0.7
	}

	if cfg.Segment.ParagraphGapThreshold == 0 {
		cfg.Segment.ParagraphGapThreshold = 12
	}

	if cfg.Upload.MaxFileBytes == 0 {
		cfg.Upload.MaxFileBytes = 5 * 1024 * 1024
	}
	if len(cfg.Upload.AllowedMediaTypes) == 0 {
		cfg.Upload.AllowedMediaTypes = []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"image/png",
			"image/jpeg",
			"image/jpg",
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("invalid qdrant port: %d", c.Qdrant.Port)
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("qdrant collection name is required")
	}
	if c.Qdrant.VectorSize == 0 {
		return fmt.Errorf("qdrant vector size is required")
	}
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama base URL is required")
	}
	if c.Retrieval.TopK == 0 {
		return fmt.Errorf("retrieval top_k must be positive")
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval min_score must be in [0, 1], got %v", c.Retrieval.MinScore)
	}
	if c.Segment.ParagraphGapThreshold <= 0 {
		return fmt.Errorf("segment paragraph_gap_threshold must be positive")
	}
	if c.Upload.MaxFileBytes <= 0 {
		return fmt.Errorf("upload max_file_bytes must be positive")
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest workers must be positive")
	}
	return nil
}
