// Lexrag-ingest builds the legal citation index.
//
// It reads a CSV manifest of source documents, segments each PDF into
// paragraph chunks, embeds the chunks via Ollama and upserts them into
// Qdrant. Re-running over the same manifest replaces points in place.
//
// Usage:
//
//	lexrag-ingest -manifest metadata.csv -docs ./documents
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lexhaven/lexrag/internal/config"
	"github.com/lexhaven/lexrag/internal/document"
	"github.com/lexhaven/lexrag/internal/embeddings"
	"github.com/lexhaven/lexrag/internal/ingest"
	"github.com/lexhaven/lexrag/internal/logging"
	"github.com/lexhaven/lexrag/internal/qdrant"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	manifestPath := flag.String("manifest", "", "path to the CSV manifest (overrides config)")
	documentDir := flag.String("docs", "", "directory containing the source documents (overrides config)")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*configPath, *manifestPath, *documentDir); err != nil {
		log.Fatalf("lexrag-ingest: %v", err)
	}
}

func run(configPath, manifestPath, documentDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if manifestPath != "" {
		cfg.Ingest.ManifestPath = manifestPath
	}
	if documentDir != "" {
		cfg.Ingest.DocumentDir = documentDir
	}
	if cfg.Ingest.ManifestPath == "" {
		return fmt.Errorf("manifest path is required (set -manifest or INGEST_MANIFEST_PATH)")
	}
	if cfg.Ingest.DocumentDir == "" {
		return fmt.Errorf("document directory is required (set -docs or INGEST_DOCUMENT_DIR)")
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(&logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Fields: map[string]string{"service": "lexrag-ingest"},
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := ingest.ReadManifest(cfg.Ingest.ManifestPath)
	if err != nil {
		return err
	}
	logger.Info(ctx, "manifest loaded",
		zap.String("path", cfg.Ingest.ManifestPath),
		zap.Int("entries", len(entries)),
	)

	store, err := qdrant.NewGRPCClient(&qdrant.ClientConfig{
		Host:           cfg.Qdrant.Host,
		Port:           cfg.Qdrant.Port,
		UseTLS:         cfg.Qdrant.UseTLS,
		APIKey:         cfg.Qdrant.APIKey,
		RequestTimeout: cfg.Qdrant.RequestTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.EmbeddingModel,
	})
	if err != nil {
		return err
	}
	if err := embedder.Healthcheck(ctx); err != nil {
		return err
	}

	pipeline, err := ingest.New(ingest.Config{
		Collection:   cfg.Qdrant.Collection,
		VectorSize:   cfg.Qdrant.VectorSize,
		DocumentDir:  cfg.Ingest.DocumentDir,
		Workers:      cfg.Ingest.Workers,
		GapThreshold: cfg.Segment.ParagraphGapThreshold,
	}, store, embedder, document.NewPDFOpener(), logger)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(ctx, entries)
	if err != nil {
		return err
	}

	for _, outcome := range report.Outcomes {
		if outcome.Status == ingest.StatusFailed {
			logger.Warn(ctx, "document failed",
				zap.String("filename", outcome.Filename),
				zap.String("reason", outcome.Reason),
				zap.Error(outcome.Err),
			)
		}
	}

	ingested, skipped, failed := report.Counts()
	if failed > 0 {
		return fmt.Errorf("ingestion finished with failures: %d ingested, %d skipped, %d failed",
			ingested, skipped, failed)
	}
	logger.Info(ctx, "ingestion finished",
		zap.Int("ingested", ingested),
		zap.Int("skipped", skipped),
	)
	return nil
}
