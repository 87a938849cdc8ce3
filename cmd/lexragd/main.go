// Lexragd serves the legal analysis API.
//
// It answers questions over HTTP by combining an optional uploaded document
// with paragraphs retrieved from the Qdrant citation index, then asking a
// local Ollama model for the final analysis.
//
// Configuration comes from an optional YAML file plus environment variable
// overrides. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	lexragd
//
//	# Configure via environment
//	SERVER_PORT=9000 QDRANT_HOST=10.0.0.5 lexragd
//
//	# Or a config file
//	lexragd -config config.yaml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lexhaven/lexrag/internal/config"
	"github.com/lexhaven/lexrag/internal/embeddings"
	"github.com/lexhaven/lexrag/internal/httpapi"
	"github.com/lexhaven/lexrag/internal/llm"
	"github.com/lexhaven/lexrag/internal/logging"
	"github.com/lexhaven/lexrag/internal/parser"
	"github.com/lexhaven/lexrag/internal/qdrant"
	"github.com/lexhaven/lexrag/internal/rag"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	// A missing .env file is fine; environment may be set externally.
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		log.Fatalf("lexragd: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(&logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Fields: map[string]string{"service": "lexragd"},
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Every dependency is verified up front; a dead backend at startup is
	// fatal rather than a surprise on the first request.
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

	exists, err := store.CollectionExists(ctx, cfg.Qdrant.Collection)
	if err != nil {
		return err
	}
	if !exists {
		logger.Warn(ctx, "collection does not exist; run lexrag-ingest first",
			zap.String("collection", cfg.Qdrant.Collection))
	}

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

	completer, err := llm.NewService(llm.Config{
		BaseURL:        cfg.Ollama.BaseURL,
		Model:          cfg.Ollama.CompletionModel,
		RequestTimeout: cfg.Ollama.CompletionTimeout,
	})
	if err != nil {
		return err
	}

	docParser, err := parser.NewClient(parser.Config{
		BaseURL:        cfg.Parser.BaseURL,
		APIKey:         cfg.Parser.APIKey,
		RequestTimeout: cfg.Parser.RequestTimeout,
	})
	if err != nil {
		return err
	}

	orchestrator, err := rag.New(rag.Config{
		Collection:        cfg.Qdrant.Collection,
		TopK:              cfg.Retrieval.TopK,
		MinScore:          cfg.Retrieval.MinScore,
		MaxFileBytes:      cfg.Upload.MaxFileBytes,
		AllowedMediaTypes: cfg.Upload.AllowedMediaTypes,
	}, store, embedder, completer, docParser, logger)
	if err != nil {
		return err
	}

	server, err := httpapi.NewServer(orchestrator, logger, httpapi.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
