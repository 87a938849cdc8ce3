// Package rag answers legal questions by combining an optional uploaded
// document with paragraphs retrieved from the citation index.
//
// The flow for one request: validate and parse the upload if present,
// embed a composed query, retrieve scored paragraphs from Qdrant, assemble
// the analyst prompt and ask the completion model for the final answer.
package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lexhaven/lexrag/internal/embeddings"
	"github.com/lexhaven/lexrag/internal/llm"
	"github.com/lexhaven/lexrag/internal/logging"
	"github.com/lexhaven/lexrag/internal/parser"
	"github.com/lexhaven/lexrag/internal/qdrant"
)

// Request-level errors the caller can map to client responses. Anything
// else coming out of Analyze is an internal failure.
var (
	// ErrEmptyQuery indicates a missing or blank user question.
	ErrEmptyQuery = errors.New("user query must not be empty")

	// ErrUnsupportedMediaType indicates an upload outside the allow-list.
	ErrUnsupportedMediaType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates an upload over the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrEmptyParse indicates the parse service returned no text for an
	// upload, so there is nothing to analyze.
	ErrEmptyParse = errors.New("empty parse result for document")

	// ErrInvalidConfig indicates invalid orchestrator configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Upload is a user-provided document accompanying a question. Reader is
// consumed at most once, and only after the media type passes validation.
type Upload struct {
	Filename  string
	MediaType string
	Reader    io.Reader
}

// Answer is the result of one analysis request.
type Answer struct {
	// Text is the model's final analysis.
	Text string

	// RetrievedCount is how many knowledge-base paragraphs scored above
	// the threshold and informed the answer.
	RetrievedCount int
}

// Config holds orchestrator configuration.
type Config struct {
	// Collection is the Qdrant collection searched for legal paragraphs.
	Collection string

	// TopK caps how many paragraphs are retrieved per query.
	TopK uint64

	// MinScore is the similarity floor; hits below it are discarded by
	// the server.
	MinScore float32

	// MaxFileBytes is the upload size limit.
	MaxFileBytes int64

	// AllowedMediaTypes is the upload content-type allow-list.
	AllowedMediaTypes []string
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Collection == "" {
		return fmt.Errorf("%w: collection required", ErrInvalidConfig)
	}
	if c.TopK == 0 {
		return fmt.Errorf("%w: top-k must be positive", ErrInvalidConfig)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("%w: min score must be in [0, 1]", ErrInvalidConfig)
	}
	if c.MaxFileBytes <= 0 {
		return fmt.Errorf("%w: max file bytes must be positive", ErrInvalidConfig)
	}
	if len(c.AllowedMediaTypes) == 0 {
		return fmt.Errorf("%w: at least one allowed media type required", ErrInvalidConfig)
	}
	return nil
}

// Orchestrator runs the retrieval-augmented analysis flow.
type Orchestrator struct {
	config    Config
	store     qdrant.Client
	embedder  embeddings.Embedder
	completer llm.Completer
	parser    parser.Parser
	allowed   map[string]struct{}
	logger    *logging.Logger
}

// New creates an orchestrator.
func New(cfg Config, store qdrant.Client, embedder embeddings.Embedder, completer llm.Completer, docParser parser.Parser, logger *logging.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if store == nil || embedder == nil || completer == nil || docParser == nil || logger == nil {
		return nil, fmt.Errorf("%w: all dependencies are required", ErrInvalidConfig)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedMediaTypes))
	for _, mt := range cfg.AllowedMediaTypes {
		allowed[strings.ToLower(mt)] = struct{}{}
	}

	return &Orchestrator{
		config:    cfg,
		store:     store,
		embedder:  embedder,
		completer: completer,
		parser:    docParser,
		allowed:   allowed,
		logger:    logger,
	}, nil
}

// Analyze answers userQuery, optionally grounded in an uploaded document.
//
// Upload validation happens before any embedding or retrieval work so a
// rejected file costs nothing downstream. Retrieval returning zero hits is
// not an error: the model is told the knowledge base had nothing relevant.
func (o *Orchestrator) Analyze(ctx context.Context, userQuery string, upload *Upload) (*Answer, error) {
	if strings.TrimSpace(userQuery) == "" {
		return nil, ErrEmptyQuery
	}

	var documentText string
	if upload != nil {
		text, err := o.parseUpload(ctx, upload)
		if err != nil {
			return nil, err
		}
		documentText = text
	}

	composed := ComposeQuery(userQuery, documentText)
	vector, err := o.embedder.EmbedQuery(ctx, composed)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := o.store.Search(ctx, o.config.Collection, vector, o.config.TopK, o.config.MinScore)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}
	o.logger.Info(ctx, "knowledge base searched", zap.Int("hits", len(results)))

	prompt := BuildPrompt(userQuery, documentText, RenderChunks(results))
	answer, err := o.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &Answer{Text: answer, RetrievedCount: len(results)}, nil
}

// parseUpload validates the upload, spools it to a scoped temp file and
// sends it to the parse service. The temp file is removed on every path.
func (o *Orchestrator) parseUpload(ctx context.Context, upload *Upload) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(upload.MediaType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if _, ok := o.allowed[mediaType]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, upload.MediaType)
	}

	path, err := o.spoolUpload(upload)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	o.logger.Info(ctx, "parsing uploaded file",
		zap.String("filename", upload.Filename),
		zap.String("media_type", mediaType),
	)

	docs, err := o.parser.Parse(ctx, path)
	if err != nil {
		return "", fmt.Errorf("parsing document: %w", err)
	}
	if len(docs) == 0 || strings.TrimSpace(docs[0].Text) == "" {
		return "", ErrEmptyParse
	}
	return docs[0].Text, nil
}

// spoolUpload copies the upload to a temp file, enforcing the size limit
// while copying so an oversized body is never fully buffered.
func (o *Orchestrator) spoolUpload(upload *Upload) (string, error) {
	ext := filepath.Ext(upload.Filename)
	tmp, err := os.CreateTemp("", "lexrag-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	written, err := io.Copy(tmp, io.LimitReader(upload.Reader, o.config.MaxFileBytes+1))
	closeErr := tmp.Close()
	switch {
	case err != nil:
		os.Remove(tmp.Name())
		return "", fmt.Errorf("reading upload: %w", err)
	case written > o.config.MaxFileBytes:
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, o.config.MaxFileBytes)
	case closeErr != nil:
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing upload: %w", closeErr)
	}
	return tmp.Name(), nil
}
