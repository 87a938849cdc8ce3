// Package ingest reads a CSV manifest of source documents, segments each
// document into paragraph chunks, embeds the chunks and upserts them into
// the citation index.
//
// Re-running the pipeline over the same manifest is idempotent: point IDs
// are derived deterministically from source identity and position, so a
// second run replaces points instead of duplicating them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexhaven/lexrag/internal/document"
	"github.com/lexhaven/lexrag/internal/embeddings"
	"github.com/lexhaven/lexrag/internal/logging"
	"github.com/lexhaven/lexrag/internal/qdrant"
	"github.com/lexhaven/lexrag/internal/segment"
)

// pointNamespace is the fixed UUIDv5 namespace for paragraph point IDs.
// Changing it would re-key every point in the index.
var pointNamespace = uuid.MustParse("8f7f48d2-5a1c-4f0e-9e2b-3d6c1a9b7e44")

// ErrInvalidConfig indicates invalid pipeline configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Status classifies the result of processing one manifest entry.
type Status string

const (
	// StatusIngested means the document's chunks were upserted.
	StatusIngested Status = "ingested"

	// StatusSkipped means the entry was not processed (incomplete row,
	// missing file, or no extractable text).
	StatusSkipped Status = "skipped"

	// StatusFailed means processing was attempted and errored. A failed
	// document never stops the rest of the batch.
	StatusFailed Status = "failed"
)

// Outcome is the per-document result of a pipeline run.
type Outcome struct {
	Filename string
	SourceID string
	Status   Status
	Chunks   int
	Reason   string
	Err      error
}

// Report aggregates the outcomes of one batch run.
type Report struct {
	Outcomes []Outcome
}

// Counts returns the number of ingested, skipped and failed documents.
func (r *Report) Counts() (ingested, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusIngested:
			ingested++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return ingested, skipped, failed
}

// Config holds pipeline configuration.
type Config struct {
	// Collection is the Qdrant collection receiving the points.
	Collection string

	// VectorSize is the embedding dimensionality used when the collection
	// has to be created.
	VectorSize uint64

	// DocumentDir is the directory manifest filenames resolve against.
	DocumentDir string

	// Workers bounds how many documents are processed concurrently.
	Workers int

	// GapThreshold is the vertical gap that starts a new paragraph.
	// Zero selects the segmenter default.
	GapThreshold float64
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Collection == "" {
		return fmt.Errorf("%w: collection required", ErrInvalidConfig)
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("%w: vector size required", ErrInvalidConfig)
	}
	if c.DocumentDir == "" {
		return fmt.Errorf("%w: document directory required", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Pipeline ingests manifest entries into the citation index.
type Pipeline struct {
	config    Config
	store     qdrant.Client
	embedder  embeddings.Embedder
	opener    document.Opener
	segmenter *segment.Segmenter
	logger    *logging.Logger
}

// New creates a pipeline.
func New(cfg Config, store qdrant.Client, embedder embeddings.Embedder, opener document.Opener, logger *logging.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if store == nil || embedder == nil || opener == nil || logger == nil {
		return nil, fmt.Errorf("%w: store, embedder, opener and logger are required", ErrInvalidConfig)
	}

	return &Pipeline{
		config:    cfg,
		store:     store,
		embedder:  embedder,
		opener:    opener,
		segmenter: segment.New(cfg.GapThreshold),
		logger:    logger,
	}, nil
}

// Run processes every manifest entry and returns the batch report.
//
// The collection is created up front if absent; a failure there is fatal
// because nothing could be upserted. Per-document failures are isolated:
// they are recorded in the report and do not stop other documents.
func (p *Pipeline) Run(ctx context.Context, entries []ManifestEntry) (*Report, error) {
	if err := p.store.EnsureCollection(ctx, p.config.Collection, p.config.VectorSize); err != nil {
		return nil, fmt.Errorf("ensuring collection %s: %w", p.config.Collection, err)
	}

	outcomes := make([]Outcome, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for i, entry := range entries {
		g.Go(func() error {
			outcomes[i] = p.processEntry(gctx, entry)
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{Outcomes: outcomes}
	ingested, skipped, failed := report.Counts()
	p.logger.Info(ctx, "ingestion run complete",
		zap.Int("ingested", ingested),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return report, nil
}

func (p *Pipeline) processEntry(ctx context.Context, entry ManifestEntry) Outcome {
	log := p.logger
	outcome := Outcome{Filename: entry.Filename, SourceID: entry.SourceID}

	if entry.Filename == "" || entry.SourceID == "" {
		outcome.Status = StatusSkipped
		outcome.Reason = "manifest row missing filename or source_id"
		log.Warn(ctx, "skipping incomplete manifest row",
			zap.String("filename", entry.Filename),
			zap.String("source_id", entry.SourceID),
		)
		return outcome
	}

	path := filepath.Join(p.config.DocumentDir, entry.Filename)
	if _, err := os.Stat(path); err != nil {
		outcome.Status = StatusSkipped
		outcome.Reason = "file not found"
		log.Warn(ctx, "skipping missing document",
			zap.String("path", path),
			zap.String("source_id", entry.SourceID),
		)
		return outcome
	}

	chunks, err := p.extractChunks(path)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = "extraction failed"
		outcome.Err = err
		log.Error(ctx, "document extraction failed",
			zap.String("path", path),
			zap.String("source_id", entry.SourceID),
			zap.Error(err),
		)
		return outcome
	}

	if len(chunks) == 0 {
		outcome.Status = StatusSkipped
		outcome.Reason = "no text chunks extracted"
		log.Warn(ctx, "document produced no text chunks",
			zap.String("path", path),
			zap.String("source_id", entry.SourceID),
		)
		return outcome
	}

	points, err := p.buildPoints(ctx, entry, chunks)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = "embedding failed"
		outcome.Err = err
		log.Error(ctx, "embedding document chunks failed",
			zap.String("filename", entry.Filename),
			zap.String("source_id", entry.SourceID),
			zap.Error(err),
		)
		return outcome
	}

	if err := p.store.Upsert(ctx, p.config.Collection, points); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = "upsert failed"
		outcome.Err = err
		log.Error(ctx, "upserting document chunks failed",
			zap.String("filename", entry.Filename),
			zap.String("source_id", entry.SourceID),
			zap.Error(err),
		)
		return outcome
	}

	outcome.Status = StatusIngested
	outcome.Chunks = len(points)
	log.Info(ctx, "document ingested",
		zap.String("filename", entry.Filename),
		zap.String("source_id", entry.SourceID),
		zap.Int("chunks", len(points)),
	)
	return outcome
}

// extractChunks reads every page of the document and segments it into
// paragraph chunks with per-page paragraph numbering.
func (p *Pipeline) extractChunks(path string) ([]segment.ParagraphChunk, error) {
	doc, err := p.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer doc.Close()

	var chunks []segment.ParagraphChunk
	for n := 1; n <= doc.PageCount(); n++ {
		page, err := doc.Page(n)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", n, err)
		}
		chunks = append(chunks, p.segmenter.Segment(page)...)
	}
	return chunks, nil
}

// buildPoints embeds the chunks in one batch and pairs each vector with
// its citation payload under a deterministic ID.
func (p *Pipeline) buildPoints(ctx context.Context, entry ManifestEntry, chunks []segment.ParagraphChunk) ([]*qdrant.Point, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]*qdrant.Point, len(chunks))
	for i, c := range chunks {
		points[i] = &qdrant.Point{
			ID:     PointID(entry.SourceID, c.PageNumber, c.ParagraphNumber),
			Vector: vectors[i],
			Payload: map[string]interface{}{
				qdrant.FieldFilename:        entry.Filename,
				qdrant.FieldSourceID:        entry.SourceID,
				qdrant.FieldPageNumber:      c.PageNumber,
				qdrant.FieldParagraphNumber: c.ParagraphNumber,
				qdrant.FieldTextChunk:       c.Text,
			},
		}
	}
	return points, nil
}

// PointID derives the stable UUID for a paragraph from its source identity
// and position. The same paragraph always maps to the same point, which is
// what makes re-ingestion an in-place replace.
func PointID(sourceID string, pageNumber, paragraphNumber int) string {
	name := fmt.Sprintf("%s/%d/%d", sourceID, pageNumber, paragraphNumber)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}
