// Package qdrant wraps the official Qdrant Go client for the legal
// citation index.
//
// Points in the index carry one paragraph of source text each, with the
// metadata needed to render a citation: source file, page number and
// paragraph number.
package qdrant

import (
	"context"
	"errors"
)

// Payload field names for indexed paragraph points.
const (
	FieldFilename        = "filename"
	FieldSourceID        = "source_id"
	FieldPageNumber      = "page_number"
	FieldParagraphNumber = "paragraph_number"
	FieldTextChunk       = "text_chunk"
)

// ErrConnectionFailed indicates the Qdrant server could not be reached.
var ErrConnectionFailed = errors.New("failed to connect to qdrant")

// Point is one indexed paragraph: a stable ID, its embedding, and the
// citation payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// ScoredPoint is a search hit with its similarity score.
type ScoredPoint struct {
	Point
	Score float32
}

// Client is the interface for vector index operations.
//
// Implementations must be safe for concurrent use: the query server issues
// searches from multiple in-flight requests against one shared client.
type Client interface {
	// Health checks connectivity. Used for fatal startup verification.
	Health(ctx context.Context) error

	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection for cosine-distance vectors of
	// the given size.
	CreateCollection(ctx context.Context, name string, vectorSize uint64) error

	// EnsureCollection creates the collection if it does not exist. An
	// existence-check failure is not fatal; creation is still attempted.
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) error

	// Upsert inserts or replaces points as one batch, waiting for the
	// server to acknowledge the write before returning.
	Upsert(ctx context.Context, collection string, points []*Point) error

	// Search returns up to limit points ordered by descending similarity.
	// Points scoring below minScore are excluded by the server.
	Search(ctx context.Context, collection string, vector []float32, limit uint64, minScore float32) ([]*ScoredPoint, error)

	// Close closes the client connection.
	Close() error
}
