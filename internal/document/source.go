// Package document reads source documents into per-page text blocks for
// segmentation.
package document

import "github.com/lexhaven/lexrag/internal/segment"

// Document is an open source document whose pages can be read as blocks.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// Page returns the blocks of the 1-based page n.
	Page(n int) (segment.Page, error)

	// Close releases the underlying file handle.
	Close() error
}

// Opener opens a source document by path. The ingestion pipeline depends on
// this interface so it can be tested without real files.
type Opener interface {
	Open(path string) (Document, error)
}
