package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexhaven/lexrag/internal/qdrant"
)

func scored(filename string, page, para int64, text string, score float32) *qdrant.ScoredPoint {
	return &qdrant.ScoredPoint{
		Point: qdrant.Point{
			Payload: map[string]interface{}{
				qdrant.FieldFilename:        filename,
				qdrant.FieldPageNumber:      page,
				qdrant.FieldParagraphNumber: para,
				qdrant.FieldTextChunk:       text,
			},
		},
		Score: score,
	}
}

func TestComposeQuery(t *testing.T) {
	t.Run("with document", func(t *testing.T) {
		got := ComposeQuery("Is this lease valid?", "LEASE AGREEMENT ...")
		assert.Equal(t, "USER'S DOCUMENT:\nLEASE AGREEMENT ...\n\nUSER'S QUESTION:\nIs this lease valid?", got)
	})

	t.Run("question only", func(t *testing.T) {
		got := ComposeQuery("What is the notice period?", "")
		assert.Equal(t, "USER'S QUESTION ONLY:\nWhat is the notice period?", got)
	})
}

func TestRenderChunks(t *testing.T) {
	t.Run("numbers chunks in result order with citations", func(t *testing.T) {
		got := RenderChunks([]*qdrant.ScoredPoint{
			scored("civil_code.pdf", 12, 3, "The notice period shall be thirty days.", 0.91),
			scored("housing_act.pdf", 4, 1, "A lease must be in writing.", 0.85),
		})

		assert.Contains(t, got, "--- Legal Chunk 1 [Source: civil_code.pdf, Page: 12, Para: 3] ---")
		assert.Contains(t, got, "--- Legal Chunk 2 [Source: housing_act.pdf, Page: 4, Para: 1] ---")
		assert.Contains(t, got, "The notice period shall be thirty days.")
		assert.Less(t,
			strings.Index(got, "Legal Chunk 1"),
			strings.Index(got, "Legal Chunk 2"),
		)
	})

	t.Run("missing payload fields render as N/A", func(t *testing.T) {
		got := RenderChunks([]*qdrant.ScoredPoint{
			{Point: qdrant.Point{Payload: map[string]interface{}{}}, Score: 0.8},
		})
		assert.Contains(t, got, "[Source: N/A, Page: N/A, Para: N/A]")
		assert.Contains(t, got, "No text available.")
	})

	t.Run("no results yields the notice", func(t *testing.T) {
		assert.Equal(t, noChunksNotice, RenderChunks(nil))
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("contains all sections in order", func(t *testing.T) {
		got := BuildPrompt("Is this valid?", "contract text", "chunk section")

		sections := []string{
			"highly specialized legal analyst",
			"--- USER'S QUESTION ---",
			"Is this valid?",
			"--- USER'S DOCUMENT TEXT ---",
			"contract text",
			"--- RELEVANT LEGAL CHUNKS FROM KNOWLEDGE BASE ---",
			"chunk section",
			"--- FINAL ANALYSIS ---",
		}
		last := -1
		for _, s := range sections {
			idx := strings.Index(got, s)
			assert.Greater(t, idx, last, "section %q out of order", s)
			last = idx
		}
	})

	t.Run("placeholder when no document", func(t *testing.T) {
		got := BuildPrompt("question", "", "chunks")
		assert.Contains(t, got, "[No user document provided]")
	})
}
