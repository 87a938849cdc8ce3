package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(y0, y1 float64, text string) Block {
	return Block{X0: 72, Y0: y0, X1: 500, Y1: y1, Text: text}
}

func TestSegment(t *testing.T) {
	s := New(12)

	t.Run("empty page yields no chunks", func(t *testing.T) {
		assert.Empty(t, s.Segment(Page{Number: 1}))
	})

	t.Run("whitespace-only blocks yield no chunks", func(t *testing.T) {
		chunks := s.Segment(Page{Number: 1, Blocks: []Block{
			block(100, 110, "   "),
			block(130, 140, "\n\t"),
		}})
		assert.Empty(t, chunks)
	})

	t.Run("small gaps merge into one paragraph", func(t *testing.T) {
		chunks := s.Segment(Page{Number: 1, Blocks: []Block{
			block(100, 110, "The tenant shall"),
			block(115, 125, "pay rent monthly."),
		}})

		require.Len(t, chunks, 1)
		assert.Equal(t, "The tenant shall pay rent monthly.", chunks[0].Text)
		assert.Equal(t, 1, chunks[0].ParagraphNumber)
	})

	t.Run("large gap starts a new paragraph", func(t *testing.T) {
		chunks := s.Segment(Page{Number: 1, Blocks: []Block{
			block(100, 110, "Article 1."),
			block(140, 150, "Article 2."),
		}})

		require.Len(t, chunks, 2)
		assert.Equal(t, "Article 1.", chunks[0].Text)
		assert.Equal(t, 1, chunks[0].ParagraphNumber)
		assert.Equal(t, "Article 2.", chunks[1].Text)
		assert.Equal(t, 2, chunks[1].ParagraphNumber)
	})

	t.Run("gap equal to threshold continues the paragraph", func(t *testing.T) {
		chunks := s.Segment(Page{Number: 1, Blocks: []Block{
			block(100, 110, "first"),
			block(122, 130, "second"), // gap == 12
		}})
		require.Len(t, chunks, 1)
		assert.Equal(t, "first second", chunks[0].Text)

		chunks = s.Segment(Page{Number: 1, Blocks: []Block{
			block(100, 110, "first"),
			block(123, 130, "second"), // gap == 13
		}})
		require.Len(t, chunks, 2)
	})

	t.Run("blocks are sorted into reading order", func(t *testing.T) {
		chunks := s.Segment(Page{Number: 1, Blocks: []Block{
			block(140, 150, "second"),
			block(100, 110, "first"),
		}})

		require.Len(t, chunks, 2)
		assert.Equal(t, "first", chunks[0].Text)
		assert.Equal(t, "second", chunks[1].Text)
	})

	t.Run("x breaks ties at the same height", func(t *testing.T) {
		chunks := s.Segment(Page{Number: 1, Blocks: []Block{
			{X0: 300, Y0: 100, X1: 500, Y1: 110, Text: "right"},
			{X0: 72, Y0: 100, X1: 280, Y1: 110, Text: "left"},
		}})

		require.Len(t, chunks, 1)
		assert.Equal(t, "left right", chunks[0].Text)
	})

	t.Run("chunk count never exceeds non-empty block count", func(t *testing.T) {
		blocks := []Block{
			block(100, 110, "a"),
			block(150, 160, "b"),
			block(200, 210, ""),
			block(250, 260, "c"),
		}
		chunks := s.Segment(Page{Number: 1, Blocks: blocks})
		assert.LessOrEqual(t, len(chunks), 3)
	})

	t.Run("whitespace is collapsed in chunk text", func(t *testing.T) {
		chunks := s.Segment(Page{Number: 1, Blocks: []Block{
			block(100, 110, "  The   court\n\tholds  "),
		}})

		require.Len(t, chunks, 1)
		assert.Equal(t, "The court holds", chunks[0].Text)
	})

	t.Run("paragraph numbering restarts per page", func(t *testing.T) {
		blocks := []Block{
			block(100, 110, "one"),
			block(140, 150, "two"),
		}

		first := s.Segment(Page{Number: 1, Blocks: blocks})
		second := s.Segment(Page{Number: 2, Blocks: blocks})

		require.Len(t, second, 2)
		assert.Equal(t, 1, second[0].ParagraphNumber)
		assert.Equal(t, 2, second[1].ParagraphNumber)
		assert.Equal(t, 2, second[0].PageNumber)
		assert.Equal(t, first[0].Text, second[0].Text)
	})

	t.Run("deterministic over repeated calls", func(t *testing.T) {
		page := Page{Number: 3, Blocks: []Block{
			block(140, 150, "b"),
			block(100, 110, "a"),
			block(200, 210, "c"),
		}}
		assert.Equal(t, s.Segment(page), s.Segment(page))
	})

	t.Run("input block order is not modified", func(t *testing.T) {
		blocks := []Block{
			block(140, 150, "second"),
			block(100, 110, "first"),
		}
		s.Segment(Page{Number: 1, Blocks: blocks})
		assert.Equal(t, "second", blocks[0].Text)
	})
}

func TestNew(t *testing.T) {
	assert.Equal(t, DefaultGapThreshold, New(0).GapThreshold())
	assert.Equal(t, DefaultGapThreshold, New(-5).GapThreshold())
	assert.Equal(t, 20.0, New(20).GapThreshold())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a \n b\t\tc "))
	assert.Equal(t, "", Normalize(" \n\t "))
	assert.Equal(t, Normalize("a  b"), Normalize(Normalize("a  b")))
}
