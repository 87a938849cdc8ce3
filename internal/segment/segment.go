// Package segment splits page text blocks into paragraph chunks.
//
// A paragraph break is a vertical gap between consecutive blocks larger
// than the configured threshold. Blocks are processed in reading order
// and paragraph numbering restarts on every page.
package segment

import "sort"

// DefaultGapThreshold is the vertical gap (in page units) that separates
// paragraphs in typical legal PDFs.
const DefaultGapThreshold = 12.0

// Block is one positioned text block on a page. Coordinates use a
// downward y axis: Y0 is the top edge, Y1 the bottom, Y0 <= Y1.
type Block struct {
	X0, Y0, X1, Y1 float64
	Text           string
}

// Page is a page of blocks to segment. Number is 1-based.
type Page struct {
	Number int
	Blocks []Block
}

// ParagraphChunk is one segmented paragraph with its citation position.
// ParagraphNumber is 1-based and scoped to the page.
type ParagraphChunk struct {
	PageNumber      int
	ParagraphNumber int
	Text            string
}

// Segmenter groups blocks into paragraphs by vertical gap.
type Segmenter struct {
	gapThreshold float64
}

// New creates a segmenter. A non-positive threshold selects the default.
func New(gapThreshold float64) *Segmenter {
	if gapThreshold <= 0 {
		gapThreshold = DefaultGapThreshold
	}
	return &Segmenter{gapThreshold: gapThreshold}
}

// GapThreshold returns the active paragraph gap threshold.
func (s *Segmenter) GapThreshold() float64 {
	return s.gapThreshold
}

// Segment splits the page into paragraph chunks.
//
// Blocks are sorted by (Y0, X0) into reading order first; the input slice
// is not modified. A new paragraph starts when the gap between a block's
// top and the previous block's bottom strictly exceeds the threshold, so a
// gap exactly at the threshold continues the paragraph. Whitespace-only
// blocks are ignored and never produce chunks or affect numbering.
func (s *Segmenter) Segment(page Page) []ParagraphChunk {
	blocks := make([]Block, len(page.Blocks))
	copy(blocks, page.Blocks)
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Y0 != blocks[j].Y0 {
			return blocks[i].Y0 < blocks[j].Y0
		}
		return blocks[i].X0 < blocks[j].X0
	})

	var (
		chunks     []ParagraphChunk
		current    string
		ordinal    = 1
		lastBottom float64
		seenAny    bool
	)

	flush := func() {
		text := Normalize(current)
		if text != "" {
			chunks = append(chunks, ParagraphChunk{
				PageNumber:      page.Number,
				ParagraphNumber: ordinal,
				Text:            text,
			})
		}
	}

	for _, b := range blocks {
		text := Normalize(b.Text)
		if text == "" {
			continue
		}

		newParagraph := !seenAny || b.Y0-lastBottom > s.gapThreshold
		if newParagraph && current != "" {
			flush()
			ordinal++
			current = text
		} else if current != "" {
			current += " " + text
		} else {
			current = text
		}

		lastBottom = b.Y1
		seenAny = true
	}

	if current != "" {
		flush()
	}
	return chunks
}
