package document

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lexhaven/lexrag/internal/segment"
)

// lineTolerance is the maximum baseline difference (in points) for two text
// fragments to be treated as the same line.
const lineTolerance = 2.0

// PDFOpener opens PDF files as block-structured documents.
type PDFOpener struct{}

// NewPDFOpener creates a PDFOpener.
func NewPDFOpener() *PDFOpener {
	return &PDFOpener{}
}

// Open opens the PDF at path.
func (o *PDFOpener) Open(path string) (Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	return &pdfDocument{file: f, reader: reader}, nil
}

type pdfDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func (d *pdfDocument) PageCount() int {
	return d.reader.NumPage()
}

// Page extracts the 1-based page n as line blocks in top-down coordinates.
//
// PDF user space has y increasing upward; blocks are emitted with y negated
// so the segmenter's downward axis holds. Only coordinate differences matter
// for gap detection, so no page-height translation is needed.
func (d *pdfDocument) Page(n int) (page segment.Page, err error) {
	// The underlying reader panics on malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting page %d: %v", n, r)
		}
	}()

	page.Number = n
	if n < 1 || n > d.reader.NumPage() {
		return page, fmt.Errorf("page %d out of range (document has %d pages)", n, d.reader.NumPage())
	}

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return page, nil
	}

	texts := p.Content().Text
	if len(texts) == 0 {
		return page, nil
	}

	page.Blocks = groupIntoLines(texts)
	return page, nil
}

func (d *pdfDocument) Close() error {
	return d.file.Close()
}

// groupIntoLines merges text fragments sharing a baseline into one block
// per line. Fragments are sorted top-down (descending PDF y), then
// left-to-right within a line.
func groupIntoLines(texts []pdf.Text) []segment.Block {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var blocks []segment.Block
	var (
		line     strings.Builder
		lineY    float64
		fontSize float64
		x0, x1   float64
	)

	flush := func() {
		if line.Len() == 0 {
			return
		}
		height := fontSize
		if height == 0 {
			height = lineTolerance
		}
		blocks = append(blocks, segment.Block{
			X0:   x0,
			Y0:   -lineY - height,
			X1:   x1,
			Y1:   -lineY,
			Text: line.String(),
		})
		line.Reset()
		fontSize = 0
	}

	for _, t := range sorted {
		if t.S == "" {
			continue
		}

		sameLine := line.Len() > 0 && lineY-t.Y < lineTolerance
		if sameLine {
			// Fragments arrive without inter-word spacing; a horizontal
			// gap between fragments marks a word boundary.
			if t.X-x1 > 0.5 {
				line.WriteByte(' ')
			}
			if t.X < x0 {
				x0 = t.X
			}
			if t.X+t.W > x1 {
				x1 = t.X + t.W
			}
		} else {
			flush()
			lineY = t.Y
			x0 = t.X
			x1 = t.X + t.W
		}

		line.WriteString(t.S)
		if t.FontSize > fontSize {
			fontSize = t.FontSize
		}
	}
	flush()

	return blocks
}

// Ensure PDFOpener implements Opener.
var _ Opener = (*PDFOpener)(nil)
