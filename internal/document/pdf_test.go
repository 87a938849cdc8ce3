package document

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frag(x, y, w float64, s string) pdf.Text {
	return pdf.Text{X: x, Y: y, W: w, S: s, FontSize: 11}
}

func TestGroupIntoLines(t *testing.T) {
	t.Run("merges fragments on one baseline", func(t *testing.T) {
		blocks := groupIntoLines([]pdf.Text{
			frag(72, 700, 30, "Article"),
			frag(105, 700, 10, "7"),
		})

		require.Len(t, blocks, 1)
		assert.Equal(t, "Article 7", blocks[0].Text)
		assert.Equal(t, 72.0, blocks[0].X0)
	})

	t.Run("adjacent fragments join without space", func(t *testing.T) {
		blocks := groupIntoLines([]pdf.Text{
			frag(72, 700, 20, "fil"),
			frag(92, 700, 20, "ing"),
		})

		require.Len(t, blocks, 1)
		assert.Equal(t, "filing", blocks[0].Text)
	})

	t.Run("separate baselines become separate blocks top-down", func(t *testing.T) {
		blocks := groupIntoLines([]pdf.Text{
			frag(72, 650, 40, "second line"),
			frag(72, 700, 40, "first line"),
		})

		require.Len(t, blocks, 2)
		assert.Equal(t, "first line", blocks[0].Text)
		assert.Equal(t, "second line", blocks[1].Text)
		// Downward axis: the lower line on the page has the larger Y0.
		assert.Less(t, blocks[0].Y0, blocks[1].Y0)
	})

	t.Run("line gap is preserved on the downward axis", func(t *testing.T) {
		blocks := groupIntoLines([]pdf.Text{
			frag(72, 700, 40, "a"),
			frag(72, 660, 40, "b"),
		})

		require.Len(t, blocks, 2)
		gap := blocks[1].Y0 - blocks[0].Y1
		// Baselines are 40pt apart with 11pt glyphs: the visual gap is the
		// baseline delta minus the line height.
		assert.InDelta(t, 29, gap, 0.01)
	})

	t.Run("empty fragments are skipped", func(t *testing.T) {
		blocks := groupIntoLines([]pdf.Text{
			frag(72, 700, 0, ""),
		})
		assert.Empty(t, blocks)
	})
}
