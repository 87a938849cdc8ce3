package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	t.Run("parses rows by header position", func(t *testing.T) {
		entries, err := parseManifest(strings.NewReader(
			"source_id,filename\ndoc-001,contract.pdf\ndoc-002,lease.pdf\n",
		))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, ManifestEntry{Filename: "contract.pdf", SourceID: "doc-001"}, entries[0])
		assert.Equal(t, ManifestEntry{Filename: "lease.pdf", SourceID: "doc-002"}, entries[1])
	})

	t.Run("keeps incomplete rows for the pipeline to skip", func(t *testing.T) {
		entries, err := parseManifest(strings.NewReader(
			"filename,source_id\ncontract.pdf,\n,doc-002\n",
		))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Empty(t, entries[0].SourceID)
		assert.Empty(t, entries[1].Filename)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		entries, err := parseManifest(strings.NewReader(
			"filename,source_id\n contract.pdf , doc-001 \n",
		))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "contract.pdf", entries[0].Filename)
		assert.Equal(t, "doc-001", entries[0].SourceID)
	})

	t.Run("ignores extra columns", func(t *testing.T) {
		entries, err := parseManifest(strings.NewReader(
			"filename,notes,source_id\ncontract.pdf,signed,doc-001\n",
		))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "doc-001", entries[0].SourceID)
	})

	t.Run("missing required columns is an error", func(t *testing.T) {
		_, err := parseManifest(strings.NewReader("filename,notes\ncontract.pdf,signed\n"))
		assert.Error(t, err)
	})

	t.Run("empty file is an error", func(t *testing.T) {
		_, err := parseManifest(strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("header only yields no entries", func(t *testing.T) {
		entries, err := parseManifest(strings.NewReader("filename,source_id\n"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestReadManifest(t *testing.T) {
	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.csv")
		require.NoError(t, os.WriteFile(path, []byte("filename,source_id\na.pdf,doc-a\n"), 0o600))

		entries, err := ReadManifest(path)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "doc-a", entries[0].SourceID)
	})

	t.Run("missing manifest is fatal", func(t *testing.T) {
		_, err := ReadManifest(filepath.Join(t.TempDir(), "absent.csv"))
		assert.Error(t, err)
	})
}
