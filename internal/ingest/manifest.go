package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ManifestEntry is one row of the source-of-truth file list. Both fields
// are required for ingestion; entries missing either are skipped by the
// pipeline, not rejected by the reader.
type ManifestEntry struct {
	Filename string
	SourceID string
}

// ReadManifest reads the CSV manifest at path. The file must have a header
// row with `filename` and `source_id` columns; an unreadable or malformed
// manifest is fatal to the whole run.
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	return parseManifest(f)
}

func parseManifest(r io.Reader) ([]ManifestEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows with missing trailing fields are validated later
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("manifest is empty: header row required")
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest header: %w", err)
	}

	filenameCol, sourceIDCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "filename":
			filenameCol = i
		case "source_id":
			sourceIDCol = i
		}
	}
	if filenameCol < 0 || sourceIDCol < 0 {
		return nil, fmt.Errorf("manifest header must contain filename and source_id columns, got %v", header)
	}

	var entries []ManifestEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading manifest row: %w", err)
		}

		var entry ManifestEntry
		if filenameCol < len(record) {
			entry.Filename = strings.TrimSpace(record[filenameCol])
		}
		if sourceIDCol < len(record) {
			entry.SourceID = strings.TrimSpace(record[sourceIDCol])
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
