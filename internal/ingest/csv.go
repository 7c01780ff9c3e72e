package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV loads taxi trace records from CSV. The first row is the header;
// header names are normalized (whitespace trimmed, aliases mapped, a
// leading "Unnamed" index column ignored). Ragged rows are tolerated.
func ReadCSV(r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return Result{}, fmt.Errorf("CSV input has no header row")
	}

	return parseRows(records[0], records[1:]), nil
}
