package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads taxi trace records from the first sheet of an Excel
// workbook, applying the same header and value normalization as ReadCSV.
func ReadXLSX(path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return Result{}, fmt.Errorf("sheet %q has no header row", sheets[0])
	}

	return parseRows(rows[0], rows[1:]), nil
}
