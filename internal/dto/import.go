package dto

// ImportResult reports the outcome of a spreadsheet import.
type ImportResult struct {
	Imported    int   `json:"imported"`
	Skipped     int   `json:"skipped"`
	SkippedRows []int `json:"skipped_rows"`
}
