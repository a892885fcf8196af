package models

// MaxRowErrors caps the row error messages kept per import.
const MaxRowErrors = 20

// ParseResult is what a parser hands to the import pipeline. Row-level failures are counted
// and never abort the batch.
type ParseResult struct {
	Executions  []RawExecution
	RowsSkipped int // Rows intentionally ignored, e.g. cancelled orders
	RowsFailed  int
	RowErrors   []string
}

// AddRowError records a failed row, keeping at most MaxRowErrors messages.
func (r *ParseResult) AddRowError(msg string) {
	r.RowsFailed++
	if len(r.RowErrors) < MaxRowErrors {
		r.RowErrors = append(r.RowErrors, msg)
	}
}
