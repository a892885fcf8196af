// backend/src/models/import.go
package models

// ImportResult summarizes one import. It is returned once and never persisted.
type ImportResult struct {
	BatchID            string   `json:"batch_id"`
	Success            bool     `json:"success"`
	ImportedCount      int      `json:"imported_count"`
	DuplicateCount     int      `json:"duplicate_count"`
	MatchedTradesCount int      `json:"matched_trades_count"`
	RowsFailed         int      `json:"rows_failed"`
	OrphanCount        int      `json:"orphan_count"`
	OpenPositions      int      `json:"open_positions"`
	RowErrors          []string `json:"row_errors"`
	Message            string   `json:"message"`
}

// RebuildResult summarizes a rematch of the full ledger.
type RebuildResult struct {
	ExecutionCount     int `json:"execution_count"`
	MatchedTradesCount int `json:"matched_trades_count"`
	OrphanCount        int `json:"orphan_count"`
	OpenPositions      int `json:"open_positions"`
}
