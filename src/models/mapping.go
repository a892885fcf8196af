// backend/src/models/mapping.go
package models

// Canonical field names used in a ColumnMapping.
const (
	FieldDate     = "date"
	FieldTime     = "time"
	FieldSymbol   = "symbol"
	FieldAction   = "action"
	FieldPrice    = "price"
	FieldQuantity = "quantity"
	FieldFees     = "fees"
)

// RequiredFields must be mapped before an import touches the ledger.
var RequiredFields = []string{FieldDate, FieldSymbol, FieldPrice, FieldQuantity}

// ColumnMapping associates canonical fields with source CSV headers. It only lives for the
// duration of one import dialog.
type ColumnMapping struct {
	Date             string `json:"date"`
	Time             string `json:"time,omitempty"`
	Symbol           string `json:"symbol"`
	Action           string `json:"action,omitempty"`
	Price            string `json:"price"`
	Quantity         string `json:"quantity"`
	Fees             string `json:"fees,omitempty"`
	DateTimeCombined bool   `json:"date_time_combined"`
}

// Header returns the mapped header for a canonical field. The UI sends "none" for
// fields the user explicitly left unmapped.
func (m ColumnMapping) Header(field string) string {
	var h string
	switch field {
	case FieldDate:
		h = m.Date
	case FieldTime:
		h = m.Time
	case FieldSymbol:
		h = m.Symbol
	case FieldAction:
		h = m.Action
	case FieldPrice:
		h = m.Price
	case FieldQuantity:
		h = m.Quantity
	case FieldFees:
		h = m.Fees
	}
	if h == "none" {
		return ""
	}
	return h
}

// ImportPreview is returned by the preview step of the import wizard.
type ImportPreview struct {
	PreviewID        string              `json:"preview_id"`
	DetectedSource   string              `json:"detected_source"` // "fidelity" for the fixed order export, otherwise "mapped"
	Headers          []string            `json:"headers"`
	SampleRows       [][]string          `json:"sample_rows"`
	SuggestedMapping map[string]*string  `json:"suggested_mapping"` // nil value: no header matched
	Candidates       map[string][]string `json:"candidates"`        // All matching headers per field, best first
	TotalRows        int                 `json:"total_rows"`
}
