// backend/src/parsers/parser.go
package parsers

import (
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/csvutil"
)

// Parser turns a CSV table into executions. Mapping problems are returned as
// *csvutil.MappingError before any row is read; bad rows are counted in the result.
type Parser interface {
	Parse(table *csvutil.Table, mapping models.ColumnMapping) (*models.ParseResult, error)
}
