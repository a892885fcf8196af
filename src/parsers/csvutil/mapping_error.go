package csvutil

import (
	"fmt"
	"sort"
	"strings"

	"github.com/username/tradejournal/backend/src/models"
)

// MappingError reports a column mapping that cannot drive an import. It is raised before any
// row is read, so an import failing with it leaves the ledger untouched.
type MappingError struct {
	Missing        []string          // Required fields with no header
	UnknownHeaders map[string]string // Field -> mapped header absent from the file
}

func (e *MappingError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "required fields not mapped: "+strings.Join(e.Missing, ", "))
	}
	if len(e.UnknownHeaders) > 0 {
		fields := make([]string, 0, len(e.UnknownHeaders))
		for f := range e.UnknownHeaders {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		var unknown []string
		for _, f := range fields {
			unknown = append(unknown, fmt.Sprintf("%s=%q", f, e.UnknownHeaders[f]))
		}
		parts = append(parts, "mapped headers not found in file: "+strings.Join(unknown, ", "))
	}
	return "invalid column mapping: " + strings.Join(parts, "; ")
}

var mappableFields = []string{
	models.FieldDate, models.FieldTime, models.FieldSymbol, models.FieldAction,
	models.FieldPrice, models.FieldQuantity, models.FieldFees,
}

// ValidateMapping checks that every required field is mapped and that every mapped header
// exists in the table.
func (t *Table) ValidateMapping(m models.ColumnMapping) error {
	mErr := &MappingError{UnknownHeaders: map[string]string{}}
	for _, field := range models.RequiredFields {
		if m.Header(field) == "" {
			mErr.Missing = append(mErr.Missing, field)
		}
	}
	for _, field := range mappableFields {
		h := m.Header(field)
		if h != "" && t.Index(h) < 0 {
			mErr.UnknownHeaders[field] = h
		}
	}
	if len(mErr.Missing) > 0 || len(mErr.UnknownHeaders) > 0 {
		return mErr
	}
	return nil
}

// RequireHeaders is ValidateMapping for fixed-layout exports.
func (t *Table) RequireHeaders(headers ...string) error {
	mErr := &MappingError{UnknownHeaders: map[string]string{}}
	for _, h := range headers {
		if t.Index(h) < 0 {
			mErr.UnknownHeaders[strings.ToLower(h)] = h
		}
	}
	if len(mErr.UnknownHeaders) > 0 {
		return mErr
	}
	return nil
}
