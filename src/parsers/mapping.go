// backend/src/parsers/mapping.go
package parsers

import (
	"strings"

	"github.com/username/tradejournal/backend/src/models"
)

// fieldRule lists the header keywords for one canonical field, most specific first, and
// header substrings that disqualify a match.
type fieldRule struct {
	field    string
	keywords []string
	exclude  []string
}

var suggestionRules = []fieldRule{
	{field: models.FieldDate, keywords: []string{"date", "run date", "trade date", "order date"}},
	{field: models.FieldSymbol, keywords: []string{"symbol", "ticker", "security"}},
	{field: models.FieldAction, keywords: []string{"action", "side", "transaction", "type"}, exclude: []string{"description"}},
	{field: models.FieldPrice, keywords: []string{"price", "trade price", "execution price", "status"}},
	{field: models.FieldQuantity, keywords: []string{"quantity", "qty", "amount", "shares"}, exclude: []string{"exchange", "currency"}},
	{field: models.FieldTime, keywords: []string{"time", "order time", "execution time"}},
	{field: models.FieldFees, keywords: []string{"fees", "commission", "charges"}},
}

// SuggestMapping proposes a header for every canonical field with a case-insensitive substring
// heuristic: keywords are tried in order and the first matching header wins. Fields with no
// match map to nil. The second return value lists every matching header per field, best
// first, so a UI can offer alternatives. The suggestion is advisory only.
func SuggestMapping(headers []string) (map[string]*string, map[string][]string) {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	suggested := make(map[string]*string, len(suggestionRules))
	candidates := make(map[string][]string, len(suggestionRules))

	for _, rule := range suggestionRules {
		seen := make(map[int]bool)
		var matches []string
		for _, kw := range rule.keywords {
			for i, h := range lower {
				if seen[i] || !strings.Contains(h, kw) || containsAny(h, rule.exclude) {
					continue
				}
				seen[i] = true
				matches = append(matches, headers[i])
			}
		}

		// Quantity columns such as "Exchange Quantity" are only a last resort.
		if rule.field == models.FieldQuantity && len(matches) == 0 {
			for i, h := range lower {
				if strings.Contains(h, "quantity") {
					matches = append(matches, headers[i])
				}
			}
		}

		candidates[rule.field] = append([]string{}, matches...)
		if len(matches) > 0 {
			best := matches[0]
			suggested[rule.field] = &best
		} else {
			suggested[rule.field] = nil
		}
	}
	return suggested, candidates
}

// MappingFromSuggestion converts a suggestion into a ColumnMapping. DateTimeCombined is set
// when the suggested time column carries its own date, which is how Fidelity order exports
// look ("3:31:36 PM ET Dec-18-2025").
func MappingFromSuggestion(suggested map[string]*string, sampleTime string) models.ColumnMapping {
	get := func(field string) string {
		if h := suggested[field]; h != nil {
			return *h
		}
		return ""
	}
	m := models.ColumnMapping{
		Date:     get(models.FieldDate),
		Time:     get(models.FieldTime),
		Symbol:   get(models.FieldSymbol),
		Action:   get(models.FieldAction),
		Price:    get(models.FieldPrice),
		Quantity: get(models.FieldQuantity),
		Fees:     get(models.FieldFees),
	}
	if m.Time != "" && strings.Contains(strings.ToUpper(sampleTime), " ET ") {
		m.DateTimeCombined = true
		if m.Date == "" {
			m.Date = m.Time
		}
	}
	return m
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
