// backend/src/parsers/factory.go
package parsers

import (
	"fmt"
	"strings"

	"github.com/username/tradejournal/backend/src/parsers/degiro"
	"github.com/username/tradejournal/backend/src/parsers/fidelity"
	"github.com/username/tradejournal/backend/src/parsers/mapped"
)

const (
	SourceMapped   = mapped.SourceName
	SourceFidelity = fidelity.SourceName
	SourceDeGiro   = degiro.SourceName
)

func GetParser(source string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", SourceMapped:
		return mapped.NewParser(), nil
	case SourceFidelity:
		return fidelity.NewParser(), nil
	case SourceDeGiro:
		return degiro.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}

// DetectSource guesses the export format from its headers. Anything that is not a known
// fixed layout goes through the column mapper.
func DetectSource(headers []string) string {
	if fidelity.MatchesHeaders(headers) {
		return SourceFidelity
	}
	if degiro.MatchesHeaders(headers) {
		return SourceDeGiro
	}
	return SourceMapped
}
