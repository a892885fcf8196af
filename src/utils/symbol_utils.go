package utils

import (
	"regexp"
	"strings"
)

// OCC-style option symbol, e.g. SPY251219P670 or AAPL240119C00150000.
var optionSymbolPattern = regexp.MustCompile(`^[A-Z]{1,6}\d{6}[PC]\d+(\.\d+)?$`)

const OptionContractMultiplier = 100

// IsOptionSymbol reports whether symbol looks like an OCC option contract.
func IsOptionSymbol(symbol string) bool {
	return optionSymbolPattern.MatchString(strings.ToUpper(strings.TrimSpace(symbol)))
}

// ContractMultiplier returns the number of shares one unit of symbol represents.
func ContractMultiplier(symbol string) int64 {
	if IsOptionSymbol(symbol) {
		return OptionContractMultiplier
	}
	return 1
}
