package utils

import "math"

// MinInt64 returns the smaller of two integers.
func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// AbsInt64 returns the absolute value of an integer.
func AbsInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// Ratio returns part/total rounded to four places, or 0 when total is zero.
func Ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return RoundFloat(float64(part)/float64(total), 4)
}
