package utils

import (
	"strconv"
	"strings"
)

// PadFloat formats a float64 with specified total width, preserving original decimals
func PadFloat(num float64, width int) string {
	// Convert float to string with full precision
	str := strconv.FormatFloat(num, 'f', -1, 64)

	// Split into integer and decimal parts
	intPart, decPart, hasDec := strings.Cut(str, ".")

	// Calculate required padding for integer part only
	padding := width - len(intPart)

	// Add padding if needed
	if padding > 0 {
		intPart = strings.Repeat("0", padding) + intPart
	}

	// Reconstruct number with original decimal part if it exists
	if hasDec {
		return intPart + "." + decPart
	}
	return intPart
}

// FormatNumber formats a chapter number without trailing zeros
func FormatNumber(num float64) string {
	return strconv.FormatFloat(num, 'f', -1, 64)
}
