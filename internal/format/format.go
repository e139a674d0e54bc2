// Package format holds the dashboard's number formatting helpers.
package format

import (
	"math"
	"strconv"
)

// Placeholder is shown wherever a metric is missing.
const Placeholder = "–"

// Number formats v with the given number of decimals. A nil or NaN value
// yields the placeholder dash.
func Number(v *float64, decimals int) string {
	if v == nil || math.IsNaN(*v) {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}

// Float is Number for values that are known to be present.
func Float(v float64, decimals int) string {
	return Number(&v, decimals)
}
