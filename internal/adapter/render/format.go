package render

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Rupees formats a price with thousands separators, dropping the fraction
// for whole amounts: 12500 -> "₹12,500", 13432.5 -> "₹13,432.50".
func Rupees(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("₹%.0f", v)
	}
	return printer.Sprintf("₹%.2f", v)
}
