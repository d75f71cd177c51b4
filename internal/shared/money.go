package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMinorUnits renders an integer amount of minor currency units with
// thousands separators for log and audit output.
func FormatMinorUnits(amount int64) string {
	return moneyPrinter.Sprintf("%d", amount)
}

// RoundDiv divides two non-negative integers rounding half up, the rounding
// rule used for all derived monetary values. Returns 0 when den is 0.
func RoundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	return (num + den/2) / den
}
