package export

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders d with two decimals and thousands separators: 1234567.5 -> "1,234,567.50".
func FormatAmount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return amountPrinter.Sprint(number.Decimal(f, number.Scale(2)))
}

// FormatCurrency prefixes FormatAmount with a currency marker, keeping the
// sign in front: -5 with "INR " -> "-INR 5.00".
func FormatCurrency(prefix string, d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + prefix + FormatAmount(d.Neg())
	}
	return prefix + FormatAmount(d)
}
