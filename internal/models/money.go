package models

import "github.com/shopspring/decimal"

const CurrencyPlaces int32 = 2

func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// Total sums unit price times quantity over all lines and rounds once, at the
// end, to currency precision.
func Total(lines []BasketItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return RoundCurrency(sum)
}
