package risk

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// Money is an amount tagged with its currency code.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", decimal.NewFromFloat(m.Amount).StringFixed(2), m.Currency)
}

// RiskAmount is the account money put at risk: capital * riskPercent / 100.
func RiskAmount(capital, riskPercent float64) float64 {
	return capital * riskPercent / 100
}

// RR returns |entry-takeProfit| / |entry-stop| rounded to two decimals, or
// None when there is no take profit or the risk distance is zero.
func RR(entry, stop float64, takeProfit optional.Option[float64]) optional.Option[float64] {
	if takeProfit.IsNone() || takeProfit.Unwrap() <= 0 {
		return optional.None[float64]()
	}
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return optional.None[float64]()
	}
	reward := math.Abs(entry - takeProfit.Unwrap())
	return optional.Some(round2(reward / risk))
}

// FormatRR renders a ratio as "1:2.50", or "N/A".
func FormatRR(rr optional.Option[float64]) string {
	if rr.IsNone() {
		return "N/A"
	}
	return "1:" + decimal.NewFromFloat(rr.Unwrap()).StringFixed(2)
}

func round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
