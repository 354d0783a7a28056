package rates

import (
	"context"

	"github.com/rustyeddy/fxjournal/market"
)

// Static serves rates from a fixed in-memory table keyed by base currency.
type Static map[string]map[string]float64

// FetchRates returns a copy of the table for base.
func (s Static) FetchRates(ctx context.Context, base string) (market.RateTable, error) {
	row, ok := s[base]
	if !ok {
		return nil, &APIError{Type: "unsupported-code"}
	}
	out := make(market.RateTable, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}
