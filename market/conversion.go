package market

import (
	"context"
	"errors"
	"fmt"
)

// RateTable maps a target currency code to the multiplier that converts one
// unit of the table's base currency into it.
type RateTable map[string]float64

// RateProvider returns every known conversion rate relative to base.
// Implementations do their own timeouts; callers do not retry.
type RateProvider interface {
	FetchRates(ctx context.Context, base string) (RateTable, error)
}

// ErrRateUnavailable is matched by every *RateError.
var ErrRateUnavailable = errors.New("rate unavailable")

// RateError reports a conversion pair that could not be resolved. Err holds
// the provider failure, if any.
type RateError struct {
	From string
	To   string
	Err  error
}

func (e *RateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate unavailable for %s/%s: %v", e.From, e.To, e.Err)
	}
	return fmt.Sprintf("rate unavailable for %s/%s", e.From, e.To)
}

func (e *RateError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRateUnavailable}
	}
	return []error{ErrRateUnavailable, e.Err}
}

// Rate returns how many units of to one unit of from is worth. Identical
// currencies convert at 1 without calling the provider; otherwise exactly one
// FetchRates(from) is issued.
func Rate(ctx context.Context, rates RateProvider, from, to string) (float64, error) {
	if from == to {
		return 1.0, nil
	}
	if rates == nil {
		return 0, &RateError{From: from, To: to, Err: errors.New("no rate provider")}
	}

	table, err := rates.FetchRates(ctx, from)
	if err != nil {
		return 0, &RateError{From: from, To: to, Err: err}
	}
	r, ok := table[to]
	if !ok || r <= 0 {
		return 0, &RateError{From: from, To: to}
	}
	return r, nil
}

// Convert multiplies amount by the from->to rate.
func Convert(ctx context.Context, rates RateProvider, amount float64, from, to string) (float64, error) {
	r, err := Rate(ctx, rates, from, to)
	if err != nil {
		return 0, err
	}
	return amount * r, nil
}
