package risk

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnsupportedInstrument = errors.New("unsupported instrument")
	ErrSameEntryStop         = errors.New("entry price equals stop-loss price")
)

// ValidationError is returned before any rate lookup when an input is out of
// range or the instrument cannot be sized. Err is one of the sentinels above.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: ErrInvalidInput}
}

// finite rejects NaN and the infinities, which slip past ordered comparisons.
func finite(field string, v float64) *ValidationError {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, "must be a finite number")
	}
	return nil
}

type number struct {
	field string
	v     float64
}

func allFinite(nums ...number) *ValidationError {
	for _, n := range nums {
		if err := finite(n.field, n.v); err != nil {
			return err
		}
	}
	return nil
}

func unsupported(symbol string) *ValidationError {
	return &ValidationError{
		Field:  "symbol",
		Reason: fmt.Sprintf("%q is not a supported forex or metal instrument", symbol),
		Err:    ErrUnsupportedInstrument,
	}
}

func sameEntryStop() *ValidationError {
	return &ValidationError{
		Field:  "stop_loss_price",
		Reason: "must differ from entry price",
		Err:    ErrSameEntryStop,
	}
}
