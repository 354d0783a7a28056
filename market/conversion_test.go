package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRateProvider struct {
	tables   map[string]RateTable
	err      error
	called   int
	lastBase string
}

func (f *fakeRateProvider) FetchRates(ctx context.Context, base string) (RateTable, error) {
	f.called++
	f.lastBase = base
	if f.err != nil {
		return nil, f.err
	}
	return f.tables[base], nil
}

func TestRate_SameCurrency(t *testing.T) {
	t.Parallel()

	rp := &fakeRateProvider{}
	r, err := Rate(context.Background(), rp, "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
	assert.Equal(t, 0, rp.called)
}

func TestRate_Lookup(t *testing.T) {
	t.Parallel()

	rp := &fakeRateProvider{tables: map[string]RateTable{
		"EUR": {"USD": 1.1, "JPY": 160.2},
	}}
	r, err := Rate(context.Background(), rp, "EUR", "JPY")
	require.NoError(t, err)
	assert.InDelta(t, 160.2, r, 1e-12)
	assert.Equal(t, 1, rp.called)
	assert.Equal(t, "EUR", rp.lastBase)
}

func TestRate_ProviderFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("invalid-key")
	rp := &fakeRateProvider{err: cause}
	_, err := Rate(context.Background(), rp, "EUR", "USD")
	require.Error(t, err)

	var re *RateError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "EUR", re.From)
	assert.Equal(t, "USD", re.To)
	assert.ErrorIs(t, err, ErrRateUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "EUR/USD")
}

func TestRate_MissingTarget(t *testing.T) {
	t.Parallel()

	rp := &fakeRateProvider{tables: map[string]RateTable{"EUR": {"GBP": 0.85}}}
	_, err := Rate(context.Background(), rp, "EUR", "USD")
	assert.ErrorIs(t, err, ErrRateUnavailable)
	assert.Equal(t, "rate unavailable for EUR/USD", err.Error())
}

func TestRate_NonPositiveRate(t *testing.T) {
	t.Parallel()

	rp := &fakeRateProvider{tables: map[string]RateTable{"EUR": {"USD": 0}}}
	_, err := Rate(context.Background(), rp, "EUR", "USD")
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestRate_NilProvider(t *testing.T) {
	t.Parallel()

	_, err := Rate(context.Background(), nil, "EUR", "USD")
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestConvert(t *testing.T) {
	t.Parallel()

	rp := &fakeRateProvider{tables: map[string]RateTable{"JPY": {"USD": 0.0067}}}
	got, err := Convert(context.Background(), rp, 1000, "JPY", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 6.7, got, 1e-9)
}
