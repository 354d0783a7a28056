package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   Pair
	}{
		{"EURUSD", Pair{Base: "EUR", Quote: "USD"}},
		{"USDJPY", Pair{Base: "USD", Quote: "JPY"}},
		{"XAUUSD", Pair{Base: "XAU", Quote: "USD"}},
		{"XAGEUR", Pair{Base: "XAG", Quote: "EUR"}},
		{"XAUUSD.m", Pair{Base: "XAU", Quote: "USD"}},
		{"XAU", Pair{Base: "XAU", Quote: ""}},
		{"AAPL", Pair{}},
		{"NAS100", Pair{Base: "NAS", Quote: "100"}},
		{"", Pair{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.symbol, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseSymbol(tt.symbol))
		})
	}
}

func TestPairValid(t *testing.T) {
	t.Parallel()

	assert.True(t, ParseSymbol("EURUSD").Valid())
	assert.True(t, ParseSymbol("XAUUSD").Valid())
	assert.False(t, ParseSymbol("XAU").Valid())
	assert.False(t, ParseSymbol("AAPL").Valid())
	assert.Equal(t, "EUR/USD", ParseSymbol("EURUSD").String())
}

func TestGetAssetType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   AssetType
	}{
		{"EURUSD", Forex},
		{"GBPJPY", Forex},
		{"AUDCAD", Forex},
		{"XAUUSD", Metal},
		{"XAGUSD", Metal},
		{"XAUEUR", Metal},
		{"XPTUSD", Unknown},
		{"AAPL", Stock},
		{"US30", Index},
		{"BTC", Crypto},
		{"XRP", Crypto},
		{"EURUSDX", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.symbol, func(t *testing.T) {
			t.Parallel()
			got := GetAssetType(tt.symbol)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == Forex || tt.want == Metal, got.Calculable())
		})
	}
}

func TestGetPipPointDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   PipDetails
	}{
		{"EURUSD", PipDetails{PipSize: 0.0001, ValueLabel: "Pip Value", IsCalculable: true}},
		{"USDJPY", PipDetails{PipSize: 0.01, ValueLabel: "Pip Value", IsCalculable: true}},
		{"GBPJPY", PipDetails{PipSize: 0.01, ValueLabel: "Pip Value", IsCalculable: true}},
		{"XAUUSD", PipDetails{PipSize: 1, ValueLabel: "Point Value", IsCalculable: true}},
		{"XAGJPY", PipDetails{PipSize: 1, ValueLabel: "Point Value", IsCalculable: true}},
		{"AAPL", PipDetails{PipSize: 0, ValueLabel: "N/A", IsCalculable: false}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.symbol, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetPipPointDetails(tt.symbol))
		})
	}
}

func TestStopLossDistance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 50.0, StopLossDistance(1.2000, 1.1950, 0.0001), 1e-9)
	assert.InDelta(t, 50.0, StopLossDistance(1.1950, 1.2000, 0.0001), 1e-9)
	assert.InDelta(t, 50.0, StopLossDistance(150.00, 149.50, 0.01), 1e-9)
	assert.InDelta(t, 12.5, StopLossDistance(2350.0, 2337.5, 1), 1e-9)
}

func TestLotSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ForexLotSize, LotSize("EURUSD"))
	assert.Equal(t, GoldLotSize, LotSize("XAUUSD"))
	assert.Equal(t, SilverLotSize, LotSize("XAGUSD"))
	assert.Equal(t, 0.0, LotSize("AAPL"))
}
