package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/fxjournal/journal"
	"github.com/rustyeddy/fxjournal/market"
	"github.com/rustyeddy/fxjournal/rates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// flakyRates serves from a static table but fails for the listed bases.
type flakyRates struct {
	static rates.Static
	fail   map[string]bool
}

func (f flakyRates) FetchRates(ctx context.Context, base string) (market.RateTable, error) {
	if f.fail[base] {
		return nil, errors.New("connection refused")
	}
	return f.static.FetchRates(ctx, base)
}

var testRates = rates.Static{
	"EUR": {"USD": 1.1},
	"USD": {"JPY": 150},
	"JPY": {"USD": 1.0 / 150},
	"XAU": {"USD": 2300},
}

func newTestServer(t *testing.T, provider market.RateProvider) (*httptest.Server, journal.Store) {
	t.Helper()

	store, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(store, provider, Defaults{AccountCurrency: "USD", Leverage: 100, Capital: 10000, RiskPercent: 1}, nil)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	var out map[string]string
	resp := getJSON(t, ts.URL+"/healthz", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])
}

func TestMargin(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, out := postJSON(t, ts.URL+"/api/margin", map[string]any{
		"symbol":           "EURUSD",
		"trade_size_units": 100000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	margin := out["required_margin"].(map[string]any)
	assert.InDelta(t, 1100.0, margin["amount"], 1e-9)
	assert.Equal(t, "USD", margin["currency"])

	pip := out["pip_value"].(map[string]any)
	assert.InDelta(t, 10.0, pip["amount"], 1e-9)
	assert.Equal(t, true, out["converted"])
}

func TestMargin_ValidationError(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, out := postJSON(t, ts.URL+"/api/margin", map[string]any{
		"symbol":           "AAPL",
		"trade_size_units": 100,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "symbol", out["field"])
}

func TestMargin_PartialResult(t *testing.T) {
	ts, _ := newTestServer(t, flakyRates{static: testRates, fail: map[string]bool{"JPY": true}})

	resp, out := postJSON(t, ts.URL+"/api/margin", map[string]any{
		"symbol":           "USDJPY",
		"trade_size_units": 10000,
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, out["error"], "JPY/USD")

	result := out["result"].(map[string]any)
	assert.Equal(t, false, result["converted"])
	margin := result["required_margin"].(map[string]any)
	assert.Equal(t, "JPY", margin["currency"])
	assert.InDelta(t, 15000.0, margin["amount"], 1e-9)
}

func TestMargin_PriceUnavailable(t *testing.T) {
	ts, _ := newTestServer(t, flakyRates{static: testRates, fail: map[string]bool{"EUR": true}})

	resp, out := postJSON(t, ts.URL+"/api/margin", map[string]any{
		"symbol":           "EURUSD",
		"trade_size_units": 10000,
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, out["error"], "EUR/USD")
	assert.NotContains(t, out, "result")
}

func TestPositionSize(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, out := postJSON(t, ts.URL+"/api/position-size", map[string]any{
		"capital":           10000,
		"risk_percent":      2,
		"entry_price":       1.1,
		"stop_loss_price":   1.095,
		"take_profit_price": 1.11,
		"symbol":            "EURUSD",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.InDelta(t, 50.0, out["stop_loss_pips"], 1e-6)
	assert.InDelta(t, 40000.0, out["recommended_units"], 1e-3)
	assert.Equal(t, "1:2.00", out["rr_display"])
}

func TestPositionSize_NoTakeProfit(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, out := postJSON(t, ts.URL+"/api/position-size", map[string]any{
		"entry_price":     1.1,
		"stop_loss_price": 1.095,
		"symbol":          "EURUSD",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "N/A", out["rr_display"])
	// defaults: 1% of 10000
	risk := out["risk_amount"].(map[string]any)
	assert.InDelta(t, 100.0, risk["amount"], 1e-9)
}

func TestCalculators_ExplicitZeroIsNotDefaulted(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	tests := []struct {
		name  string
		path  string
		body  map[string]any
		field string
	}{
		{"leverage", "/api/margin", map[string]any{
			"symbol": "EURUSD", "trade_size_units": 1000, "leverage": 0,
		}, "leverage"},
		{"capital", "/api/position-size", map[string]any{
			"symbol": "EURUSD", "entry_price": 1.1, "stop_loss_price": 1.095, "capital": 0,
		}, "capital"},
		{"risk percent", "/api/position-size", map[string]any{
			"symbol": "EURUSD", "entry_price": 1.1, "stop_loss_price": 1.095, "risk_percent": 0,
		}, "risk_percent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postJSON(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.field, out["field"])
		})
	}
}

func TestMargin_NullLeverageUsesDefault(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, out := postJSON(t, ts.URL+"/api/margin", map[string]any{
		"symbol":           "EURUSD",
		"trade_size_units": 100000,
		"leverage":         nil,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	margin := out["required_margin"].(map[string]any)
	assert.InDelta(t, 1100.0, margin["amount"], 1e-9)
}

func TestPositionSize_OverflowIsServerError(t *testing.T) {
	store, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	core, logs := observer.New(zap.ErrorLevel)
	ts := httptest.NewServer(New(store, testRates, Defaults{AccountCurrency: "USD"}, zap.New(core)))
	t.Cleanup(ts.Close)

	// capital * risk overflows to +Inf, which JSON cannot carry
	resp, out := postJSON(t, ts.URL+"/api/position-size", map[string]any{
		"capital":         1e308,
		"risk_percent":    100,
		"entry_price":     1.1,
		"stop_loss_price": 1.095,
		"symbol":          "EURUSD",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "response could not be encoded", out["error"])
	assert.Equal(t, 1, logs.FilterMessage("encode response").Len())
}

func TestPositionSize_SameEntryStop(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, out := postJSON(t, ts.URL+"/api/position-size", map[string]any{
		"entry_price":     1.1,
		"stop_loss_price": 1.1,
		"symbol":          "EURUSD",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "stop_loss_price", out["field"])
}

func TestBadBody(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, err := http.Post(ts.URL+"/api/margin", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrades(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, created := postJSON(t, ts.URL+"/api/trades", map[string]any{
		"date":       "2024-03-01",
		"symbol":     "EURUSD",
		"buySell":    "Long",
		"entryPrice": 1.08,
		"pnlNet":     42.5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "buy", created["buySell"])
	assert.Equal(t, "forex", created["assetType"])

	var got journal.Trade
	resp = getJSON(t, ts.URL+"/api/trades/"+id, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 42.5, got.PnLNet)

	var list []journal.Trade
	resp = getJSON(t, ts.URL+"/api/trades", &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list, 1)

	resp = getJSON(t, ts.URL+"/api/trades?from=2024-04-01&to=2024-05-01", &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, list)
}

func TestTrades_Errors(t *testing.T) {
	ts, _ := newTestServer(t, testRates)

	resp, _ := postJSON(t, ts.URL+"/api/trades", map[string]any{
		"date":    "2024-03-01",
		"symbol":  "EURUSD",
		"buySell": "buy",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing entry price")

	resp, out := postJSON(t, ts.URL+"/api/trades", map[string]any{
		"date":       "2024-03-01",
		"symbol":     "EURUSD",
		"buySell":    "sideways",
		"entryPrice": 1.08,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "buySell", out["field"])

	var missing map[string]any
	resp = getJSON(t, ts.URL+"/api/trades/nope", &missing)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/api/trades?from=2024-01-01", &missing)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/api/trades?from=yesterday&to=2024-01-01", &missing)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalytics(t *testing.T) {
	ts, store := newTestServer(t, testRates)

	require.NoError(t, store.AddMany(context.Background(), []journal.Trade{
		{Date: "2024-01-01", Symbol: "EURUSD", AssetType: "forex", Side: journal.Buy, EntryPrice: 1.1, PnLNet: 150},
		{Date: "2024-01-02", Symbol: "XAUUSD", AssetType: "metal", Side: journal.Sell, EntryPrice: 2300, PnLNet: -50},
	}))

	var report journal.Report
	resp := getJSON(t, ts.URL+"/api/analytics", &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, report.Trades)
	assert.Equal(t, 100.0, report.TotalPnL)
	assert.Equal(t, 1, report.Wins)
	assert.Equal(t, 1, report.Losses)
	require.Len(t, report.PnLByAssetType, 2)
	assert.Equal(t, "forex", report.PnLByAssetType[0].Label)
}
