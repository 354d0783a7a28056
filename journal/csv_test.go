package journal

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	header, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)

	want := []string{"id", "date", "symbol", "asset_type", "side", "entry_price", "exit_price",
		"take_profit", "stop_loss", "pnl_net", "position_size", "strategy_name", "notes"}
	assert.Equal(t, want, header)
}

func TestCSVWriteThenRead(t *testing.T) {
	t.Parallel()

	in := []Trade{sampleTrade("2024-01-02", "EURUSD", 12.5), sampleTrade("2024-01-03", "XAUUSD", -40)}
	in[0].ID = "T1"
	in[1].ID = "T2"
	in[1].Side = Sell
	in[1].Notes = "stopped out, \"news\""

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadCSVLenient(t *testing.T) {
	t.Parallel()

	data := "symbol,date,side,entry_price,exit_price,asset_type,extra\n" +
		"EURUSD,2024-01-02,Buy,1.085,,forex,ignored\n" +
		"GBPJPY,2024-01-03,short,190.2,189.9,forex,\n"

	got, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "EURUSD", got[0].Symbol)
	assert.Equal(t, Buy, got[0].Side)
	assert.Equal(t, 0.0, got[0].ExitPrice)
	assert.Equal(t, Sell, got[1].Side)
	assert.Equal(t, 189.9, got[1].ExitPrice)
	assert.NoError(t, got[0].Validate())
}

func TestReadCSVBadSide(t *testing.T) {
	t.Parallel()

	data := "date,symbol,side\n2024-01-02,EURUSD,hold\n"
	_, err := ReadCSV(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestReadCSVBadNumber(t *testing.T) {
	t.Parallel()

	data := "date,symbol,entry_price\n2024-01-02,EURUSD,abc\n"
	_, err := ReadCSV(strings.NewReader(data))
	assert.Error(t, err)
}
