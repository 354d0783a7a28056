package journal

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes trades with a header row. Column names come from the csv
// struct tags of Trade.
func WriteCSV(w io.Writer, trades []Trade) error {
	if trades == nil {
		trades = []Trade{}
	}
	if err := gocsv.Marshal(&trades, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadCSV parses trades from a CSV with a header row. Columns are matched by
// name and may appear in any order; unknown columns are ignored and empty
// numeric cells read as 0. Rows are not validated here.
func ReadCSV(r io.Reader) ([]Trade, error) {
	var trades []Trade
	if err := gocsv.Unmarshal(r, &trades); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	for i := range trades {
		if trades[i].Side == "" {
			continue
		}
		side, err := ParseSide(string(trades[i].Side))
		if err != nil {
			return nil, fmt.Errorf("read csv: row %d: %w", i+1, err)
		}
		trades[i].Side = side
	}
	return trades, nil
}
