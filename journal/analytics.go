package journal

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Point is one labelled value of a chart series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Bucket counts trades whose P&L falls in [Low, High). High is nil for the
// open-ended top bucket.
type Bucket struct {
	Label string   `json:"label"`
	Low   float64  `json:"low"`
	High  *float64 `json:"high"`
	Count int      `json:"count"`
}

// Report holds the series behind the journal charts.
type Report struct {
	Trades         int      `json:"trades"`
	TotalPnL       float64  `json:"total_pnl"`
	Wins           int      `json:"wins"`
	Losses         int      `json:"losses"`
	WinRate        float64  `json:"win_rate"`
	PnLByDate      []Point  `json:"pnl_by_date"`
	PnLByAssetType []Point  `json:"pnl_by_asset_type"`
	Distribution   []Bucket `json:"distribution"`
}

// DistributionBins are the P&L histogram edges. P&L below the first edge is
// not counted.
var DistributionBins = []float64{-1000, -500, -100, 0, 100, 500, 1000, math.Inf(1)}

// Analyze aggregates trades into the chart series: P&L summed per date
// (sorted by date), P&L per asset type (first-seen order), win/loss
// counts (zero P&L counts as neither) and the P&L distribution.
func Analyze(trades []Trade) Report {
	r := Report{Trades: len(trades)}

	byDate := map[string]decimal.Decimal{}
	byAsset := map[string]decimal.Decimal{}
	var assetOrder []string
	total := decimal.Zero

	for _, t := range trades {
		pnl := decimal.NewFromFloat(t.PnLNet)
		total = total.Add(pnl)

		byDate[t.Date] = byDate[t.Date].Add(pnl)

		if _, ok := byAsset[t.AssetType]; !ok {
			assetOrder = append(assetOrder, t.AssetType)
		}
		byAsset[t.AssetType] = byAsset[t.AssetType].Add(pnl)

		switch {
		case t.PnLNet > 0:
			r.Wins++
		case t.PnLNet < 0:
			r.Losses++
		}
	}

	r.TotalPnL = total.InexactFloat64()
	if decided := r.Wins + r.Losses; decided > 0 {
		r.WinRate = decimal.NewFromInt(int64(r.Wins)).
			Div(decimal.NewFromInt(int64(decided))).
			Round(4).InexactFloat64()
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	r.PnLByDate = make([]Point, 0, len(dates))
	for _, d := range dates {
		r.PnLByDate = append(r.PnLByDate, Point{Label: d, Value: byDate[d].InexactFloat64()})
	}

	r.PnLByAssetType = make([]Point, 0, len(assetOrder))
	for _, a := range assetOrder {
		r.PnLByAssetType = append(r.PnLByAssetType, Point{Label: a, Value: byAsset[a].InexactFloat64()})
	}

	r.Distribution = distribution(trades)
	return r
}

func distribution(trades []Trade) []Bucket {
	out := make([]Bucket, 0, len(DistributionBins)-1)
	for i := 0; i < len(DistributionBins)-1; i++ {
		lo, hi := DistributionBins[i], DistributionBins[i+1]
		b := Bucket{Label: fmt.Sprintf("%s to %s", edge(lo), edge(hi)), Low: lo}
		if !math.IsInf(hi, 1) {
			b.High = &hi
		}
		for _, t := range trades {
			if t.PnLNet >= lo && t.PnLNet < hi {
				b.Count++
			}
		}
		out = append(out, b)
	}
	return out
}

func edge(x float64) string {
	if math.IsInf(x, 1) {
		return "Infinity"
	}
	return fmt.Sprintf("%g", x)
}
