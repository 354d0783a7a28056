// market/instruments.go
package market

// AssetType classifies an instrument symbol.
type AssetType string

const (
	Forex   AssetType = "forex"
	Metal   AssetType = "metal"
	Stock   AssetType = "stock"
	Index   AssetType = "index"
	Crypto  AssetType = "crypto"
	Unknown AssetType = "unknown"
)

// Calculable reports whether pip/point based sizing is defined for the asset type.
func (a AssetType) Calculable() bool {
	return a == Forex || a == Metal
}

func (a AssetType) String() string {
	return string(a)
}

// Symbols the journal recognizes but the calculators refuse.
var (
	stockSymbols = map[string]bool{
		"AAPL": true, "MSFT": true, "GOOGL": true, "AMZN": true,
		"TSLA": true, "NVDA": true, "META": true, "NFLX": true,
	}
	indexSymbols = map[string]bool{
		"US30": true, "US500": true, "US100": true,
		"GER40": true, "UK100": true, "JP225": true,
	}
	cryptoSymbols = map[string]bool{
		"BTC": true, "ETH": true, "XRP": true, "LTC": true, "SOL": true,
		"BTCUSDT": true, "ETHUSDT": true,
	}
)

// Units in one standard lot.
const (
	ForexLotSize  = 100_000.0
	GoldLotSize   = 100.0   // troy ounces
	SilverLotSize = 5_000.0 // troy ounces
)

// LotSize returns the number of units in a standard lot for symbol, or 0
// when the instrument has no lot convention here.
func LotSize(symbol string) float64 {
	switch {
	case hasPrefix(symbol, "XAU"):
		return GoldLotSize
	case hasPrefix(symbol, "XAG"):
		return SilverLotSize
	case GetAssetType(symbol) == Forex:
		return ForexLotSize
	}
	return 0
}
