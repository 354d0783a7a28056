package market

import (
	"math"
	"strings"
)

// Pair is the base/quote split of an instrument symbol, e.g. EURUSD -> EUR/USD.
type Pair struct {
	Base  string
	Quote string
}

// Valid reports whether both legs are three-letter codes.
func (p Pair) Valid() bool {
	return len(p.Base) == 3 && len(p.Quote) == 3
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// ParseSymbol splits symbol into base and quote currency codes. Metals use
// their XAU/XAG code as the base. Anything else that is not exactly six
// characters yields an empty Pair. No case or whitespace normalization is
// done.
func ParseSymbol(symbol string) Pair {
	if hasPrefix(symbol, "XAU") || hasPrefix(symbol, "XAG") {
		end := len(symbol)
		if end > 6 {
			end = 6
		}
		return Pair{Base: symbol[:3], Quote: symbol[3:end]}
	}
	if len(symbol) == 6 {
		return Pair{Base: symbol[:3], Quote: symbol[3:]}
	}
	return Pair{}
}

// GetAssetType classifies symbol. Six character symbols not starting with
// "X" are forex pairs, XAU/XAG prefixed symbols are metals. The rest is
// matched against the stock, index and crypto lists and otherwise Unknown.
func GetAssetType(symbol string) AssetType {
	switch {
	case len(symbol) == 6 && !hasPrefix(symbol, "X"):
		return Forex
	case hasPrefix(symbol, "XAU") || hasPrefix(symbol, "XAG"):
		return Metal
	case stockSymbols[symbol]:
		return Stock
	case indexSymbols[symbol]:
		return Index
	case cryptoSymbols[symbol]:
		return Crypto
	}
	return Unknown
}

// PipDetails describes the minimum price increment used for sizing.
type PipDetails struct {
	PipSize      float64
	ValueLabel   string
	IsCalculable bool
}

// GetPipPointDetails returns the pip (forex) or point (metal) size of symbol.
// All margin and position math takes its pip size from here.
func GetPipPointDetails(symbol string) PipDetails {
	switch GetAssetType(symbol) {
	case Forex:
		size := 0.0001
		if strings.Contains(symbol, "JPY") {
			size = 0.01
		}
		return PipDetails{PipSize: size, ValueLabel: "Pip Value", IsCalculable: true}
	case Metal:
		return PipDetails{PipSize: 1, ValueLabel: "Point Value", IsCalculable: true}
	}
	return PipDetails{PipSize: 0, ValueLabel: "N/A", IsCalculable: false}
}

// StopLossDistance is the entry to stop distance measured in pips. Callers
// must reject entry == stop and a zero pipSize beforehand.
func StopLossDistance(entry, stop, pipSize float64) float64 {
	return math.Abs(entry-stop) / pipSize
}

func hasPrefix(s, prefix string) bool {
	return strings.HasPrefix(s, prefix)
}
