package risk

import (
	"context"

	"github.com/rustyeddy/fxjournal/market"
)

// MarginInput holds the values of one margin calculation.
type MarginInput struct {
	AccountCurrency string  `json:"account_currency"`
	Leverage        float64 `json:"leverage"`
	Symbol          string  `json:"symbol"`
	TradeSizeUnits  float64 `json:"trade_size_units"`
}

// MarginResult is the outcome of CalculateMargin. When Converted is false the
// quote->account lookup failed and both amounts are still in the quote
// currency.
type MarginResult struct {
	Symbol         string           `json:"symbol"`
	AssetType      market.AssetType `json:"asset_type"`
	CurrentPrice   float64          `json:"current_price"`
	RequiredMargin Money            `json:"required_margin"`
	PipValue       Money            `json:"pip_value"`
	ValueLabel     string           `json:"value_label"`
	Converted      bool             `json:"converted"`
}

// CalculateMargin returns the margin needed to open in.TradeSizeUnits of
// in.Symbol at in.Leverage and the value of one pip (or point) on that
// position, both in the account currency.
//
// The notional units*price is priced in the quote currency, so margin and
// pip value are first computed in the quote currency and then converted with
// a single quote->account lookup. Validation failures return a
// *ValidationError before any lookup. A failed base->quote price lookup
// returns a zero result and a *market.RateError. A failed quote->account
// lookup returns the unconverted result along with the *market.RateError.
func CalculateMargin(ctx context.Context, rates market.RateProvider, in MarginInput) (MarginResult, error) {
	if err := allFinite(
		number{"leverage", in.Leverage},
		number{"trade_size_units", in.TradeSizeUnits},
	); err != nil {
		return MarginResult{}, err
	}
	if in.Leverage <= 0 {
		return MarginResult{}, invalid("leverage", "must be greater than zero")
	}
	if in.TradeSizeUnits <= 0 {
		return MarginResult{}, invalid("trade_size_units", "must be greater than zero")
	}
	if in.AccountCurrency == "" {
		return MarginResult{}, invalid("account_currency", "is required")
	}

	asset := market.GetAssetType(in.Symbol)
	pair := market.ParseSymbol(in.Symbol)
	pip := market.GetPipPointDetails(in.Symbol)
	if !pip.IsCalculable || !pair.Valid() {
		return MarginResult{}, unsupported(in.Symbol)
	}

	price, err := market.Rate(ctx, rates, pair.Base, pair.Quote)
	if err != nil {
		return MarginResult{}, err
	}

	res := MarginResult{
		Symbol:       in.Symbol,
		AssetType:    asset,
		CurrentPrice: price,
		RequiredMargin: Money{
			Amount:   price * in.TradeSizeUnits / in.Leverage,
			Currency: pair.Quote,
		},
		PipValue: Money{
			Amount:   in.TradeSizeUnits * pip.PipSize,
			Currency: pair.Quote,
		},
		ValueLabel: pip.ValueLabel,
	}

	quoteToAccount, err := market.Rate(ctx, rates, pair.Quote, in.AccountCurrency)
	if err != nil {
		return res, err
	}

	res.RequiredMargin = Money{Amount: res.RequiredMargin.Amount * quoteToAccount, Currency: in.AccountCurrency}
	res.PipValue = Money{Amount: res.PipValue.Amount * quoteToAccount, Currency: in.AccountCurrency}
	res.Converted = true
	return res, nil
}
