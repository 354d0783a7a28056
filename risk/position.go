package risk

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/rustyeddy/fxjournal/market"
)

// PositionInput describes a planned trade. Prices are in the instrument's
// quote currency; Capital is in AccountCurrency.
type PositionInput struct {
	AccountCurrency string                   `json:"account_currency"`
	Capital         float64                  `json:"capital"`
	RiskPercent     float64                  `json:"risk_percent"` // 2 means 2%
	EntryPrice      float64                  `json:"entry_price"`
	StopLossPrice   float64                  `json:"stop_loss_price"`
	TakeProfitPrice optional.Option[float64] `json:"take_profit_price,omitempty"`
	Symbol          string                   `json:"symbol"`
}

// PositionResult is the size that risks exactly RiskAmount between entry and
// stop. Lots is zero for instruments without a standard lot.
type PositionResult struct {
	Symbol           string                   `json:"symbol"`
	RiskAmount       Money                    `json:"risk_amount"`
	StopLossPips     float64                  `json:"stop_loss_pips"`
	PipSize          float64                  `json:"pip_size"`
	QuoteToAccount   float64                  `json:"quote_to_account"`
	RecommendedUnits float64                  `json:"recommended_units"`
	Lots             float64                  `json:"lots"`
	RRRatio          optional.Option[float64] `json:"rr_ratio,omitempty"`
}

// CalculatePositionSize sizes a position so that hitting the stop loses
// RiskPercent of Capital in the account currency:
//
//	units = riskAmount / (stopLossPips * pipSize * quoteToAccount)
//
// Every number must be finite. Inputs are then checked in order (capital,
// risk percent, entry, stop, entry vs stop, instrument) and the first
// failure is returned as a *ValidationError without touching the rate
// provider. The only lookup is quote->account, skipped when they are the
// same currency.
func CalculatePositionSize(ctx context.Context, rates market.RateProvider, in PositionInput) (PositionResult, error) {
	nums := []number{
		{"capital", in.Capital},
		{"risk_percent", in.RiskPercent},
		{"entry_price", in.EntryPrice},
		{"stop_loss_price", in.StopLossPrice},
	}
	if tp, err := in.TakeProfitPrice.Take(); err == nil {
		nums = append(nums, number{"take_profit_price", tp})
	}
	if err := allFinite(nums...); err != nil {
		return PositionResult{}, err
	}
	if in.Capital <= 0 {
		return PositionResult{}, invalid("capital", "must be greater than zero")
	}
	if in.RiskPercent <= 0 || in.RiskPercent > 100 {
		return PositionResult{}, invalid("risk_percent", "must be in (0, 100]")
	}
	if in.EntryPrice <= 0 {
		return PositionResult{}, invalid("entry_price", "must be greater than zero")
	}
	if in.StopLossPrice <= 0 {
		return PositionResult{}, invalid("stop_loss_price", "must be greater than zero")
	}
	if in.EntryPrice == in.StopLossPrice {
		return PositionResult{}, sameEntryStop()
	}

	pair := market.ParseSymbol(in.Symbol)
	pip := market.GetPipPointDetails(in.Symbol)
	if !pip.IsCalculable || !pair.Valid() {
		return PositionResult{}, unsupported(in.Symbol)
	}
	if in.AccountCurrency == "" {
		return PositionResult{}, invalid("account_currency", "is required")
	}

	riskAmt := RiskAmount(in.Capital, in.RiskPercent)
	stopPips := market.StopLossDistance(in.EntryPrice, in.StopLossPrice, pip.PipSize)

	quoteToAccount, err := market.Rate(ctx, rates, pair.Quote, in.AccountCurrency)
	if err != nil {
		return PositionResult{}, err
	}

	pipValuePerUnit := pip.PipSize * quoteToAccount
	units := riskAmt / (stopPips * pipValuePerUnit)

	res := PositionResult{
		Symbol:           in.Symbol,
		RiskAmount:       Money{Amount: riskAmt, Currency: in.AccountCurrency},
		StopLossPips:     stopPips,
		PipSize:          pip.PipSize,
		QuoteToAccount:   quoteToAccount,
		RecommendedUnits: units,
		RRRatio:          RR(in.EntryPrice, in.StopLossPrice, in.TakeProfitPrice),
	}
	if lot := market.LotSize(in.Symbol); lot > 0 {
		res.Lots = units / lot
	}
	return res, nil
}
