// journal/journal.go
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the layout of Trade.Date.
const DateLayout = "2006-01-02"

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide accepts "buy"/"sell" in any case, and "long"/"short".
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return Buy, nil
	case "sell", "short":
		return Sell, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// Trade is one journal entry. JSON names match the worker's sheet columns.
type Trade struct {
	ID           string  `json:"id,omitempty" csv:"id"`
	Date         string  `json:"date" csv:"date" validate:"required,datetime=2006-01-02"`
	Symbol       string  `json:"symbol" csv:"symbol" validate:"required"`
	AssetType    string  `json:"assetType" csv:"asset_type" validate:"required"`
	Side         Side    `json:"buySell" csv:"side" validate:"required,oneof=buy sell"`
	EntryPrice   float64 `json:"entryPrice" csv:"entry_price" validate:"gt=0"`
	ExitPrice    float64 `json:"exitPrice" csv:"exit_price" validate:"gte=0"`
	TakeProfit   float64 `json:"takeProfit" csv:"take_profit" validate:"gte=0"`
	StopLoss     float64 `json:"stopLoss" csv:"stop_loss" validate:"gte=0"`
	PnLNet       float64 `json:"pnlNet" csv:"pnl_net"`
	PositionSize float64 `json:"positionSize" csv:"position_size" validate:"gte=0"`
	StrategyName string  `json:"strategyName" csv:"strategy_name"`
	Notes        string  `json:"notes" csv:"notes"`
}

var validate = validator.New()

// Validate checks the required fields: date, symbol, asset type, side and
// a positive entry price.
func (t *Trade) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid trade: %w", err)
	}
	return nil
}

var ErrNotFound = errors.New("trade not found")

// Store persists journal trades.
type Store interface {
	// Add validates t, assigns an ID when empty and stores it.
	Add(ctx context.Context, t Trade) (Trade, error)
	// AddMany stores trades in one transaction, replacing any with the same ID.
	AddMany(ctx context.Context, trades []Trade) error
	Get(ctx context.Context, id string) (Trade, error)
	// List returns every trade ordered by date.
	List(ctx context.Context) ([]Trade, error)
	// ListBetween returns trades dated within [start, end).
	ListBetween(ctx context.Context, start, end string) ([]Trade, error)
	Close() error
}
