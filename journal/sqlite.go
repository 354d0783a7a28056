package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/fxjournal/pkg/id"
)

// SQLite is a Store backed by a local SQLite file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

const tradeColumns = `id, date, symbol, asset_type, side, entry_price, exit_price,
	take_profit, stop_loss, pnl_net, position_size, strategy_name, notes`

const upsertTrade = `INSERT OR REPLACE INTO trades (` + tradeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeTrade(ctx context.Context, ex execer, t Trade) error {
	_, err := ex.ExecContext(ctx, upsertTrade,
		t.ID, t.Date, t.Symbol, t.AssetType, string(t.Side), t.EntryPrice, t.ExitPrice,
		t.TakeProfit, t.StopLoss, t.PnLNet, t.PositionSize, t.StrategyName, t.Notes,
	)
	return err
}

func (j *SQLite) Add(ctx context.Context, t Trade) (Trade, error) {
	if err := t.Validate(); err != nil {
		return Trade{}, err
	}
	if t.ID == "" {
		t.ID = id.New()
	}
	if err := writeTrade(ctx, j.db, t); err != nil {
		return Trade{}, fmt.Errorf("insert trade: %w", err)
	}
	return t, nil
}

func (j *SQLite) AddMany(ctx context.Context, trades []Trade) error {
	for i := range trades {
		if err := trades[i].Validate(); err != nil {
			return fmt.Errorf("trade %d: %w", i, err)
		}
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range trades {
		if trades[i].ID == "" {
			trades[i].ID = id.New()
		}
		if err := writeTrade(ctx, tx, trades[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (Trade, error) {
	var t Trade
	var side string
	err := s.Scan(
		&t.ID,
		&t.Date,
		&t.Symbol,
		&t.AssetType,
		&side,
		&t.EntryPrice,
		&t.ExitPrice,
		&t.TakeProfit,
		&t.StopLoss,
		&t.PnLNet,
		&t.PositionSize,
		&t.StrategyName,
		&t.Notes,
	)
	t.Side = Side(side)
	return t, err
}

// Get returns a single trade by ID.
func (j *SQLite) Get(ctx context.Context, tradeID string) (Trade, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, tradeID)

	t, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Trade{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
		}
		return Trade{}, err
	}
	return t, nil
}

func (j *SQLite) List(ctx context.Context) ([]Trade, error) {
	return j.query(ctx, `SELECT `+tradeColumns+` FROM trades ORDER BY date ASC, id ASC`)
}

// ListBetween returns trades whose date is within [start, end). Dates
// compare as YYYY-MM-DD strings.
func (j *SQLite) ListBetween(ctx context.Context, start, end string) ([]Trade, error) {
	return j.query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE date >= ? AND date < ?
		ORDER BY date ASC, id ASC`, start, end)
}

func (j *SQLite) query(ctx context.Context, q string, args ...any) ([]Trade, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
