package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rustyeddy/fxjournal/journal"
	"github.com/rustyeddy/fxjournal/pkg/id"
	"go.uber.org/zap"
)

// Actions understood by the worker.
const (
	ActionCreateSheet = "createSheet"
	ActionWriteTrade  = "writeTrade"
	ActionWriteTrades = "writeTrades"
	ActionReadTrades  = "readTrades"
	ActionSyncMetaAPI = "syncMetaAPI"
)

const (
	statusTradeSaved   = "Trade saved"
	statusTradesSaved  = "Trades saved"
	statusSyncComplete = "Sync complete"
)

const DefaultTimeout = 30 * time.Second

// Error is a failure reported by the worker for an action.
type Error struct {
	Action string
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("worker %s failed (status %d): %s", e.Action, e.Status, e.Detail)
}

// Credentials identify a MetaTrader account for a worker-side sync.
type Credentials struct {
	Platform      string `json:"platform"`
	Server        string `json:"server"`
	AccountNumber string `json:"accountNumber"`
	Password      string `json:"password"`
	Nickname      string `json:"nickname,omitempty"`
}

// Client talks to the worker, a single JSON-over-POST endpoint that stores
// trades in a per-user sheet.
type Client struct {
	url        string
	userID     string
	httpClient *http.Client
	log        *zap.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(url, userID string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		userID:     userID,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Action      string          `json:"action"`
	UserID      string          `json:"userId,omitempty"`
	TradeData   *journal.Trade  `json:"tradeData,omitempty"`
	Trades      []journal.Trade `json:"trades,omitempty"`
	Credentials *Credentials    `json:"credentials,omitempty"`
}

type statusResponse struct {
	Status string          `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}

func (r statusResponse) failed() bool {
	return len(r.Error) > 0 && string(r.Error) != "null"
}

// CreateSheet makes sure the user's sheet exists on the worker side.
func (c *Client) CreateSheet(ctx context.Context) error {
	_, err := c.expectStatus(ctx, request{Action: ActionCreateSheet}, "")
	return err
}

// WriteTrade stores a single trade.
func (c *Client) WriteTrade(ctx context.Context, t journal.Trade) error {
	_, err := c.expectStatus(ctx, request{Action: ActionWriteTrade, TradeData: &t}, statusTradeSaved)
	return err
}

// WriteTrades stores trades in one request.
func (c *Client) WriteTrades(ctx context.Context, trades []journal.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	_, err := c.expectStatus(ctx, request{Action: ActionWriteTrades, Trades: trades}, statusTradesSaved)
	return err
}

// ReadTrades returns every trade in the user's sheet with sides normalized
// and an ID on every row.
func (c *Client) ReadTrades(ctx context.Context) ([]journal.Trade, error) {
	status, body, err := c.post(ctx, request{Action: ActionReadTrades})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &Error{Action: ActionReadTrades, Status: status, Detail: errorDetail(body)}
	}

	var trades []journal.Trade
	if err := json.Unmarshal(body, &trades); err != nil {
		// the worker reports failures as an object even with a 200
		return nil, &Error{Action: ActionReadTrades, Status: status, Detail: errorDetail(body)}
	}
	for i := range trades {
		if err := normalizeRow(&trades[i]); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ActionReadTrades, i+1, err)
		}
	}
	return trades, nil
}

// normalizeRow maps sheet spellings of the side ("Sell", "Long") onto
// journal.Side and gives a row without an ID one derived from its date and
// contents, so pulling the same sheet twice replaces rather than duplicates.
func normalizeRow(t *journal.Trade) error {
	side, err := journal.ParseSide(string(t.Side))
	if err != nil {
		return err
	}
	t.Side = side

	if t.ID != "" {
		return nil
	}
	day, err := time.Parse(journal.DateLayout, t.Date)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	key := fmt.Sprintf("%s|%s|%s|%g|%g|%g|%g|%g|%g|%s|%s",
		t.Date, strings.ToUpper(t.Symbol), t.Side, t.EntryPrice, t.ExitPrice,
		t.TakeProfit, t.StopLoss, t.PnLNet, t.PositionSize, t.StrategyName, t.Notes)
	t.ID, err = id.Derive(day, []byte(key))
	return err
}

// SyncMetaAPI asks the worker to pull trades from a MetaTrader account.
func (c *Client) SyncMetaAPI(ctx context.Context, creds Credentials) error {
	_, err := c.expectStatus(ctx, request{Action: ActionSyncMetaAPI, Credentials: &creds}, statusSyncComplete)
	return err
}

// expectStatus posts req and checks the "status" field against want. An
// empty want accepts any 2xx response without an "error" field.
func (c *Client) expectStatus(ctx context.Context, req request, want string) (string, error) {
	status, body, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}

	var resp statusResponse
	_ = json.Unmarshal(body, &resp)

	ok := status >= 200 && status < 300 && !resp.failed()
	if ok && want != "" {
		ok = resp.Status == want
	}
	if !ok {
		c.log.Warn("worker action failed",
			zap.String("action", req.Action),
			zap.Int("status", status),
			zap.ByteString("body", body))
		return resp.Status, &Error{Action: req.Action, Status: status, Detail: errorDetail(body)}
	}
	return resp.Status, nil
}

func (c *Client) post(ctx context.Context, req request) (int, []byte, error) {
	req.UserID = c.userID

	payload, err := json.Marshal(req)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", req.Action, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug("worker request", zap.String("action", req.Action))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("execute %s: %w", req.Action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", req.Action, err)
	}
	return resp.StatusCode, body, nil
}

// errorDetail extracts the "error" member of a worker response, falling back
// to the raw body.
func errorDetail(body []byte) string {
	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.failed() {
		var s string
		if json.Unmarshal(resp.Error, &s) == nil {
			return s
		}
		return string(resp.Error)
	}
	return string(bytes.TrimSpace(body))
}
