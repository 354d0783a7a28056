// Package server exposes the calculators and the trade journal as a small
// JSON API for the web UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	"github.com/rustyeddy/fxjournal/journal"
	"github.com/rustyeddy/fxjournal/market"
	"github.com/rustyeddy/fxjournal/risk"
	"go.uber.org/zap"
)

// Defaults fill in calculator inputs a request leaves out.
type Defaults struct {
	AccountCurrency string
	Leverage        float64
	Capital         float64
	RiskPercent     float64
}

// Server routes API requests to the calculators and the journal store.
type Server struct {
	store    journal.Store
	rates    market.RateProvider
	defaults Defaults
	log      *zap.Logger
	router   *mux.Router
}

func New(store journal.Store, rates market.RateProvider, defaults Defaults, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		store:    store,
		rates:    rates,
		defaults: defaults,
		log:      log,
	}

	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/margin", s.handleMargin).Methods("POST")
	api.HandleFunc("/position-size", s.handlePositionSize).Methods("POST")
	api.HandleFunc("/trades", s.handleListTrades).Methods("GET")
	api.HandleFunc("/trades", s.handleAddTrade).Methods("POST")
	api.HandleFunc("/trades/{id}", s.handleGetTrade).Methods("GET")
	api.HandleFunc("/analytics", s.handleAnalytics).Methods("GET")

	s.router = router
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(listener)
	}()
	s.log.Info("listening", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Result any    `json:"result,omitempty"`
}

type positionResponse struct {
	risk.PositionResult
	RRDisplay string `json:"rr_display"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// marginRequest is risk.MarginInput with leverage optional, so an explicit
// zero still reaches validation.
type marginRequest struct {
	AccountCurrency string                   `json:"account_currency"`
	Leverage        optional.Option[float64] `json:"leverage"`
	Symbol          string                   `json:"symbol"`
	TradeSizeUnits  float64                  `json:"trade_size_units"`
}

type positionRequest struct {
	AccountCurrency string                   `json:"account_currency"`
	Capital         optional.Option[float64] `json:"capital"`
	RiskPercent     optional.Option[float64] `json:"risk_percent"`
	EntryPrice      float64                  `json:"entry_price"`
	StopLossPrice   float64                  `json:"stop_loss_price"`
	TakeProfitPrice optional.Option[float64] `json:"take_profit_price"`
	Symbol          string                   `json:"symbol"`
}

func (s *Server) currency(c string) string {
	if c == "" {
		return s.defaults.AccountCurrency
	}
	return c
}

// handleMargin handles POST /api/margin
func (s *Server) handleMargin(w http.ResponseWriter, r *http.Request) {
	var req marginRequest
	if !s.decode(w, r, &req) {
		return
	}
	in := risk.MarginInput{
		AccountCurrency: s.currency(req.AccountCurrency),
		Leverage:        req.Leverage.TakeOr(s.defaults.Leverage),
		Symbol:          req.Symbol,
		TradeSizeUnits:  req.TradeSizeUnits,
	}

	res, err := risk.CalculateMargin(r.Context(), s.rates, in)
	if err != nil {
		var partial any
		if res.Symbol != "" {
			partial = res
		}
		s.writeCalcError(w, err, partial)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handlePositionSize handles POST /api/position-size
func (s *Server) handlePositionSize(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !s.decode(w, r, &req) {
		return
	}
	in := risk.PositionInput{
		AccountCurrency: s.currency(req.AccountCurrency),
		Capital:         req.Capital.TakeOr(s.defaults.Capital),
		RiskPercent:     req.RiskPercent.TakeOr(s.defaults.RiskPercent),
		EntryPrice:      req.EntryPrice,
		StopLossPrice:   req.StopLossPrice,
		TakeProfitPrice: req.TakeProfitPrice,
		Symbol:          req.Symbol,
	}

	res, err := risk.CalculatePositionSize(r.Context(), s.rates, in)
	if err != nil {
		s.writeCalcError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, positionResponse{PositionResult: res, RRDisplay: risk.FormatRR(res.RRRatio)})
}

func (s *Server) writeCalcError(w http.ResponseWriter, err error, partial any) {
	var verr *risk.ValidationError
	var rerr *market.RateError

	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: verr.Field})
	case errors.As(err, &rerr):
		s.log.Warn("rate lookup failed", zap.Error(err))
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Result: partial})
	default:
		s.log.Error("calculation failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// handleListTrades handles GET /api/trades, optionally filtered by
// ?from=YYYY-MM-DD&to=YYYY-MM-DD (to is exclusive).
func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	trades, ok := s.listTrades(w, r)
	if !ok {
		return
	}
	if trades == nil {
		trades = []journal.Trade{}
	}
	s.writeJSON(w, http.StatusOK, trades)
}

// handleAddTrade handles POST /api/trades
func (s *Server) handleAddTrade(w http.ResponseWriter, r *http.Request) {
	var t journal.Trade
	if !s.decode(w, r, &t) {
		return
	}
	if t.Side != "" {
		side, err := journal.ParseSide(string(t.Side))
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "buySell"})
			return
		}
		t.Side = side
	}
	if t.AssetType == "" {
		t.AssetType = string(market.GetAssetType(t.Symbol))
	}

	saved, err := s.store.Add(r.Context(), t)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.log.Error("add trade", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

// handleGetTrade handles GET /api/trades/{id}
func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	t, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		s.log.Error("get trade", zap.String("id", id), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// handleAnalytics handles GET /api/analytics, accepting the same filters as
// the trade list.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	trades, ok := s.listTrades(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, journal.Analyze(trades))
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) ([]journal.Trade, bool) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	var trades []journal.Trade
	var err error
	switch {
	case from == "" && to == "":
		trades, err = s.store.List(r.Context())
	case from == "" || to == "":
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from and to must be given together"})
		return nil, false
	default:
		for _, d := range []string{from, to} {
			if _, perr := time.Parse(journal.DateLayout, d); perr != nil {
				s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("bad date %q", d)})
				return nil, false
			}
		}
		trades, err = s.store.ListBetween(r.Context(), from, to)
	}
	if err != nil {
		s.log.Error("list trades", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return nil, false
	}
	return trades, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

// writeJSON encodes v before writing the header so an unencodable value
// (a NaN or infinite float) becomes a 500 instead of a truncated 200.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encode response", zap.Int("status", status), zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "response could not be encoded"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.log.Debug("write response", zap.Error(err))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
