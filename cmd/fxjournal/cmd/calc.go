package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/moznion/go-optional"
	"github.com/rustyeddy/fxjournal/market"
	"github.com/rustyeddy/fxjournal/risk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var marginCmd = &cobra.Command{
	Use:   "margin",
	Short: "Required margin and pip value for a position",
	Long: `Calculate the margin needed to open a position and the value of one
pip (forex) or point (metals), both in the account currency.

Examples:
  fxjournal margin --symbol EURUSD --units 100000
  fxjournal margin --symbol XAUUSD --units 10 --leverage 20 --currency EUR`,
	Args: cobra.NoArgs,
	RunE: runMargin,
}

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Position size from capital, risk and stop loss",
	Long: `Calculate how many units to trade so that hitting the stop loss loses the
chosen percentage of capital. With --tp the risk/reward ratio is shown.

Examples:
  fxjournal size --symbol EURUSD --entry 1.1000 --stop 1.0950 --tp 1.1100
  fxjournal size --symbol USDJPY --entry 150.00 --stop 149.50 --capital 5000 --risk 1.5`,
	Args: cobra.NoArgs,
	RunE: runSize,
}

var (
	calcSymbol   string
	calcCurrency string

	marginUnits    float64
	marginLeverage float64

	sizeCapital float64
	sizeRisk    float64
	sizeEntry   float64
	sizeStop    float64
	sizeTP      float64
)

func init() {
	rootCmd.AddCommand(marginCmd)
	rootCmd.AddCommand(sizeCmd)

	for _, c := range []*cobra.Command{marginCmd, sizeCmd} {
		c.Flags().StringVarP(&calcSymbol, "symbol", "s", "", "instrument symbol, e.g. EURUSD or XAUUSD (required)")
		c.Flags().StringVar(&calcCurrency, "currency", "", "account currency (default from config)")
		c.MarkFlagRequired("symbol")
	}

	marginCmd.Flags().Float64VarP(&marginUnits, "units", "u", 0, "trade size in units (required)")
	marginCmd.Flags().Float64VarP(&marginLeverage, "leverage", "l", 0, "leverage, 100 means 100:1 (default from config)")
	marginCmd.MarkFlagRequired("units")

	sizeCmd.Flags().Float64Var(&sizeCapital, "capital", 0, "account capital (default from config)")
	sizeCmd.Flags().Float64VarP(&sizeRisk, "risk", "r", 0, "percent of capital to risk (default from config)")
	sizeCmd.Flags().Float64VarP(&sizeEntry, "entry", "e", 0, "entry price (required)")
	sizeCmd.Flags().Float64Var(&sizeStop, "stop", 0, "stop-loss price (required)")
	sizeCmd.Flags().Float64Var(&sizeTP, "tp", 0, "take-profit price")
	sizeCmd.MarkFlagRequired("entry")
	sizeCmd.MarkFlagRequired("stop")
}

func accountCurrency() string {
	if calcCurrency != "" {
		return calcCurrency
	}
	return cfg.Account.Currency
}

func runMargin(cmd *cobra.Command, args []string) error {
	leverage := marginLeverage
	if !cmd.Flags().Changed("leverage") {
		leverage = cfg.Account.Leverage
	}

	in := risk.MarginInput{
		AccountCurrency: accountCurrency(),
		Leverage:        leverage,
		Symbol:          calcSymbol,
		TradeSizeUnits:  marginUnits,
	}
	log.Debug("margin", zap.Any("input", in))

	res, err := risk.CalculateMargin(cmd.Context(), cfg.RateProvider(log), in)
	if err != nil && res.Symbol == "" {
		return explain(cmd.ErrOrStderr(), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", res.Symbol, res.AssetType)
	fmt.Fprintf(out, "  Current price:   %.5f\n", res.CurrentPrice)
	fmt.Fprintf(out, "  Required margin: %s\n", res.RequiredMargin)
	fmt.Fprintf(out, "  %-16s %s\n", res.ValueLabel+":", res.PipValue)

	if err != nil {
		fmt.Fprintf(out, "\n⚠ amounts are in %s, conversion to %s failed\n", res.RequiredMargin.Currency, in.AccountCurrency)
		return explain(cmd.ErrOrStderr(), err)
	}
	return nil
}

func runSize(cmd *cobra.Command, args []string) error {
	in := risk.PositionInput{
		AccountCurrency: accountCurrency(),
		Capital:         sizeCapital,
		RiskPercent:     sizeRisk,
		EntryPrice:      sizeEntry,
		StopLossPrice:   sizeStop,
		Symbol:          calcSymbol,
	}
	if !cmd.Flags().Changed("capital") {
		in.Capital = cfg.Account.Capital
	}
	if !cmd.Flags().Changed("risk") {
		in.RiskPercent = cfg.Account.RiskPercent
	}
	if cmd.Flags().Changed("tp") {
		in.TakeProfitPrice = optional.Some(sizeTP)
	}
	log.Debug("position size", zap.Any("input", in))

	res, err := risk.CalculatePositionSize(cmd.Context(), cfg.RateProvider(log), in)
	if err != nil {
		return explain(cmd.ErrOrStderr(), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", res.Symbol)
	fmt.Fprintf(out, "  Risk amount:       %s\n", res.RiskAmount)
	fmt.Fprintf(out, "  Stop loss:         %.1f pips\n", res.StopLossPips)
	fmt.Fprintf(out, "  Recommended units: %.0f\n", res.RecommendedUnits)
	fmt.Fprintf(out, "  Lots:              %.2f\n", res.Lots)
	fmt.Fprintf(out, "  Risk/Reward:       %s\n", risk.FormatRR(res.RRRatio))
	return nil
}

// explain adds a hint for the errors users can fix from the command line.
func explain(w io.Writer, err error) error {
	switch {
	case errors.Is(err, risk.ErrUnsupportedInstrument):
		fmt.Fprintln(w, "hint: only forex pairs (e.g. EURUSD) and metals (XAUUSD, XAGUSD) can be sized")
	case errors.Is(err, market.ErrRateUnavailable):
		fmt.Fprintln(w, "hint: check the rates API key or add the pair to rates.static")
	}
	return err
}
