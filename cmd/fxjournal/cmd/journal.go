package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/fxjournal/journal"
	"github.com/rustyeddy/fxjournal/market"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Record and query trades",
	Long: `Record and query trades in the local SQLite journal.

Subcommands:
  add     - Record a trade
  list    - List trades, optionally within a date range
  show    - Show one trade as an Org-mode block
  org     - Render trades as Org-mode blocks
  import  - Import trades from a CSV file (.csv or .csv.xz)
  export  - Export trades to CSV, xz-compressed when the name ends in .xz
  stats   - P&L totals, win rate and distribution

Examples:
  fxjournal journal add --symbol EURUSD --side buy --entry 1.085 --exit 1.09 --pnl 50
  fxjournal journal list --from 2024-01-01 --to 2024-02-01
  fxjournal journal export -o trades.csv`,
}

var journalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a trade",
	Args:  cobra.NoArgs,
	RunE:  runJournalAdd,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <trade-id>",
	Short: "Show details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalOrgCmd = &cobra.Command{
	Use:   "org",
	Short: "Render trades as Org-mode blocks",
	Args:  cobra.NoArgs,
	RunE:  runJournalOrg,
}

var journalImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import trades from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalImport,
}

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trades to CSV",
	Args:  cobra.NoArgs,
	RunE:  runJournalExport,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize P&L",
	Args:  cobra.NoArgs,
	RunE:  runJournalStats,
}

var (
	journalDBPath string
	journalFrom   string
	journalTo     string
	journalOutput string

	addTrade journal.Trade
	addSide  string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalAddCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalOrgCmd)
	journalCmd.AddCommand(journalImportCmd)
	journalCmd.AddCommand(journalExportCmd)
	journalCmd.AddCommand(journalStatsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default from config)")

	for _, c := range []*cobra.Command{journalListCmd, journalOrgCmd, journalExportCmd, journalStatsCmd} {
		c.Flags().StringVar(&journalFrom, "from", "", "first day to include (YYYY-MM-DD)")
		c.Flags().StringVar(&journalTo, "to", "", "day after the last one to include (YYYY-MM-DD)")
	}
	journalExportCmd.Flags().StringVarP(&journalOutput, "output", "o", "", "output file, .xz suffix compresses (default stdout)")

	f := journalAddCmd.Flags()
	f.StringVar(&addTrade.Date, "date", "", "trade date YYYY-MM-DD (default today)")
	f.StringVarP(&addTrade.Symbol, "symbol", "s", "", "instrument symbol (required)")
	f.StringVar(&addSide, "side", "", "buy or sell (required)")
	f.Float64VarP(&addTrade.EntryPrice, "entry", "e", 0, "entry price (required)")
	f.Float64Var(&addTrade.ExitPrice, "exit", 0, "exit price")
	f.Float64Var(&addTrade.TakeProfit, "tp", 0, "take-profit price")
	f.Float64Var(&addTrade.StopLoss, "sl", 0, "stop-loss price")
	f.Float64Var(&addTrade.PnLNet, "pnl", 0, "net profit or loss")
	f.Float64Var(&addTrade.PositionSize, "size", 0, "position size")
	f.StringVar(&addTrade.StrategyName, "strategy", "", "strategy name")
	f.StringVar(&addTrade.Notes, "notes", "", "free-form notes")
	journalAddCmd.MarkFlagRequired("symbol")
	journalAddCmd.MarkFlagRequired("side")
	journalAddCmd.MarkFlagRequired("entry")
}

func openJournal() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		path = cfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	log.Debug("journal opened", zap.String("path", path))
	return j, nil
}

// selectTrades lists every trade, or only those in [--from, --to).
func selectTrades(cmd *cobra.Command, j journal.Store) ([]journal.Trade, error) {
	if journalFrom == "" && journalTo == "" {
		return j.List(cmd.Context())
	}

	from, to := journalFrom, journalTo
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	for _, d := range []string{journalFrom, journalTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(journal.DateLayout, d); err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
	}
	return j.ListBetween(cmd.Context(), from, to)
}

func runJournalAdd(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	t := addTrade
	side, err := journal.ParseSide(addSide)
	if err != nil {
		return err
	}
	t.Side = side
	if t.Date == "" {
		t.Date = time.Now().Format(journal.DateLayout)
	}
	t.AssetType = string(market.GetAssetType(t.Symbol))

	saved, err := j.Add(cmd.Context(), t)
	if err != nil {
		return fmt.Errorf("add trade: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded trade %s\n", saved.ID)
	return nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := selectTrades(cmd, j)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(trades) == 0 {
		fmt.Fprintln(out, "no trades")
		return nil
	}
	fmt.Fprintf(out, "%-26s %-10s %-8s %-4s %12s %12s %10s\n", "ID", "DATE", "SYMBOL", "SIDE", "ENTRY", "EXIT", "PNL")
	for _, t := range trades {
		fmt.Fprintf(out, "%-26s %-10s %-8s %-4s %12.5f %12.5f %10.2f\n",
			t.ID, t.Date, t.Symbol, strings.ToUpper(string(t.Side)), t.EntryPrice, t.ExitPrice, t.PnLNet)
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalOrg(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := selectTrades(cmd, j)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(trades))
	return nil
}

func runJournalImport(cmd *cobra.Command, args []string) error {
	trades, err := journal.ReadCSVFile(args[0])
	if err != nil {
		return err
	}
	for i := range trades {
		if trades[i].AssetType == "" {
			trades[i].AssetType = string(market.GetAssetType(trades[i].Symbol))
		}
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.AddMany(cmd.Context(), trades); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	log.Info("imported trades", zap.String("file", args[0]), zap.Int("count", len(trades)))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d trades from %s\n", len(trades), args[0])
	return nil
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := selectTrades(cmd, j)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	if journalOutput == "" {
		return journal.WriteCSV(cmd.OutOrStdout(), trades)
	}
	if err := journal.WriteCSVFile(journalOutput, trades); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d trades to %s\n", len(trades), journalOutput)
	return nil
}

func runJournalStats(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := selectTrades(cmd, j)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	r := journal.Analyze(trades)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Trades:   %d\n", r.Trades)
	fmt.Fprintf(out, "Net P&L:  %.2f\n", r.TotalPnL)
	fmt.Fprintf(out, "Wins:     %d\n", r.Wins)
	fmt.Fprintf(out, "Losses:   %d\n", r.Losses)
	fmt.Fprintf(out, "Win rate: %.1f%%\n", r.WinRate*100)

	if len(r.PnLByAssetType) > 0 {
		fmt.Fprintln(out, "\nBy asset type:")
		for _, p := range r.PnLByAssetType {
			fmt.Fprintf(out, "  %-8s %10.2f\n", p.Label, p.Value)
		}
	}

	fmt.Fprintln(out, "\nDistribution:")
	for _, b := range r.Distribution {
		fmt.Fprintf(out, "  %-18s %s\n", b.Label, strings.Repeat("#", b.Count))
	}
	return nil
}
