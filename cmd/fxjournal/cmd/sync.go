package cmd

import (
	"fmt"

	"github.com/rustyeddy/fxjournal/config"
	"github.com/rustyeddy/fxjournal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the journal with the remote sheet worker",
	Long: `Copy trades between the local journal and the per-user sheet kept by the
worker. The worker URL and user ID come from the config (worker.url,
worker.user_id) or from FXJ_WORKER_URL and FXJ_USER_ID.

Subcommands:
  init     - Create the user's sheet
  push     - Upload local trades
  pull     - Download trades into the local journal
  metaapi  - Ask the worker to import trades from a MetaTrader account`,
}

var syncInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the user's sheet",
	Args:  cobra.NoArgs,
	RunE:  runSyncInit,
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local trades to the sheet",
	Args:  cobra.NoArgs,
	RunE:  runSyncPush,
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download trades from the sheet",
	Args:  cobra.NoArgs,
	RunE:  runSyncPull,
}

var syncMetaAPICmd = &cobra.Command{
	Use:   "metaapi",
	Short: "Import trades from a MetaTrader account",
	Args:  cobra.NoArgs,
	RunE:  runSyncMetaAPI,
}

var metaCreds worker.Credentials

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncInitCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncMetaAPICmd)

	for _, c := range []*cobra.Command{syncPushCmd, syncPullCmd} {
		c.Flags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default from config)")
	}

	f := syncMetaAPICmd.Flags()
	f.StringVar(&metaCreds.Platform, "platform", "mt5", "mt4 or mt5")
	f.StringVar(&metaCreds.Server, "server", "", "broker server name (required)")
	f.StringVar(&metaCreds.AccountNumber, "account", "", "account number (required)")
	f.StringVar(&metaCreds.Password, "password", "", "investor password (required)")
	f.StringVar(&metaCreds.Nickname, "nickname", "", "label for the account")
	syncMetaAPICmd.MarkFlagRequired("server")
	syncMetaAPICmd.MarkFlagRequired("account")
	syncMetaAPICmd.MarkFlagRequired("password")
}

func newWorkerClient() (*worker.Client, error) {
	if cfg.Worker.URL == "" {
		return nil, fmt.Errorf("worker.url (or %s) is not configured", config.EnvWorkerURL)
	}
	if cfg.Worker.UserID == "" {
		return nil, fmt.Errorf("worker.user_id (or %s) is not configured", config.EnvUserID)
	}
	return worker.NewClient(cfg.Worker.URL, cfg.Worker.UserID,
		worker.WithTimeout(cfg.WorkerTimeout()),
		worker.WithLogger(log),
	), nil
}

func runSyncInit(cmd *cobra.Command, args []string) error {
	w, err := newWorkerClient()
	if err != nil {
		return err
	}
	if err := w.CreateSheet(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Sheet ready")
	return nil
}

func runSyncPush(cmd *cobra.Command, args []string) error {
	w, err := newWorkerClient()
	if err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := j.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	if err := w.WriteTrades(cmd.Context(), trades); err != nil {
		return err
	}

	log.Info("pushed trades", zap.Int("count", len(trades)))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pushed %d trades\n", len(trades))
	return nil
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	w, err := newWorkerClient()
	if err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := w.ReadTrades(cmd.Context())
	if err != nil {
		return err
	}
	if err := j.AddMany(cmd.Context(), trades); err != nil {
		return fmt.Errorf("store trades: %w", err)
	}

	log.Info("pulled trades", zap.Int("count", len(trades)))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pulled %d trades\n", len(trades))
	return nil
}

func runSyncMetaAPI(cmd *cobra.Command, args []string) error {
	w, err := newWorkerClient()
	if err != nil {
		return err
	}
	if err := w.SyncMetaAPI(cmd.Context(), metaCreds); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Sync complete, run 'fxjournal sync pull' to fetch the trades")
	return nil
}
