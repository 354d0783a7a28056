package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rustyeddy/fxjournal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for the web UI",
	Long: `Serve the calculators and the journal over HTTP.

Routes:
  POST /api/margin
  POST /api/position-size
  GET  /api/trades, POST /api/trades, GET /api/trades/{id}
  GET  /api/analytics
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from config)")
	serveCmd.Flags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	s := server.New(j, cfg.RateProvider(log), server.Defaults{
		AccountCurrency: cfg.Account.Currency,
		Leverage:        cfg.Account.Leverage,
		Capital:         cfg.Account.Capital,
		RiskPercent:     cfg.Account.RiskPercent,
	}, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.ListenAndServe(ctx, addr)
}
