package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/carlot-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve the cleaned table as a JSON and PNG dashboard API",
	Long: `Load and clean a listings file once, then serve filtered views over HTTP:

  GET /healthz
  GET /api/summary, /api/types, /api/rows
  GET /charts/price-histogram.png, /charts/odometer-price.png

Views take price_min & price_max, types (comma list) and where query parameters.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		run, err := loadTable(args[0])
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(run.Table, server.Options{
			HistogramBins: c.HistogramBins,
			ChartWidth:    c.ChartWidth,
			ChartHeight:   c.ChartHeight,
			HeadRows:      c.HeadRows,
		}, run.Logger)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %s (%d rows) on http://%s\n", run.Table.Name, run.Table.Len(), addr)
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			return err
		}
		slog.Debug("serve exited", "run_id", run.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8501", "listen address (overrides listen_addr)")
}
