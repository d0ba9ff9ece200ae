package cmd

import (
	"bytes"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/carlot-cli/internal/charts"
	"github.com/KaramelBytes/carlot-cli/internal/filter"
)

var (
	chartFlags      filterFlags
	chartOutputPath string
	chartBins       int
	chartColumn     string
	chartColorBy    string
	chartWidth      int
	chartHeight     int
)

var chartCmd = &cobra.Command{
	Use:       "chart <histogram|scatter> <file>",
	Short:     "Render a price histogram or an odometer/price scatter plot as PNG",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"histogram", "scatter"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, path := args[0], args[1]
		if kind != "histogram" && kind != "scatter" {
			return fmt.Errorf("unknown chart %q (use histogram or scatter)", kind)
		}
		if chartOutputPath == "" {
			return fmt.Errorf("--output is required")
		}
		f, err := chartFlags.filters(cmd.Flags())
		if err != nil {
			return err
		}
		c := currentConfig()
		width, height := c.ChartWidth, c.ChartHeight
		if cmd.Flags().Changed("width") {
			width = chartWidth
		}
		if cmd.Flags().Changed("height") {
			height = chartHeight
		}

		run, err := loadTable(path)
		if err != nil {
			return err
		}
		v, err := filter.Apply(run.Table, f)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		switch kind {
		case "histogram":
			req := charts.PriceHistogram(c.HistogramBins)
			if cmd.Flags().Changed("bins") {
				req.Bins = chartBins
			}
			if chartColumn != "" {
				req.Column = chartColumn
				req.Title = chartColumn + " distribution"
			}
			req.Width, req.Height = width, height
			err = charts.RenderHistogram(&buf, v.Table, req)
		case "scatter":
			req := charts.MileagePrice()
			if cmd.Flags().Changed("color-by") {
				req.ColorBy = chartColorBy
			}
			req.Width, req.Height = width, height
			err = charts.RenderScatter(&buf, v.Table, req)
		}
		if err != nil {
			return err
		}
		if err := atomic.WriteFile(chartOutputPath, &buf); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		run.Logger.Info("chart rendered", "kind", kind, "rows", v.Len(), "path", chartOutputPath)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s chart of %d rows to %s\n", kind, v.Len(), chartOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartFlags.register(chartCmd.Flags())
	chartCmd.Flags().StringVarP(&chartOutputPath, "output", "o", "", "PNG file to write")
	chartCmd.Flags().IntVar(&chartBins, "bins", charts.DefaultBins, "histogram bins (default from histogram_bins)")
	chartCmd.Flags().StringVar(&chartColumn, "column", "", "histogram column (default price)")
	chartCmd.Flags().StringVar(&chartColorBy, "color-by", "type", "scatter: column that colors the points (empty for one series)")
	chartCmd.Flags().IntVar(&chartWidth, "width", charts.DefaultWidth, "image width in pixels")
	chartCmd.Flags().IntVar(&chartHeight, "height", charts.DefaultHeight, "image height in pixels")
}
