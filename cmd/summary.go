package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/carlot-cli/internal/analysis"
	"github.com/KaramelBytes/carlot-cli/internal/filter"
	"github.com/spf13/cobra"
)

var (
	sumFlags      filterFlags
	sumOutputPath string
	sumSampleRows int
	sumGroupBy    []string
	sumOutliers   bool
	sumOutlierThr float64
)

var summaryCmd = &cobra.Command{
	Use:     "summary <file>",
	Aliases: []string{"analyze"},
	Short:   "Summarize the cleaned table (or a filtered view) as Markdown",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := sumFlags.filters(cmd.Flags())
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = sumSampleRows
		} else {
			opt.SampleRows = currentConfig().HeadRows
		}
		opt.GroupBy = sumGroupBy
		opt.Outliers = sumOutliers
		if sumOutlierThr > 0 {
			opt.OutlierThreshold = sumOutlierThr
		}

		run, err := loadTable(args[0])
		if err != nil {
			return err
		}
		v, err := filter.Apply(run.Table, f)
		if err != nil {
			return err
		}
		rep := analysis.Analyze(v.Table, opt)
		if f.Key() != "" {
			rep.Filters = f.String()
			rep.Summary.Filtered = true
		}
		md := rep.Markdown()

		if sumOutputPath != "" {
			if err := os.WriteFile(sumOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", sumOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumFlags.register(summaryCmd.Flags())
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	summaryCmd.Flags().IntVar(&sumSampleRows, "sample-rows", 5, "number of head rows to include (default from head_rows)")
	summaryCmd.Flags().StringSliceVar(&sumGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	summaryCmd.Flags().BoolVar(&sumOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	summaryCmd.Flags().Float64Var(&sumOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
