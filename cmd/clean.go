package cmd

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/carlot-cli/internal/clean"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	cleanOutputPath string
	cleanCylinders  string
	cleanQuiet      bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Fill missing values and optionally export the cleaned table",
	Long: `Load a listings file, fill missing model_year, cylinders, odometer, paint_color and is_4wd
values, and print what was filled. With --output (or export_path in config) the cleaned
table is written atomically using the source delimiter.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("cylinders") {
			if _, err := clean.ParseCylinderPolicy(cleanCylinders); err != nil {
				return err
			}
			currentConfig().CylinderPolicy = cleanCylinders
		}
		run, err := loadTable(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !cleanQuiet {
			printCleanReport(out, run)
		}

		dest := currentConfig().ExportPath
		if cmd.Flags().Changed("output") {
			dest = cleanOutputPath
		}
		if dest == "" {
			return nil
		}
		if err := dataset.Export(run.Table, dest, run.Delim); err != nil {
			return err
		}
		run.Logger.Info("cleaned table exported", "path", dest, "rows", run.Table.Len())
		fmt.Fprintf(out, "✓ Wrote cleaned table to %s (%d rows)\n", dest, run.Table.Len())
		return nil
	},
}

func printCleanReport(w io.Writer, run *loadRun) {
	t, rep := run.Table, run.Report
	fmt.Fprintf(w, "%s: %d rows, %d columns\n\n", t.Name, t.Len(), t.NumColumns())
	fmt.Fprintln(w, "Filled:")
	for _, f := range rep.Fills {
		val := f.Value
		if val == "" {
			val = "per group"
		}
		fmt.Fprintf(w, "  %-12s %-15s %-10s %d cells\n", f.Column, f.Strategy, val, f.Filled)
	}
	if rep.GroupFallbacks > 0 {
		fmt.Fprintf(w, "  (%d cylinder fills used the overall median: no observed value in their model/year group)\n", rep.GroupFallbacks)
	}

	fmt.Fprintln(w, "\nMissing after cleaning:")
	remaining := 0
	for _, c := range rep.Missing {
		fmt.Fprintf(w, "  %-14s %d\n", c.Column, c.Count)
		remaining += c.Count
	}
	if remaining == 0 {
		fmt.Fprintln(w, "✓ No missing values remain")
	} else {
		fmt.Fprintf(w, "⚠ %d missing values remain in pass-through columns\n", remaining)
	}
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutputPath, "output", "o", "", "write the cleaned table to this path (overrides export_path)")
	cleanCmd.Flags().StringVar(&cleanCylinders, "cylinders", "", "cylinder fill policy: grouped|global (overrides config)")
	cleanCmd.Flags().BoolVarP(&cleanQuiet, "quiet", "q", false, "do not print the fill report")
}
