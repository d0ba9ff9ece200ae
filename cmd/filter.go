package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/KaramelBytes/carlot-cli/internal/analysis"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
	"github.com/KaramelBytes/carlot-cli/internal/filter"
	"github.com/spf13/cobra"
)

var (
	fltFlags      filterFlags
	fltHead       int
	fltFormat     string
	fltOutputPath string
)

var filterCmd = &cobra.Command{
	Use:   "filter <file>",
	Short: "Print or export the rows matching price, type and expression filters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := fltFlags.filters(cmd.Flags())
		if err != nil {
			return err
		}
		format := strings.ToLower(fltFormat)
		switch format {
		case "csv", "markdown", "md":
		default:
			return fmt.Errorf("unsupported --format: %s (use csv|markdown)", fltFormat)
		}
		run, err := loadTable(args[0])
		if err != nil {
			return err
		}
		v, err := filter.Apply(run.Table, f)
		if err != nil {
			return err
		}
		run.Logger.Info("view computed", "filters", f.String(), "rows", v.Len())

		if fltOutputPath != "" {
			if err := dataset.Export(v.Table, fltOutputPath, run.Delim); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d of %d rows to %s\n", v.Len(), run.Table.Len(), fltOutputPath)
			return nil
		}

		head := v.Table
		if fltHead > 0 {
			head = v.Head(fltHead)
		}
		out := cmd.OutOrStdout()
		if format == "csv" {
			var buf bytes.Buffer
			if err := dataset.Write(&buf, head, run.Delim); err != nil {
				return err
			}
			_, err := buf.WriteTo(out)
			return err
		}
		rows := make([][]string, head.Len())
		for i := range rows {
			rows[i] = head.Strings(i)
		}
		fmt.Fprintf(out, "Filters: %s\n", f)
		fmt.Fprintf(out, "Rows: %d of %d\n\n", v.Len(), run.Table.Len())
		fmt.Fprint(out, analysis.MarkdownTable(head.Columns(), rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	fltFlags.register(filterCmd.Flags())
	filterCmd.Flags().IntVar(&fltHead, "head", 0, "print only the first n matching rows (0 = all)")
	filterCmd.Flags().StringVar(&fltFormat, "format", "markdown", "output format: csv|markdown")
	filterCmd.Flags().StringVarP(&fltOutputPath, "output", "o", "", "export the matching rows to this path instead of printing")
}
