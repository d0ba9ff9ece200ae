package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/carlot-cli/internal/clean"
	cfgpkg "github.com/KaramelBytes/carlot-cli/internal/config"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set carlot configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		delim := c.Delimiter
		if delim == "" {
			delim = "(auto)"
		} else if delim == "\t" {
			delim = "tab"
		}
		fmt.Fprintf(out, "delimiter: %s\n", delim)
		fmt.Fprintf(out, "null_tokens: %s\n", strings.Join(c.NullTokens, ","))
		fmt.Fprintf(out, "cylinder_policy: %s\n", c.CylinderPolicy)
		if c.ExportPath != "" {
			fmt.Fprintf(out, "export_path: %s\n", c.ExportPath)
		}
		fmt.Fprintf(out, "histogram_bins: %d\n", c.HistogramBins)
		fmt.Fprintf(out, "chart_width: %d\n", c.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", c.ChartHeight)
		fmt.Fprintf(out, "head_rows: %d\n", c.HeadRows)
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := currentConfig()
		switch key {
		case "delimiter":
			if _, err := dataset.ParseDelimiter(val); err != nil {
				return err
			}
			c.Delimiter = val
		case "null_tokens":
			var toks []string
			for _, t := range strings.Split(val, ",") {
				if t = strings.TrimSpace(t); t != "" {
					toks = append(toks, t)
				}
			}
			c.NullTokens = toks
		case "cylinder_policy":
			p, err := clean.ParseCylinderPolicy(val)
			if err != nil {
				return err
			}
			c.CylinderPolicy = string(p)
		case "export_path":
			c.ExportPath = val
		case "histogram_bins", "chart_width", "chart_height", "head_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			switch key {
			case "histogram_bins":
				c.HistogramBins = i
			case "chart_width":
				c.ChartWidth = i
			case "chart_height":
				c.ChartHeight = i
			case "head_rows":
				c.HeadRows = i
			}
		case "listen_addr":
			c.ListenAddr = val
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		case "log_format":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
