package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/carlot-cli/internal/analysis"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
	"github.com/KaramelBytes/carlot-cli/internal/filter"
)

var exploreCmd = &cobra.Command{
	Use:   "explore <file>",
	Short: "Interactively filter the cleaned table",
	Long: `Load and clean a listings file, then change filters at a prompt. Each change
recomputes the view; a rejected change keeps the previous one. Type 'help' for commands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := loadTable(args[0])
		if err != nil {
			return err
		}
		e := newExplorer(run.Table, currentConfig().HeadRows)
		return e.run(cmd.OutOrStdout())
	},
}

// explorer drives a filter.Session from typed commands.
type explorer struct {
	session  *filter.Session
	headRows int
	types    []string
}

func newExplorer(t *dataset.Table, headRows int) *explorer {
	return &explorer{
		session:  filter.NewSession(t),
		headRows: headRows,
		types:    t.Distinct(dataset.ColType),
	}
}

func exploreHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".carlot", "explore_history")
}

func (e *explorer) run(w io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(e.complete)

	hist := exploreHistoryFile()
	if f, err := os.Open(hist); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if hist == "" {
			return
		}
		if err := os.MkdirAll(filepath.Dir(hist), 0o755); err != nil {
			return
		}
		if f, err := os.Create(hist); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	t := e.session.Table()
	fmt.Fprintf(w, "%s: %d rows. Type 'help' for commands.\n", t.Name, t.Len())
	for {
		input, err := line.Prompt("carlot> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(w)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if quit := e.exec(w, input); quit {
			return nil
		}
	}
}

// exec runs one command line and reports whether the session should end.
func (e *explorer) exec(w io.Writer, input string) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		printExploreHelp(w)
	case "price":
		e.cmdPrice(w, args)
	case "types", "type":
		e.cmdTypes(w, args)
	case "where":
		src := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), fields[0]))
		e.report(w, func(f *filter.Filters) { f.Where = src })
	case "show", "head":
		e.cmdShow(w, args)
	case "summary":
		e.cmdSummary(w)
	case "reset":
		e.report(w, func(f *filter.Filters) { *f = filter.Filters{} })
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

// report applies a filter change and prints the outcome.
func (e *explorer) report(w io.Writer, change func(*filter.Filters)) {
	v, err := e.session.Modify(change)
	if err != nil {
		fmt.Fprintf(w, "✗ %v (keeping %d rows)\n", err, v.Len())
		return
	}
	fmt.Fprintf(w, "✓ %d rows (%s)\n", v.Len(), v.Filters)
}

func (e *explorer) cmdPrice(w io.Writer, args []string) {
	if len(args) == 1 && strings.EqualFold(args[0], "reset") {
		e.report(w, func(f *filter.Filters) { f.Price = nil })
		return
	}
	if len(args) != 2 {
		fmt.Fprintln(w, "Usage: price <min> <max> | price reset")
		return
	}
	lo, err1 := strconv.ParseFloat(args[0], 64)
	hi, err2 := strconv.ParseFloat(args[1], 64)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(w, "✗ price bounds must be numbers")
		return
	}
	e.report(w, func(f *filter.Filters) { f.Price = &filter.PriceRange{Min: lo, Max: hi} })
}

func (e *explorer) cmdTypes(w io.Writer, args []string) {
	if len(args) == 0 {
		fmt.Fprintf(w, "Types: %s\n", strings.Join(e.types, ", "))
		return
	}
	joined := strings.Join(args, ",")
	switch strings.ToLower(joined) {
	case "all":
		e.report(w, func(f *filter.Filters) { f.Types = nil })
		return
	case "none":
		e.report(w, func(f *filter.Filters) { f.Types = []string{} })
		return
	}
	types := []string{}
	for _, t := range strings.Split(joined, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	e.report(w, func(f *filter.Filters) { f.Types = types })
}

func (e *explorer) cmdShow(w io.Writer, args []string) {
	n := e.headRows
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			fmt.Fprintln(w, "Usage: show [n]")
			return
		}
		n = v
	}
	view := e.session.View()
	head := view.Table
	if n > 0 {
		head = view.Head(n)
	}
	rows := make([][]string, head.Len())
	for i := range rows {
		rows[i] = head.Strings(i)
	}
	fmt.Fprint(w, analysis.MarkdownTable(head.Columns(), rows))
	fmt.Fprintf(w, "(%d of %d rows)\n", head.Len(), view.Len())
}

func (e *explorer) cmdSummary(w io.Writer) {
	view := e.session.View()
	total := analysis.Summarize(e.session.Table())
	s := analysis.Summarize(view.Table)
	fmt.Fprintf(w, "Filters: %s\n", view.Filters)
	fmt.Fprintf(w, "Rows:    %d of %d\n", s.Rows, total.Rows)
	fmt.Fprintf(w, "Columns: %d\n", s.Columns)
	if s.Price != nil {
		fmt.Fprintf(w, "Price:   %s .. %s\n", dataset.FormatFloat(s.Price.Min), dataset.FormatFloat(s.Price.Max))
	}
	if total.Price != nil {
		fmt.Fprintf(w, "Default price bounds: %s .. %s\n", dataset.FormatFloat(total.Price.Min), dataset.FormatFloat(total.Price.Max))
	}
}

var exploreCommands = []string{"price", "types", "where", "show", "summary", "reset", "help", "quit"}

func (e *explorer) complete(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(line, " ")) {
		var out []string
		for _, c := range exploreCommands {
			if strings.HasPrefix(c, strings.ToLower(line)) {
				out = append(out, c)
			}
		}
		return out
	}
	if strings.ToLower(fields[0]) != "types" {
		return nil
	}
	prefix := ""
	if !strings.HasSuffix(line, " ") {
		prefix = fields[len(fields)-1]
	}
	base := strings.TrimSuffix(line, prefix)
	var out []string
	for _, t := range append([]string{"all", "none"}, e.types...) {
		if strings.HasPrefix(t, prefix) {
			out = append(out, base+t)
		}
	}
	return out
}

func printExploreHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  price <min> <max>   keep rows priced within [min, max]
  price reset         drop the price filter
  types a,b           keep the listed vehicle types
  types all|none      any type / no type
  types               list the known types
  where <expr>        row expression, e.g. odometer < 100000 && paint_color == "white"
  where               drop the expression filter
  show [n]            print the first n rows of the view
  summary             row count and price bounds of the view
  reset               drop every filter
  quit                leave
`)
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}
