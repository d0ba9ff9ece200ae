package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/carlot-cli/internal/clean"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

// loadRun is one load-and-clean pass over a source file.
type loadRun struct {
	ID     string
	Path   string
	Delim  rune
	Table  *dataset.Table
	Report *clean.Report
	Logger *slog.Logger
}

// loadTable loads and cleans path using the current configuration. Every run
// gets its own id so log lines from one invocation can be correlated.
func loadTable(path string) (*loadRun, error) {
	c := currentConfig()
	lopt, err := c.LoadOptions()
	if err != nil {
		return nil, err
	}
	copt, err := c.CleanOptions()
	if err != nil {
		return nil, err
	}
	if lopt.Delimiter == 0 {
		lopt.Delimiter = dataset.SniffDelimiter(path)
	}

	run := &loadRun{ID: uuid.NewString(), Path: path, Delim: lopt.Delimiter}
	run.Logger = slog.Default().With("run_id", run.ID)
	start := time.Now()
	t, rep, err := clean.LoadAndClean(path, lopt, copt)
	if err != nil {
		run.Logger.Error("load failed", "path", path, "error", err)
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	run.Table, run.Report = t, rep
	run.Logger.Info("table cleaned",
		"path", path,
		"rows", t.Len(),
		"columns", t.NumColumns(),
		"filled", rep.TotalFilled(),
		"cylinder_policy", string(copt.Cylinders),
		"duration_ms", time.Since(start).Milliseconds())
	return run, nil
}
