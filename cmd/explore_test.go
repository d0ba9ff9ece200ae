package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/KaramelBytes/carlot-cli/internal/clean"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
)

func newTestExplorer(t *testing.T) *explorer {
	t.Helper()
	raw, err := dataset.Read(strings.NewReader(listingsCSV), "vehicles_us.csv", dataset.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tbl, _, err := clean.Clean(raw, clean.DefaultOptions())
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	return newExplorer(tbl, 5)
}

func execLine(t *testing.T, e *explorer, line string) string {
	t.Helper()
	var buf bytes.Buffer
	if quit := e.exec(&buf, line); quit {
		t.Fatalf("%q ended the session", line)
	}
	return buf.String()
}

func TestExplorer_FilterChanges(t *testing.T) {
	e := newTestExplorer(t)

	if out := execLine(t, e, "price 10000 20000"); !strings.Contains(out, "✓ 4 rows") {
		t.Fatalf("price: %s", out)
	}
	if out := execLine(t, e, "types sedan"); !strings.Contains(out, "✓ 3 rows (price 10000..20000; types sedan)") {
		t.Fatalf("types: %s", out)
	}
	if out := execLine(t, e, "types none"); !strings.Contains(out, "✓ 0 rows") {
		t.Fatalf("types none: %s", out)
	}
	if out := execLine(t, e, "types all"); !strings.Contains(out, "✓ 4 rows") {
		t.Fatalf("types all: %s", out)
	}
	if out := execLine(t, e, "price reset"); !strings.Contains(out, "✓ 8 rows") {
		t.Fatalf("price reset: %s", out)
	}
}

func TestExplorer_RejectedChangeKeepsView(t *testing.T) {
	e := newTestExplorer(t)
	execLine(t, e, "types pickup")

	out := execLine(t, e, "price 5 1")
	if !strings.Contains(out, "✗") || !strings.Contains(out, "keeping 2 rows") {
		t.Fatalf("inverted range: %s", out)
	}
	out = execLine(t, e, "where odometer <")
	if !strings.Contains(out, "keeping 2 rows") {
		t.Fatalf("bad expression: %s", out)
	}
	if got := e.session.View().Len(); got != 2 {
		t.Fatalf("view rows = %d, want 2", got)
	}
}

func TestExplorer_WhereAndShow(t *testing.T) {
	e := newTestExplorer(t)
	if out := execLine(t, e, `where paint_color == "black"`); !strings.Contains(out, "✓ 5 rows") {
		t.Fatalf("where: %s", out)
	}
	out := execLine(t, e, "show 2")
	if !strings.Contains(out, "(2 of 5 rows)") || !strings.Contains(out, "bmw x5") {
		t.Fatalf("show: %s", out)
	}
	out = execLine(t, e, "summary")
	if !strings.Contains(out, "Rows:    5 of 8") || !strings.Contains(out, "Default price bounds: 1500 .. 25500") {
		t.Fatalf("summary: %s", out)
	}
	if out := execLine(t, e, "where"); !strings.Contains(out, "✓ 8 rows (no filters)") {
		t.Fatalf("clearing where: %s", out)
	}
}

func TestExplorer_QuitAndUnknown(t *testing.T) {
	e := newTestExplorer(t)
	if out := execLine(t, e, "bogus"); !strings.Contains(out, "Unknown command") {
		t.Fatalf("unknown: %s", out)
	}
	var buf bytes.Buffer
	if !e.exec(&buf, "quit") {
		t.Fatalf("quit did not end the session")
	}
}

func TestExplorer_Complete(t *testing.T) {
	e := newTestExplorer(t)
	if got := e.complete("pr"); len(got) != 1 || got[0] != "price" {
		t.Fatalf("complete(pr) = %v", got)
	}
	got := e.complete("types s")
	want := map[string]bool{"types sedan": true, "types suv": true}
	if len(got) != len(want) {
		t.Fatalf("complete(types s) = %v", got)
	}
	for _, g := range got {
		if !want[g] {
			t.Fatalf("unexpected completion %q", g)
		}
	}
}
