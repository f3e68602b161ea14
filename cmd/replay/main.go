package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"craftbrowser.ai/internal/craft/candidates"
	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/item"
	persistlog "craftbrowser.ai/internal/persistence/log"
	"craftbrowser.ai/internal/sim/catalogs"
)

func main() {
	var (
		auditDir  = flag.String("audit", "./data/audit", "directory containing audit-*.jsonl.zst")
		configDir = flag.String("configs", "./configs", "config directory")
		verbose   = flag.Bool("v", false, "print every mismatch")
	)
	flag.Parse()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	files, err := persistlog.AuditFiles(*auditDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list audit:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no audit files found in", *auditDir)
		os.Exit(1)
	}

	res, err := replay(cats, files)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	report(os.Stdout, res, *verbose)
	if len(res.Mismatches) > 0 {
		os.Exit(1)
	}
}

type mismatch struct {
	File      string
	SessionID string
	TS        string
	Want      []string
	Got       []string
}

type result struct {
	Checked    int
	Skipped    int // recorded under another catalog digest
	Mismatches []mismatch
}

// replay recomputes the candidate list of every OPEN entry recorded under
// the current catalog digest and compares it, order included, with the
// recorded one.
func replay(cats *catalogs.Catalogs, files []string) (result, error) {
	var res result
	for _, path := range files {
		err := persistlog.ReadAuditFile(path, func(e persistlog.AuditEntry) error {
			if e.Kind != persistlog.KindOpen {
				return nil
			}
			if e.CatalogDigest != cats.Digest {
				res.Skipped++
				return nil
			}
			res.Checked++
			stacks := make([]item.Stack, 0, len(e.Inventory))
			for _, s := range e.Inventory {
				stacks = append(stacks, item.Stack{Item: s.Item, Variant: s.Variant, Count: s.Count})
			}
			snap := inventory.NewSnapshot(cats.Items.Registry, stacks)
			got := candidates.IDs(candidates.Compute(cats.Built, snap, e.MaxDepth))
			if !equalIDs(got, e.Candidates) {
				res.Mismatches = append(res.Mismatches, mismatch{File: path, SessionID: e.SessionID, TS: e.TS, Want: e.Candidates, Got: got})
			}
			return nil
		})
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func report(w io.Writer, res result, verbose bool) {
	if len(res.Mismatches) == 0 {
		fmt.Fprintf(w, "replay ok: checked=%d skipped=%d\n", res.Checked, res.Skipped)
		return
	}
	fmt.Fprintf(w, "replay FAILED: checked=%d skipped=%d mismatches=%d\n", res.Checked, res.Skipped, len(res.Mismatches))
	shown := res.Mismatches
	if !verbose && len(shown) > 10 {
		shown = shown[:10]
	}
	for _, m := range shown {
		fmt.Fprintf(w, "  session=%s ts=%s\n    recorded: %s\n    computed: %s\n", m.SessionID, m.TS, strings.Join(m.Want, ","), strings.Join(m.Got, ","))
	}
}
