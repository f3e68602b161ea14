package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	persistlog "craftbrowser.ai/internal/persistence/log"
	"craftbrowser.ai/internal/sim/catalogs"
)

func TestReplay_DetectsMismatchesAndSkipsOtherDigests(t *testing.T) {
	cats, err := catalogs.Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := t.TempDir()
	l := persistlog.NewAuditLogger(dir)
	planks := []persistlog.Stack{{Item: "PLANK", Count: 2}}
	entries := []persistlog.AuditEntry{
		{SessionID: "ok", Kind: persistlog.KindOpen, CatalogDigest: cats.Digest, MaxDepth: 1, Inventory: planks,
			Candidates: []string{"sticks", "wooden_button", "button_any"}},
		{SessionID: "ok", Kind: persistlog.KindPlan, RecipeID: "sticks"},
		{SessionID: "reordered", Kind: persistlog.KindOpen, CatalogDigest: cats.Digest, MaxDepth: 1, Inventory: planks,
			Candidates: []string{"wooden_button", "sticks", "button_any"}},
		{SessionID: "old", Kind: persistlog.KindOpen, CatalogDigest: "stale", MaxDepth: 1, Inventory: planks},
	}
	for _, e := range entries {
		if err := l.WriteAudit(e); err != nil {
			t.Fatalf("WriteAudit: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := persistlog.AuditFiles(filepath.Join(dir, "audit"))
	if err != nil {
		t.Fatalf("AuditFiles: %v", err)
	}
	res, err := replay(cats, files)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Checked != 2 || res.Skipped != 1 || len(res.Mismatches) != 1 || res.Mismatches[0].SessionID != "reordered" {
		t.Fatalf("result: %+v", res)
	}

	var out bytes.Buffer
	report(&out, res, false)
	if !strings.Contains(out.String(), "replay FAILED") || !strings.Contains(out.String(), "session=reordered") {
		t.Fatalf("report:\n%s", out.String())
	}
}

func TestReport_OK(t *testing.T) {
	var out bytes.Buffer
	report(&out, result{Checked: 3}, false)
	if out.String() != "replay ok: checked=3 skipped=0\n" {
		t.Fatalf("report: %q", out.String())
	}
}
