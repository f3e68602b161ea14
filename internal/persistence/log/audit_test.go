package log

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAuditLogger_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	entries := []AuditEntry{
		{SessionID: "s1", Kind: KindOpen, CatalogDigest: "d", MaxDepth: 1, Inventory: []Stack{{Item: "PLANK", Count: 2}}, Candidates: []string{"sticks"}},
		{SessionID: "s1", Kind: KindPlan, RecipeID: "sticks", PlanID: "p1", GridSide: 2, Placements: []Placement{{Slot: 0, Item: "PLANK"}, {Slot: 1, Item: "PLANK"}}},
		{SessionID: "s1", Kind: KindReport, PlanID: "p1", Report: []SlotResult{{Slot: 0, OK: true}, {Slot: 1, OK: false, Message: "moved"}}},
	}
	for _, e := range entries {
		if err := l.WriteAudit(e); err != nil {
			t.Fatalf("WriteAudit: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := AuditFiles(filepath.Join(dir, "audit"))
	if err != nil || len(files) != 1 {
		t.Fatalf("AuditFiles: %v %v", files, err)
	}
	var got []AuditEntry
	if err := ReadAuditFile(files[0], func(e AuditEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadAuditFile: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	if got[0].Candidates[0] != "sticks" || got[1].Placements[1].Slot != 1 || got[2].Report[1].Message != "moved" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "audit")
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(AuditEntry{Kind: KindOpen}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(AuditEntry{Kind: KindClose}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, _ := AuditFiles(dir)
	if len(files) != 2 {
		t.Fatalf("expected 2 hourly files, got %v", files)
	}
	if filepath.Base(files[0]) != "audit-2026-03-01-10.jsonl.zst" || filepath.Base(files[1]) != "audit-2026-03-01-11.jsonl.zst" {
		t.Fatalf("unexpected names: %v", files)
	}
}

func TestJSONLZstdWriter_OnCloseReportsSegments(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "audit")
	clock := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }
	var closed []string
	w.SetOnClose(func(path string) { closed = append(closed, filepath.Base(path)) })

	_ = w.Write(AuditEntry{Kind: KindOpen})
	clock = clock.Add(time.Hour)
	_ = w.Write(AuditEntry{Kind: KindOpen})
	if len(closed) != 1 || closed[0] != "audit-2026-03-01-10.jsonl.zst" {
		t.Fatalf("after rotation: %v", closed)
	}
	_ = w.Close()
	if len(closed) != 2 || closed[1] != "audit-2026-03-01-11.jsonl.zst" {
		t.Fatalf("after close: %v", closed)
	}
	_ = w.Close()
	if len(closed) != 2 {
		t.Fatalf("double close reported again: %v", closed)
	}
}
