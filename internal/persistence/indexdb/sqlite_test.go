package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"craftbrowser.ai/internal/sim/catalogs"
	"craftbrowser.ai/internal/sim/tuning"
)

func TestSQLiteIndex_PlanStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	now := time.Now()
	idx.RecordSessionOpen(SessionRow{SessionID: "s1", ClientName: "bot", CatalogDigest: "d", At: now})
	idx.RecordPlan(PlanRow{PlanID: "p1", SessionID: "s1", RecipeID: "sticks", GridSide: 2, Slots: 2, At: now})
	idx.RecordPlan(PlanRow{PlanID: "p2", SessionID: "s1", RecipeID: "sticks", GridSide: 3, Slots: 2, At: now})
	idx.RecordPlan(PlanRow{PlanID: "p3", SessionID: "s1", RecipeID: "chest", GridSide: 3, Slots: 8, At: now})
	idx.RecordReport(ReportRow{PlanID: "p1", Results: []SlotResult{{Slot: 0, OK: true}, {Slot: 1, OK: false, Message: "moved"}}, At: now})
	idx.RecordSessionClose("s1", now)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	stats, err := QueryPlanStats(context.Background(), path)
	if err != nil {
		t.Fatalf("QueryPlanStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 recipes, got %+v", stats)
	}
	st := stats[0]
	if st.RecipeID != "sticks" || st.Plans != 2 || st.Reported != 1 || st.SlotsOK != 1 || st.SlotsFailed != 1 {
		t.Fatalf("sticks stats: %+v", st)
	}
	if stats[1].RecipeID != "chest" || stats[1].Plans != 1 || stats[1].Reported != 0 {
		t.Fatalf("chest stats: %+v", stats[1])
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqPlan}

	s.RecordSessionOpen(SessionRow{SessionID: "s"})
	s.RecordPlan(PlanRow{PlanID: "p"})
	s.RecordReport(ReportRow{PlanID: "p"})

	st := s.Stats()
	if st.DropSessionTotal != 1 || st.DropPlanTotal != 1 || st.DropReportTotal != 1 {
		t.Fatalf("drop stats: %+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}

	var nilIdx *SQLiteIndex
	nilIdx.RecordPlan(PlanRow{})
	if nilIdx.Stats() != (Stats{}) {
		t.Fatalf("nil index stats")
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	configDir := filepath.Join("..", "..", "..", "configs")
	cats, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	if err := idx.UpsertCatalogs(configDir, cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	var digest string
	if err := idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name='recipes'`).Scan(&digest); err != nil {
		t.Fatalf("select: %v", err)
	}
	if digest != cats.Recipes.Digest {
		t.Fatalf("recipes digest: %s want %s", digest, cats.Recipes.Digest)
	}
	var meta string
	if err := idx.db.QueryRow(`SELECT value FROM meta WHERE key='catalog_digest'`).Scan(&meta); err != nil || meta != cats.Digest {
		t.Fatalf("meta catalog_digest: %q %v", meta, err)
	}
}
