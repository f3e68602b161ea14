package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"craftbrowser.ai/internal/sim/catalogs"
	"craftbrowser.ai/internal/sim/tuning"
)

// SQLiteIndex is a read model of browser sessions, plans and executor
// reports. All writes go through a single goroutine; callers never block
// on it and requests are dropped when the queue is full. The audit log
// stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropSession atomic.Uint64
	dropPlan    atomic.Uint64
	dropReport  atomic.Uint64
}

type reqKind int

const (
	reqSessionOpen reqKind = iota + 1
	reqSessionClose
	reqPlan
	reqReport
)

type req struct {
	kind reqKind

	session SessionRow
	plan    PlanRow
	report  ReportRow
}

type SessionRow struct {
	SessionID     string
	ClientName    string
	CatalogDigest string
	At            time.Time
}

type PlanRow struct {
	PlanID     string
	SessionID  string
	RecipeID   string
	GridSide   int
	Placements any
	Slots      int
	At         time.Time
}

type ReportRow struct {
	PlanID  string
	Results []SlotResult
	At      time.Time
}

type SlotResult struct {
	Slot    int
	OK      bool
	Message string
}

type Stats struct {
	QueueDepth       int
	QueueCapacity    int
	DropSessionTotal uint64
	DropPlanTotal    uint64
	DropReportTotal  uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			catalog_digest TEXT NOT NULL,
			opened_at TEXT NOT NULL,
			closed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS plans (
			plan_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			recipe_id TEXT NOT NULL,
			grid_side INTEGER NOT NULL,
			slots INTEGER NOT NULL,
			placements_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_plans_recipe ON plans(recipe_id);`,
		`CREATE INDEX IF NOT EXISTS idx_plans_session ON plans(session_id);`,
		`CREATE TABLE IF NOT EXISTS reports (
			plan_id TEXT NOT NULL,
			slot INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			message TEXT,
			reported_at TEXT NOT NULL,
			PRIMARY KEY (plan_id, slot)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue, commits and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropSessionTotal: s.dropSession.Load(),
		DropPlanTotal:    s.dropPlan.Load(),
		DropReportTotal:  s.dropReport.Load(),
	}
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

func (s *SQLiteIndex) RecordSessionOpen(row SessionRow) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqSessionOpen, session: row}, &s.dropSession)
}

func (s *SQLiteIndex) RecordSessionClose(sessionID string, at time.Time) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqSessionClose, session: SessionRow{SessionID: sessionID, At: at}}, &s.dropSession)
}

func (s *SQLiteIndex) RecordPlan(row PlanRow) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqPlan, plan: row}, &s.dropPlan)
}

func (s *SQLiteIndex) RecordReport(row ReportRow) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqReport, report: row}, &s.dropReport)
}

// UpsertCatalogs stores the raw catalog files and the effective tuning. It
// writes synchronously, outside the request queue.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	read := func(name, file, digest string) {
		if configDir == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(configDir, file))
		if err != nil {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	read("items", catalogs.ItemsFile, cats.Items.Digest)
	read("recipes", catalogs.RecipesFile, cats.Recipes.Digest)
	read("tags", catalogs.TagsFile, cats.Tags.Digest)

	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: digestOf(b), json: b})
	}
	if b, _ := json.Marshal(cats.Skipped); len(b) > 0 {
		rows = append(rows, kv{name: "skipped_recipes", digest: cats.Digest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		rows = append(rows, kv{name: "tuning", digest: digestOf(b), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('catalog_digest',?)`, cats.Digest); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func digestOf(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func ts(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertSession, _ := s.db.Prepare(`INSERT OR IGNORE INTO sessions(session_id,client_name,catalog_digest,opened_at) VALUES(?,?,?,?)`)
	closeSession, _ := s.db.Prepare(`UPDATE sessions SET closed_at=? WHERE session_id=?`)
	insertPlan, _ := s.db.Prepare(`INSERT OR REPLACE INTO plans(plan_id,session_id,recipe_id,grid_side,slots,placements_json,created_at) VALUES(?,?,?,?,?,?,?)`)
	insertReport, _ := s.db.Prepare(`INSERT OR REPLACE INTO reports(plan_id,slot,ok,message,reported_at) VALUES(?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertSession, closeSession, insertPlan, insertReport} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		var r req
		select {
		case rr, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		case <-ticker.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
			continue
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqSessionOpen:
			se := r.session
			exec(insertSession, se.SessionID, se.ClientName, se.CatalogDigest, ts(se.At))

		case reqSessionClose:
			exec(closeSession, ts(r.session.At), r.session.SessionID)

		case reqPlan:
			p := r.plan
			raw, _ := json.Marshal(p.Placements)
			exec(insertPlan, p.PlanID, p.SessionID, p.RecipeID, p.GridSide, p.Slots, string(raw), ts(p.At))

		case reqReport:
			rep := r.report
			at := ts(rep.At)
			for _, res := range rep.Results {
				ok := 0
				if res.OK {
					ok = 1
				}
				if !exec(insertReport, rep.PlanID, res.Slot, ok, res.Message, at) {
					break
				}
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
}
