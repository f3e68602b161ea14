package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
)

// Audit entry kinds.
const (
	KindOpen         = "OPEN"
	KindPlan         = "PLAN"
	KindInfeasible   = "INFEASIBLE"
	KindGridTooSmall = "GRID_TOO_SMALL"
	KindReport       = "REPORT"
	KindClose        = "CLOSE"
)

// Stack mirrors item.Stack so the log format does not move with the
// in-memory model.
type Stack struct {
	Item    string `json:"item"`
	Variant int    `json:"variant,omitempty"`
	Count   int    `json:"count"`
}

type Placement struct {
	Slot    int    `json:"slot"`
	Item    string `json:"item"`
	Variant int    `json:"variant"`
}

type SlotResult struct {
	Slot    int    `json:"slot"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// AuditEntry is one line of the browser audit log. OPEN entries carry
// enough to recompute the candidate list offline.
type AuditEntry struct {
	TS            string `json:"ts"`
	SessionID     string `json:"session_id"`
	Kind          string `json:"kind"`
	CatalogDigest string `json:"catalog_digest,omitempty"`
	MaxDepth      int    `json:"max_depth"`

	Inventory  []Stack  `json:"inventory,omitempty"`
	Candidates []string `json:"candidates,omitempty"`

	RecipeID   string       `json:"recipe_id,omitempty"`
	PlanID     string       `json:"plan_id,omitempty"`
	GridSide   int          `json:"grid_side,omitempty"`
	Placements []Placement  `json:"placements,omitempty"`
	Report     []SlotResult `json:"report,omitempty"`
	Code       string       `json:"code,omitempty"`
}

// AuditLogger writes audit JSONL entries (compressed).
type AuditLogger struct{ w *JSONLZstdWriter }

func NewAuditLogger(dataDir string) *AuditLogger {
	return &AuditLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "audit"), "audit")}
}

func (l *AuditLogger) SetFlushEvery(n int)             { l.w.SetFlushEvery(n) }
func (l *AuditLogger) SetOnClose(fn func(path string)) { l.w.SetOnClose(fn) }
func (l *AuditLogger) WriteAudit(e AuditEntry) error   { return l.w.Write(e) }
func (l *AuditLogger) Close() error                    { return l.w.Close() }

// AuditFiles lists the audit files under dir in chronological order.
func AuditFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "audit-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadAuditFile decodes every entry of one audit file and calls fn for
// each. A non-nil error from fn stops the scan and is returned.
func ReadAuditFile(path string, fn func(AuditEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReadAudit(f, path, fn)
}

// ReadAudit decodes a zstd JSONL stream. name is used in error messages.
func ReadAudit(r io.Reader, name string, fn func(AuditEntry) error) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s:%d: %w", name, line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return sc.Err()
}
