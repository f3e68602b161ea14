package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"craftbrowser.ai/internal/persistence/indexdb"
)

// openIndex returns nil when indexing is disabled. The index is a read
// model only; the audit log is enough to rebuild it.
func openIndex(dataDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("CB_INDEX_BACKEND")))
	switch backend {
	case "", "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "browser.sqlite"))
	case "none", "off", "disabled":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported CB_INDEX_BACKEND: %s", backend)
	}
}
