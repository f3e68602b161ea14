package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	tune, err := Load(writeFile(t, "max_depth: 3\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tune.MaxDepth != 3 {
		t.Fatalf("max_depth: %d", tune.MaxDepth)
	}
	def := Defaults()
	if tune.VisibleRows != def.VisibleRows || tune.DefaultGridSide != def.DefaultGridSide || tune.InventoryPath != def.InventoryPath {
		t.Fatalf("defaults not kept: %+v", tune)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := []string{
		"max_depth: -1\n",
		"visible_rows: 0\n",
		"default_grid_side: 4\n",
		"max_depth: [\n",
	}
	for _, body := range cases {
		if _, err := Load(writeFile(t, body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoad_RepoConfig(t *testing.T) {
	tune, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := tune.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
