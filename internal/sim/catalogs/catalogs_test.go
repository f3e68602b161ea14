package catalogs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"craftbrowser.ai/internal/craft/item"
)

const testItems = `[
  {"id": "PLANK", "has_subtypes": true},
  {"id": "STICK"},
  {"id": "WOOL", "has_subtypes": true}
]`

func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Skipped) != 0 {
		t.Fatalf("repo configs should be clean, skipped: %+v", c.Skipped)
	}
	if c.Built.Len() != len(c.Recipes.Source) {
		t.Fatalf("built %d of %d", c.Built.Len(), len(c.Recipes.Source))
	}
	if r, ok := c.Built.ByID("bread"); !ok || r.Width != 3 || r.Height != 1 {
		t.Fatalf("bread dims not inferred: %+v", r)
	}
	if len(c.Tags.Tags.Resolve("planks")) == 0 {
		t.Fatalf("planks tag missing")
	}
	if r, _ := c.Built.ByID("bed"); r == nil || r.Slots[0].Item.Variant != item.AnyVariant {
		t.Fatalf("negative variant should load as wildcard")
	}
	if len(c.Digest) != 64 {
		t.Fatalf("digest: %q", c.Digest)
	}
}

func TestLoad_SkipsMalformedRecipes(t *testing.T) {
	recipes := `{"version":1,"recipes":[
		  {"id":"sticks","ingredients":[{"item":"PLANK"},{"item":"PLANK"}],"output":{"item":"STICK","count":4}},
		  {"id":"schema_bad","ingredients":[{"item":5}],"output":{"item":"STICK","count":1}},
		  {"id":"zero_count","ingredients":[{"item":"PLANK"}],"output":{"item":"STICK","count":0}},
		  {"id":"bad_shape","shaped":true,"width":2,"height":2,"ingredients":[{"item":"PLANK"}],"output":{"item":"STICK","count":1}},
		  {"id":"empty_any","ingredients":[{"any_of":[]}],"output":{"item":"STICK","count":1}}
		]}`
	c, err := Load(writeDir(t, map[string]string{ItemsFile: testItems, RecipesFile: recipes}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Built.Len() != 1 || c.Built.Recipes()[0].ID != "sticks" {
		t.Fatalf("only sticks should survive, got %d", c.Built.Len())
	}
	got := map[string]bool{}
	for _, s := range c.Skipped {
		got[s.ID] = true
	}
	for _, id := range []string{"schema_bad", "zero_count", "bad_shape", "empty_any"} {
		if !got[id] {
			t.Fatalf("%s not reported as skipped: %+v", id, c.Skipped)
		}
	}
}

func TestLoad_FileErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing items": {RecipesFile: `{"version":1,"recipes":[]}`},
		"empty item id": {ItemsFile: `[{"id":""}]`, RecipesFile: `{"version":1,"recipes":[]}`},
		"bad envelope":  {ItemsFile: testItems, RecipesFile: `{"recipes":{}}`},
		"bad tags":      {ItemsFile: testItems, RecipesFile: `{"version":1,"recipes":[]}`, TagsFile: `{"planks":[{"item":""}]}`},
	}
	for name, files := range cases {
		if _, err := Load(writeDir(t, files)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_DigestTracksContent(t *testing.T) {
	files := map[string]string{ItemsFile: testItems, RecipesFile: `{"version":1,"recipes":[]}`}
	a, err := Load(writeDir(t, files))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, _ := Load(writeDir(t, files))
	if a.Digest != b.Digest {
		t.Fatalf("same content, different digest")
	}
	files[TagsFile] = `{"planks":[{"item":"PLANK"}]}`
	c, _ := Load(writeDir(t, files))
	if c.Digest == a.Digest {
		t.Fatalf("tags change should change digest")
	}
}

func TestProvider_CachesUntilInvalidated(t *testing.T) {
	dir := writeDir(t, map[string]string{
		ItemsFile:   testItems,
		RecipesFile: `{"version":1,"recipes":[{"id":"a","ingredients":[{"item":"PLANK"}],"output":{"item":"STICK","count":1}}]}`,
	})
	p := NewProvider(dir)
	if p.Digest() != "" {
		t.Fatalf("digest before load")
	}
	c1, err := p.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	c2, _ := p.Get()
	if c1 != c2 || p.Generation() != 1 {
		t.Fatalf("expected cached catalogs")
	}

	if err := os.WriteFile(filepath.Join(dir, RecipesFile), []byte(`{"version":1,"recipes":[]}`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	p.Invalidate()
	c3, err := p.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c3 == c1 || c3.Built.Len() != 0 || p.Generation() != 2 {
		t.Fatalf("expected rebuild after invalidate")
	}

	// A broken rewrite keeps serving the last good catalogs.
	if err := os.WriteFile(filepath.Join(dir, RecipesFile), []byte(`{`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	p.Invalidate()
	c4, err := p.Get()
	if err == nil || c4 != c3 {
		t.Fatalf("expected error with previous catalogs, got %v", err)
	}
}

func TestWatcher_InvalidatesOnWrite(t *testing.T) {
	dir := writeDir(t, map[string]string{
		ItemsFile:   testItems,
		RecipesFile: `{"version":1,"recipes":[]}`,
	})
	p := NewProvider(dir)
	if _, err := p.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
	w, err := NewWatcher(p)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	body := `{"version":1,"recipes":[{"id":"a","ingredients":[{"item":"PLANK"}],"output":{"item":"STICK","count":1}}]}`
	if err := os.WriteFile(filepath.Join(dir, RecipesFile), []byte(body), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case name := <-w.Changes:
		if name != RecipesFile {
			t.Fatalf("change for %q", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no change event")
	}
	c, err := p.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Built.Len() != 1 {
		t.Fatalf("expected reloaded recipe, got %d", c.Built.Len())
	}
}

func TestIsCatalogFile(t *testing.T) {
	for _, n := range []string{"/x/items.json", "recipes.json", "tags.json"} {
		if !isCatalogFile(n) {
			t.Fatalf("%s should be watched", n)
		}
	}
	for _, n := range []string{"tuning.yaml", "recipes.json.swp", "ITEMS.JSON"} {
		if isCatalogFile(n) {
			t.Fatalf("%s should be ignored", n)
		}
	}
}
