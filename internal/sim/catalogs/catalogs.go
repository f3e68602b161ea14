package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/craft/recipe"
)

const (
	ItemsFile   = "items.json"
	RecipesFile = "recipes.json"
	TagsFile    = "tags.json"
)

// Catalogs is one consistent load of the config directory.
type Catalogs struct {
	Items   ItemCatalog
	Recipes RecipeCatalog
	Tags    TagCatalog

	// Digest covers all three files; it identifies the catalog in audit
	// entries and on the wire.
	Digest string

	// Built is the validated recipe catalog with its production index.
	Built *recipe.Catalog
	// Skipped lists recipes dropped by schema validation or by recipe.Build.
	Skipped []recipe.Skipped
}

type ItemCatalog struct {
	Registry *item.Registry
	Defs     map[string]item.Def
	Palette  []string
	Digest   string
}

type RecipeCatalog struct {
	Version int
	Source  []recipe.Recipe
	Digest  string
}

type TagCatalog struct {
	Tags   recipe.Tags
	Digest string
}

// File formats.

type recipesFile struct {
	Version int               `json:"version"`
	Recipes []json.RawMessage `json:"recipes"`
}

type RecipeDef struct {
	ID          string           `json:"id"`
	Shaped      bool             `json:"shaped"`
	Width       int              `json:"width,omitempty"`
	Height      int              `json:"height,omitempty"`
	Ingredients []*IngredientDef `json:"ingredients"`
	Output      OutputDef        `json:"output"`
}

// IngredientDef is one of {item,variant}, {any_of:[...]} or {tag}. A JSON
// null is an empty cell of a shaped recipe.
type IngredientDef struct {
	Item    string   `json:"item,omitempty"`
	Variant int      `json:"variant,omitempty"`
	AnyOf   []KeyDef `json:"any_of,omitempty"`
	Tag     string   `json:"tag,omitempty"`
}

type KeyDef struct {
	Item    string `json:"item"`
	Variant int    `json:"variant,omitempty"`
}

type OutputDef struct {
	Item    string `json:"item"`
	Variant int    `json:"variant,omitempty"`
	Count   int    `json:"count"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, ItemsFile), &c.Items); err != nil {
		return nil, err
	}
	if err := loadTags(filepath.Join(configDir, TagsFile), &c.Tags); err != nil {
		return nil, err
	}
	skipped, err := loadRecipes(filepath.Join(configDir, RecipesFile), &c.Recipes)
	if err != nil {
		return nil, err
	}

	c.Built = recipe.Build(c.Recipes.Source, c.Items.Registry, c.Tags.Tags)
	c.Skipped = append(skipped, c.Built.Skipped()...)
	c.Digest = sha256Hex([]byte(c.Items.Digest + "\n" + c.Recipes.Digest + "\n" + c.Tags.Digest))
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []item.Def
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]item.Def{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Registry = item.NewRegistry(defs)
	return nil
}

func loadTags(path string, out *TagCatalog) error {
	out.Tags = recipe.Tags{}
	raw, err := os.ReadFile(path)
	if err != nil {
		// Tags are optional.
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs map[string][]KeyDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("tags.json: %w", err)
	}
	for name, keys := range defs {
		if name == "" {
			return fmt.Errorf("tags.json: empty tag name")
		}
		list := make([]item.Key, 0, len(keys))
		for _, k := range keys {
			if k.Item == "" {
				return fmt.Errorf("tags.json: tag %s: empty item", name)
			}
			list = append(list, toKey(k.Item, k.Variant))
		}
		out.Tags[name] = list
	}
	return nil
}

// loadRecipes fails on a broken envelope. A single recipe that does not
// match the recipe schema is skipped and reported, not fatal.
func loadRecipes(path string, out *RecipeCatalog) ([]recipe.Skipped, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out.Digest = sha256Hex(raw)

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("recipes.json: %w", err)
	}
	if err := fileSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("recipes.json: %w", err)
	}
	var f recipesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("recipes.json: %w", err)
	}
	out.Version = f.Version
	out.Source = make([]recipe.Recipe, 0, len(f.Recipes))

	var skipped []recipe.Skipped
	for i, rm := range f.Recipes {
		var v any
		_ = json.Unmarshal(rm, &v)
		var def RecipeDef
		_ = json.Unmarshal(rm, &def)
		if def.ID == "" {
			def.ID = fmt.Sprintf("#%d", i)
		}
		if err := recipeSchema.Validate(v); err != nil {
			skipped = append(skipped, recipe.Skipped{ID: def.ID, Reason: err.Error()})
			continue
		}
		out.Source = append(out.Source, def.toRecipe())
	}
	return skipped, nil
}

func (d RecipeDef) toRecipe() recipe.Recipe {
	r := recipe.Recipe{
		ID:          d.ID,
		Shaped:      d.Shaped,
		Width:       d.Width,
		Height:      d.Height,
		Output:      toKey(d.Output.Item, d.Output.Variant),
		OutputCount: d.Output.Count,
		Slots:       make([]*recipe.Requirement, len(d.Ingredients)),
	}
	for i, in := range d.Ingredients {
		r.Slots[i] = in.requirement()
	}
	return r
}

func (in *IngredientDef) requirement() *recipe.Requirement {
	switch {
	case in == nil:
		return nil
	case in.Tag != "":
		return recipe.Tagged(in.Tag)
	case in.AnyOf != nil:
		alts := make([]item.Key, 0, len(in.AnyOf))
		for _, a := range in.AnyOf {
			alts = append(alts, toKey(a.Item, a.Variant))
		}
		return recipe.AnyOf(alts...)
	default:
		return recipe.Exact(toKey(in.Item, in.Variant))
	}
}

// toKey maps the file convention (negative variant = any) to item.Key.
func toKey(id string, variant int) item.Key {
	if variant < 0 {
		variant = item.AnyVariant
	}
	return item.Key{Item: id, Variant: variant}
}
