package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	// MaxDepth bounds how many intermediate crafts the resolver may assume.
	MaxDepth        int    `yaml:"max_depth"`
	VisibleRows     int    `yaml:"visible_rows"`
	DefaultGridSide int    `yaml:"default_grid_side"`
	InventoryPath   string `yaml:"inventory_dump_path"`

	MaxMessageBytes int64 `yaml:"max_message_bytes"`
	AuditFlushEvery int   `yaml:"audit_flush_every"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		MaxDepth:        1,
		VisibleRows:     8,
		DefaultGridSide: 3,
		InventoryPath:   "inventory",
		MaxMessageBytes: 64 << 10,
		AuditFlushEvery: 64,
	}
}

// Load reads path over Defaults(); fields missing from the file keep their
// default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", t.MaxDepth)
	}
	if t.VisibleRows <= 0 {
		return fmt.Errorf("visible_rows must be > 0, got %d", t.VisibleRows)
	}
	if t.DefaultGridSide != 2 && t.DefaultGridSide != 3 {
		return fmt.Errorf("default_grid_side must be 2 or 3, got %d", t.DefaultGridSide)
	}
	if strings.TrimSpace(t.InventoryPath) == "" {
		return fmt.Errorf("inventory_dump_path is empty")
	}
	if t.MaxMessageBytes <= 0 {
		return fmt.Errorf("max_message_bytes must be > 0")
	}
	return nil
}
