package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"craftbrowser.ai/internal/craft/inventory"
	"craftbrowser.ai/internal/craft/item"
	"craftbrowser.ai/internal/sim/catalogs"
	"craftbrowser.ai/internal/sim/tuning"
)

// app carries the resolved settings shared by every subcommand.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	def := tuning.Defaults()

	root := &cobra.Command{
		Use:           "craftctl",
		Short:         "Offline recipe browser tools",
		Long:          "craftctl lists craftable recipes for an inventory dump, builds grid plans, searches outputs and reads plan stats.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default .craftctl.yaml in the working directory)")
	pf.String("configs", "./configs", "catalog directory (items.json, recipes.json, tags.json)")
	pf.String("inventory", "", "inventory dump file ('-' for stdin)")
	pf.String("path", def.InventoryPath, "gjson path of the stack array inside the dump")
	pf.Int("depth", def.MaxDepth, "maximum sub-craft depth")
	for _, name := range []string{"configs", "inventory", "path", "depth"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(newCandidatesCmd(a), newPlanCmd(a), newSearchCmd(a), newStatsCmd(a))
	return root
}

func (a *app) initConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName(".craftctl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}
	a.v.SetEnvPrefix("CRAFTCTL")
	a.v.AutomaticEnv()

	// A missing default config file is fine; flags and env cover everything.
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (a *app) catalogs() (*catalogs.Catalogs, error) {
	return catalogs.Load(a.v.GetString("configs"))
}

func (a *app) depth() int { return a.v.GetInt("depth") }

// snapshot reads the inventory dump named by --inventory.
func (a *app) snapshot(cmd *cobra.Command, items *item.Registry) (inventory.Snapshot, error) {
	name := a.v.GetString("inventory")
	if name == "" {
		return inventory.Snapshot{}, fmt.Errorf("--inventory is required")
	}
	var (
		raw []byte
		err error
	)
	if name == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(filepath.Clean(name))
	}
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("read inventory: %w", err)
	}
	stacks, err := inventory.ParseDump(raw, a.v.GetString("path"))
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("%s: %w", name, err)
	}
	return inventory.NewSnapshot(items, stacks), nil
}
