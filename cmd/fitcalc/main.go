// Command fitcalc reconciles reference datasets and computes ISO limits and
// fits from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fits/internal/config"
	"github.com/JonMunkholm/fits/internal/fits"
	"github.com/JonMunkholm/fits/internal/logging"
	_ "github.com/JonMunkholm/fits/internal/reconcile/rules" // Register dataset corrections
	"github.com/JonMunkholm/fits/internal/store"
	"github.com/JonMunkholm/fits/internal/table"
)

func main() {
	// A missing .env is fine for the CLI.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	cfg       *config.Config
	store     string
	index     string
	logLevel  string
	zoneOrder string
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "fitcalc",
		Short: "ISO 286 limits and fits calculator",
		Long: `fitcalc computes limit deviations, limiting sizes, clearances and
interferences for a hole/shaft pair from a reconciled reference index.

Build the index once with "fitcalc reconcile", then use calc, batch and options.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			g.cfg = cfg
			if !cmd.Flags().Changed("store") {
				g.store = cfg.Index.Store
			}
			if !cmd.Flags().Changed("index") {
				g.index = cfg.Index.Path
			}
			if !cmd.Flags().Changed("zone-order") {
				g.zoneOrder = cfg.Options.ZoneOrder
			}
			level := cfg.Logging.Level
			if cmd.Flags().Changed("log-level") {
				level = g.logLevel
			}
			logging.SetupWriter(cmd.ErrOrStderr(), level, cfg.Logging.Format)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.store, "store", config.StoreFile, "index store: file, sqlite or postgres (default from INDEX_STORE)")
	pf.StringVar(&g.index, "index", "", "index file or sqlite database (default from INDEX_PATH)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	pf.StringVar(&g.zoneOrder, "zone-order", "", "zone listing order: lexical or upper-first (default from OPTIONS_ZONE_ORDER)")

	root.AddCommand(
		newReconcileCmd(g),
		newCalcCmd(g),
		newBatchCmd(g),
		newOptionsCmd(g),
	)
	return root
}

// indexConfig is the configured index location with flag overrides applied.
func (g *globals) indexConfig() config.IndexConfig {
	ic := g.cfg.Index
	ic.Store = g.store
	ic.Path = g.index
	return ic
}

// openEngine loads the saved index and builds an engine over it.
func (g *globals) openEngine(ctx context.Context) (*fits.Engine, error) {
	st, err := store.Open(ctx, g.indexConfig())
	if err != nil {
		return nil, err
	}
	defer st.Close()

	snap, err := store.LoadOrBuild(ctx, st, g.cfg.Index.Dataset, g.cfg.ReconcileOptions())
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", g.index, err)
	}

	order, err := table.ParseZoneOrder(g.zoneOrder)
	if err != nil {
		return nil, err
	}
	return fits.NewEngine(snap.Index, fits.WithZoneOrder(order))
}
