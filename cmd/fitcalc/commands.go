package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fits/internal/batch"
	"github.com/JonMunkholm/fits/internal/fits"
	"github.com/JonMunkholm/fits/internal/reconcile"
	"github.com/JonMunkholm/fits/internal/store"
	"github.com/JonMunkholm/fits/internal/table"
)

// =============================================================================
// reconcile
// =============================================================================

func newReconcileCmd(g *globals) *cobra.Command {
	var (
		out        string
		sqlitePath string
		dropEmpty  bool
		tieBreak   string
	)

	cmd := &cobra.Command{
		Use:   "reconcile <dataset>",
		Short: "Clean a raw dataset and save the lookup index",
		Long: `Reads a raw reference dataset (.json, .yaml, optionally .gz), applies the
registered corrections, drops incomplete rows, resolves duplicates and saves
the resulting index to the configured store. The report is printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if out != "" {
				g.index = out
			}

			opts := g.cfg.ReconcileOptions()
			if cmd.Flags().Changed("drop-empty") {
				opts.DropEmpty = dropEmpty
			}
			if cmd.Flags().Changed("tie-break") {
				tb, err := reconcile.ParseTieBreak(tieBreak)
				if err != nil {
					return err
				}
				opts.TieBreak = tb
			}

			st, err := store.Open(ctx, g.indexConfig())
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := store.Build(ctx, st, args[0], opts)
			if err != nil {
				return userError(cmd, err)
			}

			if sqlitePath != "" {
				db, err := store.OpenSQLite(ctx, sqlitePath)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.Save(ctx, snap.Index, snap.Report); err != nil {
					return fmt.Errorf("save sqlite copy: %w", err)
				}
			}

			return writeIndented(cmd.OutOrStdout(), snap.Report)
		},
	}

	f := cmd.Flags()
	f.StringVar(&out, "out", "", "where to save the index (same as --index)")
	f.StringVar(&sqlitePath, "sqlite", "", "also save the index to this sqlite database")
	f.BoolVar(&dropEmpty, "drop-empty", true, "drop rows with a missing deviation (default from RECONCILE_DROP_EMPTY)")
	f.StringVar(&tieBreak, "tie-break", "", "keep-first, keep-last or strict (default from RECONCILE_TIE_BREAK)")
	return cmd
}

// =============================================================================
// calc
// =============================================================================

func newCalcCmd(g *globals) *cobra.Command {
	var (
		req    fits.Request
		d      string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "calc [D hole shaft]",
		Short: "Compute one fit",
		Example: `  fitcalc calc 25 H7 g6
  fitcalc calc --D 12.5 --hole H7 --shaft p6 --json`,
		Args: cobra.MatchAll(cobra.MaximumNArgs(3), func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("want D, hole and shaft as arguments or flags, got %d argument(s)", len(args))
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 3 {
				d, req.Hole, req.Shaft = args[0], args[1], args[2]
			}
			req.D = fits.Decimal(d)

			engine, err := g.openEngine(cmd.Context())
			if err != nil {
				return userError(cmd, err)
			}
			res, err := engine.Compute(req)
			if err != nil {
				return userError(cmd, err)
			}

			if asJSON {
				return writeIndented(cmd.OutOrStdout(), res)
			}
			return writeResult(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&d, "D", "", "nominal diameter in mm")
	f.StringVar(&req.Hole, "hole", "", "hole designation, e.g. H7")
	f.StringVar(&req.Shaft, "shaft", "", "shaft designation, e.g. g6")
	f.BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

// writeResult prints the summary line and every figure in millimetres.
func writeResult(w io.Writer, res *fits.Result) error {
	fmt.Fprintln(w, res.Summary())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	record := batch.Record(res)
	// Skip the echoed input and the classification columns.
	for i := 3; i < len(batch.Columns)-2; i++ {
		fmt.Fprintf(tw, "%s\t%s\tmm\t\n", batch.Columns[i], record[i])
	}
	return tw.Flush()
}

// =============================================================================
// batch
// =============================================================================

func newBatchCmd(g *globals) *cobra.Command {
	var (
		in, out, outJSON string
		workers          int
		maxSize          int64
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compute every line of a D;hole;shaft file",
		Long: `Reads lines of "D;hole;shaft" (or comma separated), skipping blank lines,
# comments and a header row, and writes one ';'-separated line with all 27
figures per successful input. Failed lines are listed on stderr and kept,
with their error codes, in the --out-json report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			engine, err := g.openEngine(ctx)
			if err != nil {
				return userError(cmd, err)
			}

			r, closeIn, err := openInput(cmd, in)
			if err != nil {
				return err
			}
			defer closeIn()

			summary, err := batch.ProcessStream(ctx, engine, r, maxSize, workers)
			if err != nil {
				return userError(cmd, err)
			}

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if err := batch.WriteCSV(w, summary); err != nil {
				closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}

			if outJSON != "" {
				if err := writeJSONFile(outJSON, summary); err != nil {
					return err
				}
			}

			errOut := cmd.ErrOrStderr()
			for _, row := range summary.Failures() {
				fmt.Fprintf(errOut, "line %d: %s (%s)\n", row.Line, row.Error, row.Code)
			}
			fmt.Fprintf(errOut, "%d line(s): %d succeeded, %d failed\n", summary.Total, summary.Succeeded, summary.Failed)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in, "in", "-", "input file, - for stdin")
	f.StringVar(&out, "out", "-", "CSV output file, - for stdout")
	f.StringVar(&outJSON, "out-json", "", "also write the full JSON summary here")
	f.IntVar(&workers, "concurrency", 0, "parallel evaluations, 0 for GOMAXPROCS")
	f.Int64Var(&maxSize, "max-size", 0, "largest accepted input in bytes, 0 for unlimited")
	return cmd
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "-" || path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeJSONFile(path string, s *batch.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := batch.WriteJSON(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// =============================================================================
// options
// =============================================================================

func newOptionsCmd(g *globals) *cobra.Command {
	var (
		d, kind, zone string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the zones, or the grades of one zone, available at a diameter",
		Example: `  fitcalc options --D 25
  fitcalc options --D 25 --kind hole --zone H`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := g.openEngine(cmd.Context())
			if err != nil {
				return userError(cmd, err)
			}
			w := cmd.OutOrStdout()

			if kind == "" && zone == "" {
				opts, err := engine.Options(d)
				if err != nil {
					return userError(cmd, err)
				}
				if asJSON {
					return writeIndented(w, opts)
				}
				fmt.Fprintf(w, "D = %s mm (size bucket %d)\n", opts.D, opts.Bucket)
				fmt.Fprintf(w, "hole:  %s\n", strings.Join(opts.HoleZones, " "))
				fmt.Fprintf(w, "shaft: %s\n", strings.Join(opts.ShaftZones, " "))
				return nil
			}

			k, err := table.ParseKind(kind)
			if err != nil {
				return err
			}
			opts, err := engine.Grades(d, k, zone)
			if err != nil {
				return userError(cmd, err)
			}
			if asJSON {
				return writeIndented(w, opts)
			}
			fmt.Fprintf(w, "%s %s at %s mm: %s\n", opts.Kind, opts.Zone, opts.D, strings.Join(opts.Grades, " "))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&d, "D", "", "nominal diameter in mm")
	f.StringVar(&kind, "kind", "", "hole or shaft; with --zone lists grades")
	f.StringVar(&zone, "zone", "", "zone letter, e.g. H or js")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	cmd.MarkFlagRequired("D")
	cmd.MarkFlagsRequiredTogether("kind", "zone")
	return cmd
}

// =============================================================================
// helpers
// =============================================================================

// userError prints the coded user message on stderr and returns err.
func userError(cmd *cobra.Command, err error) error {
	if fits.IsUserFacing(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), fits.FormatUserError(err))
	}
	return err
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
