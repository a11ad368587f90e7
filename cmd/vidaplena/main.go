package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vidaplena/analytics/internal/catalog"
	"github.com/vidaplena/analytics/internal/config"
	"github.com/vidaplena/analytics/internal/dashboard"
	"github.com/vidaplena/analytics/internal/domain/clinical"
	"github.com/vidaplena/analytics/internal/domain/hr"
	"github.com/vidaplena/analytics/internal/domain/supply"
	"github.com/vidaplena/analytics/internal/generate"
	"github.com/vidaplena/analytics/internal/platform/db"
	"github.com/vidaplena/analytics/internal/platform/telemetry"
	"github.com/vidaplena/analytics/internal/warehouse"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "vidaplena",
		Short:        "Synthetic hospital datasets and KPI dashboard",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(catalogCmd())
	return rootCmd
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	catalog catalog.Catalog
	paths   generate.Paths
	metrics *telemetry.Metrics
}

func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  newLogger(logOut, cfg),
		catalog: cat,
		paths: generate.Paths{
			Clinical: cfg.ClinicalPath(),
			Supply:   cfg.SupplyPath(),
			HR:       cfg.HRPath(),
		},
		metrics: telemetry.NewMetrics(),
	}, nil
}

func newLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func (a *app) options() generate.Options {
	return generate.Options{
		Rows:      a.cfg.ClinicalRows,
		BatchSize: a.cfg.ClinicalBatchSize,
		Patients:  a.cfg.PatientPool,
		Orders:    a.cfg.SupplyOrders,
		Employees: a.cfg.HREmployees,
		Seed:      a.cfg.Seed,
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func generateCmd() *cobra.Command {
	var (
		rows, batchSize, patients, orders, employees int
		seed                                         int64
	)
	cmd := &cobra.Command{
		Use:       "generate clinical|supply|hr|all",
		Short:     "Generate a dataset file, replacing any previous one",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"clinical", "supply", "hr", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts := a.options()
			flags := cmd.Flags()
			if flags.Changed("rows") {
				opts.Rows = rows
			}
			if flags.Changed("batch-size") {
				opts.BatchSize = batchSize
			}
			if flags.Changed("patients") {
				opts.Patients = patients
			}
			if flags.Changed("orders") {
				opts.Orders = orders
			}
			if flags.Changed("employees") {
				opts.Employees = employees
			}
			if flags.Changed("seed") {
				opts.Seed = seed
			}

			ctx, stop := signalContext()
			defer stop()
			ctx = a.logger.WithContext(ctx)

			runner := generate.NewRunner(a.catalog, a.paths, a.metrics, a.logger)
			var results []generate.Result
			if args[0] == "all" {
				results, err = runner.All(ctx, opts)
			} else {
				d, perr := generate.ParseDataset(args[0])
				if perr != nil {
					return perr
				}
				var res generate.Result
				res, err = runner.Run(ctx, d, opts)
				results = []generate.Result{res}
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	f := cmd.Flags()
	f.IntVar(&rows, "rows", 0, "clinical encounters to generate (CLINICAL_ROWS)")
	f.IntVar(&batchSize, "batch-size", 0, "clinical rows per flushed batch (CLINICAL_BATCH_SIZE)")
	f.IntVar(&patients, "patients", 0, "size of the patient pool (PATIENT_POOL)")
	f.IntVar(&orders, "orders", 0, "purchase orders to generate (SUPPLY_ORDERS)")
	f.IntVar(&employees, "employees", 0, "employees to generate (HR_EMPLOYEES)")
	f.Int64Var(&seed, "seed", 0, "random seed, 0 for time-based (SEED)")
	return cmd
}

// LoadSummary describes a loaded dataset.
type LoadSummary struct {
	Dataset    generate.Dataset    `json:"dataset"`
	Path       string              `json:"path"`
	Rows       int                 `json:"rows"`
	Skipped    int                 `json:"skipped"`
	Categories map[string][]string `json:"categories"`
}

func summarize(ctx context.Context, d generate.Dataset, path string) (LoadSummary, error) {
	s := LoadSummary{Dataset: d, Path: path, Categories: map[string][]string{}}
	switch d {
	case generate.Clinical:
		t, err := clinical.Load(ctx, path)
		if err != nil {
			return s, err
		}
		s.Rows, s.Skipped = t.Len(), t.Skipped
		s.Categories[clinical.ColEncounterType] = t.Type.Levels()
		s.Categories[clinical.ColDepartment] = t.Department.Levels()
		s.Categories[clinical.ColInsurer] = t.Insurer.Levels()
		s.Categories[clinical.ColPaymentStatus] = t.PaymentStatus.Levels()
	case generate.Supply:
		t, err := supply.Load(ctx, path)
		if err != nil {
			return s, err
		}
		s.Rows, s.Skipped = t.Len(), t.Skipped
		s.Categories[supply.ColItemName] = t.ItemName.Levels()
		s.Categories[supply.ColItemCategory] = t.ItemCategory.Levels()
		s.Categories[supply.ColSupplierName] = t.SupplierName.Levels()
		s.Categories[supply.ColStatus] = t.Status.Levels()
	case generate.HR:
		t, err := hr.Load(ctx, path)
		if err != nil {
			return s, err
		}
		s.Rows, s.Skipped = t.Len(), t.Skipped
		s.Categories[hr.ColGender] = t.Gender.Levels()
		s.Categories[hr.ColDepartment] = t.Department.Levels()
		s.Categories[hr.ColTitle] = t.Title.Levels()
		s.Categories[hr.ColSeniority] = t.Seniority.Levels()
		s.Categories[hr.ColExitReason] = t.ExitReason.Levels()
		s.Categories[hr.ColPromoted] = t.Promoted.Levels()
	default:
		return s, fmt.Errorf("%w %q", generate.ErrUnknownDataset, d)
	}
	return s, nil
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load clinical|supply|hr [path]",
		Short: "Load a dataset file and print a summary",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			d, err := generate.ParseDataset(args[0])
			if err != nil {
				return err
			}
			path := a.paths.For(d)
			if len(args) == 2 {
				path = args[1]
			}
			s, err := summarize(a.logger.WithContext(cmd.Context()), d, path)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s)
		},
	}
}

// buildReport computes one report straight from the dataset files.
func buildReport(ctx context.Context, store *dashboard.Store, cat catalog.Catalog, id string, insurers []string, department string) (any, error) {
	switch id {
	case "overview":
		t, err := store.Clinical(ctx)
		if err != nil {
			return nil, err
		}
		return dashboard.Overview(t), nil
	case "financial":
		t, err := store.Clinical(ctx)
		if err != nil {
			return nil, err
		}
		return dashboard.Financial(t, insurers), nil
	case "supply-chain":
		t, err := store.Supply(ctx)
		if err != nil {
			return nil, err
		}
		return dashboard.SupplyChain(t, cat.Supply.LateStatuses()), nil
	case "people":
		t, err := store.HR(ctx)
		if err != nil {
			return nil, err
		}
		return dashboard.People(t, department), nil
	}
	return nil, fmt.Errorf("unknown report %q (want overview, financial, supply-chain or people)", id)
}

func reportCmd() *cobra.Command {
	var (
		insurers   []string
		department string
	)
	cmd := &cobra.Command{
		Use:       "report overview|financial|supply-chain|people",
		Short:     "Print a dashboard report as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"overview", "financial", "supply-chain", "people"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store := dashboard.NewStore(a.paths, 0, a.metrics, a.logger)
			r, err := buildReport(cmd.Context(), store, a.catalog, args[0], insurers, department)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().StringSliceVar(&insurers, "insurer", nil, "insurers for the financial report (repeatable)")
	cmd.Flags().StringVar(&department, "department", "", "department for the people report")
	return cmd
}

func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish clinical|supply|hr [path]",
		Short: "Copy a dataset file into the Postgres warehouse",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := a.cfg.RequireDatabase(); err != nil {
				return err
			}
			d, err := generate.ParseDataset(args[0])
			if err != nil {
				return err
			}
			path := a.paths.For(d)
			if len(args) == 2 {
				path = args[1]
			}

			ctx, stop := signalContext()
			defer stop()
			ctx = a.logger.WithContext(ctx)

			pool, err := db.NewPool(ctx, db.PoolConfig{
				URL:        a.cfg.DatabaseURL,
				MaxConns:   a.cfg.DBMaxConns,
				MinConns:   a.cfg.DBMinConns,
				MaxElapsed: time.Minute,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := warehouse.NewPublisher(pool, a.logger).Publish(ctx, d, path)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the dimension catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return catalog.Dump(cmd.OutOrStdout(), a.catalog)
		},
	})
	return cmd
}
