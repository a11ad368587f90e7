// Package generate runs the dataset generators against their output files.
// Each run deletes any stale file, opens a scoped writer once, drives the
// domain generator batch by batch and reports what it wrote.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vidaplena/analytics/internal/catalog"
	"github.com/vidaplena/analytics/internal/domain/clinical"
	"github.com/vidaplena/analytics/internal/domain/hr"
	"github.com/vidaplena/analytics/internal/domain/supply"
	"github.com/vidaplena/analytics/internal/platform/synth"
	"github.com/vidaplena/analytics/internal/platform/tabular"
	"github.com/vidaplena/analytics/internal/platform/telemetry"
)

// Dataset names one of the generated files.
type Dataset string

const (
	Clinical Dataset = "clinical"
	Supply   Dataset = "supply"
	HR       Dataset = "hr"
)

// Datasets lists every dataset in generation order.
var Datasets = []Dataset{Clinical, Supply, HR}

// ErrUnknownDataset is returned for a dataset name outside Datasets.
var ErrUnknownDataset = errors.New("unknown dataset")

// ParseDataset validates a dataset name.
func ParseDataset(s string) (Dataset, error) {
	for _, d := range Datasets {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w %q (want clinical, supply or hr)", ErrUnknownDataset, s)
}

// Paths locates the output file of each dataset.
type Paths struct {
	Clinical string
	Supply   string
	HR       string
}

// For returns the path of d.
func (p Paths) For(d Dataset) string {
	switch d {
	case Clinical:
		return p.Clinical
	case Supply:
		return p.Supply
	case HR:
		return p.HR
	}
	return ""
}

// Options sizes a run. Fields irrelevant to a dataset are ignored.
type Options struct {
	Rows      int
	BatchSize int
	Patients  int
	Orders    int
	Employees int
	// Seed 0 picks a time-based seed.
	Seed int64
	// Reference overrides the HR reference date when set.
	Reference time.Time
}

// Result describes one completed run.
type Result struct {
	RunID    string        `json:"run_id"`
	Dataset  Dataset       `json:"dataset"`
	Path     string        `json:"path"`
	Rows     int           `json:"rows"`
	Batches  int           `json:"batches"`
	Duration time.Duration `json:"duration_ns"`
}

type generator interface {
	generate(ctx context.Context, sink tabular.BatchSink, progress tabular.ProgressFunc) (rows, batches int, err error)
}

// Runner generates datasets from a fixed catalog.
type Runner struct {
	catalog catalog.Catalog
	paths   Paths
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

// NewRunner returns a Runner. metrics may be nil.
func NewRunner(cat catalog.Catalog, paths Paths, metrics *telemetry.Metrics, logger zerolog.Logger) *Runner {
	return &Runner{catalog: cat, paths: paths, metrics: metrics, logger: logger}
}

// Run regenerates one dataset. Options are validated before the existing file
// is removed, so a rejected run leaves the previous file in place. A failure
// after that point leaves a partial file that the next run replaces.
func (r *Runner) Run(ctx context.Context, d Dataset, opts Options) (Result, error) {
	res := Result{RunID: uuid.NewString(), Dataset: d, Path: r.paths.For(d)}
	log := r.logger.With().Str("run_id", res.RunID).Str("dataset", string(d)).Logger()

	gen, header, err := r.build(d, opts)
	if err != nil {
		return res, err
	}
	if res.Path == "" {
		return res, fmt.Errorf("no output path configured for %s", d)
	}

	start := time.Now()
	res.Rows, res.Batches, err = r.write(log.WithContext(ctx), gen, res.Path, header, log, d)
	res.Duration = time.Since(start)
	if r.metrics != nil {
		r.metrics.RecordRun(string(d), err)
	}
	if err != nil {
		log.Error().Err(err).Str("path", res.Path).Msg("generation failed")
		return res, fmt.Errorf("generate %s: %w", d, err)
	}
	log.Info().
		Str("path", res.Path).
		Int("rows", res.Rows).
		Int("batches", res.Batches).
		Dur("duration", res.Duration).
		Msg("dataset generated")
	return res, nil
}

func (r *Runner) write(ctx context.Context, gen generator, path string, header []string, log zerolog.Logger, d Dataset) (int, int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, 0, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, 0, fmt.Errorf("remove stale %s: %w", path, err)
	}

	w, err := tabular.OpenAppend(path, header)
	if err != nil {
		return 0, 0, err
	}
	defer w.Close()

	rows, batches, err := gen.generate(ctx, w, func(s tabular.BatchStats) {
		if r.metrics != nil {
			r.metrics.RecordBatch(string(d), s.Rows, s.Elapsed)
		}
		log.Info().
			Int("batch", s.Index+1).
			Int("rows", s.Rows).
			Int("total", s.Total).
			Dur("elapsed", s.Elapsed).
			Msg("batch flushed")
	})
	if err != nil {
		return rows, batches, err
	}
	return rows, batches, w.Close()
}

func (r *Runner) build(d Dataset, opts Options) (generator, []string, error) {
	src := synth.New(opts.Seed)
	switch d {
	case Clinical:
		g, err := clinical.NewGenerator(r.catalog.Clinical, clinical.Options{
			Rows:      opts.Rows,
			BatchSize: opts.BatchSize,
			Patients:  opts.Patients,
		}, src)
		if err != nil {
			return nil, nil, err
		}
		return clinicalRun{g}, clinical.Columns, nil
	case Supply:
		g, err := supply.NewGenerator(r.catalog.Supply, supply.Options{Orders: opts.Orders}, src)
		if err != nil {
			return nil, nil, err
		}
		return supplyRun{g}, supply.Columns, nil
	case HR:
		g, err := hr.NewGenerator(r.catalog.HR, hr.Options{Employees: opts.Employees, Reference: opts.Reference}, src)
		if err != nil {
			return nil, nil, err
		}
		return hrRun{g}, hr.Columns, nil
	}
	return nil, nil, fmt.Errorf("%w %q", ErrUnknownDataset, d)
}

// All regenerates every dataset concurrently. The pipelines share nothing but
// the catalog; the first failure cancels the others.
func (r *Runner) All(ctx context.Context, opts Options) ([]Result, error) {
	results := make([]Result, len(Datasets))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range Datasets {
		g.Go(func() error {
			res, err := r.Run(gctx, d, opts)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

type clinicalRun struct{ g *clinical.Generator }

func (c clinicalRun) generate(ctx context.Context, sink tabular.BatchSink, p tabular.ProgressFunc) (int, int, error) {
	sum, err := c.g.Generate(ctx, sink, p)
	return sum.Rows, sum.Batches, err
}

type supplyRun struct{ g *supply.Generator }

func (s supplyRun) generate(ctx context.Context, sink tabular.BatchSink, p tabular.ProgressFunc) (int, int, error) {
	sum, err := s.g.Generate(ctx, sink, p)
	if err != nil {
		return 0, 0, err
	}
	return sum.Rows, 1, nil
}

type hrRun struct{ g *hr.Generator }

func (h hrRun) generate(ctx context.Context, sink tabular.BatchSink, p tabular.ProgressFunc) (int, int, error) {
	sum, err := h.g.Generate(ctx, sink, p)
	if err != nil {
		return 0, 0, err
	}
	return sum.Rows, 1, nil
}
