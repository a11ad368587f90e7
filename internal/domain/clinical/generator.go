package clinical

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidaplena/analytics/internal/platform/synth"
	"github.com/vidaplena/analytics/internal/platform/tabular"
)

// ErrBatchSize is returned when the row count is not a positive multiple of
// the batch size.
var ErrBatchSize = errors.New("clinical: rows must be a positive multiple of batch size")

// Options sizes one generation run.
type Options struct {
	Rows      int
	BatchSize int
	Patients  int
	// Reference anchors patient ages; zero means the end of the encounter range.
	Reference time.Time
}

// Summary reports what a run produced.
type Summary struct {
	Rows     int
	Batches  int
	Patients int
}

// Generator produces encounters in fixed-size batches against a patient pool.
type Generator struct {
	dims Dimensions
	opts Options
	src  *synth.Source

	typeWeights []float64
	pool        []Patient
}

// NewGenerator validates dims and opts. It does not touch any file, so an
// invalid size is rejected before the output is deleted or opened.
func NewGenerator(dims Dimensions, opts Options, src *synth.Source) (*Generator, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if opts.BatchSize <= 0 || opts.Rows <= 0 || opts.Rows%opts.BatchSize != 0 {
		return nil, fmt.Errorf("%w: rows=%d batch=%d", ErrBatchSize, opts.Rows, opts.BatchSize)
	}
	if opts.Patients <= 0 {
		return nil, fmt.Errorf("clinical: patient pool must be positive, got %d", opts.Patients)
	}
	if opts.Reference.IsZero() {
		opts.Reference = dims.End
	}
	return &Generator{
		dims:        dims,
		opts:        opts,
		src:         src,
		typeWeights: dims.typeWeights(),
	}, nil
}

// NumBatches returns Rows / BatchSize.
func (g *Generator) NumBatches() int {
	return g.opts.Rows / g.opts.BatchSize
}

// GeneratePatients builds the pool shared by every batch of the run.
func (g *Generator) GeneratePatients() []Patient {
	oldest := g.opts.Reference.AddDate(-g.dims.MaxPatientAge, 0, 0)
	pool := make([]Patient, g.opts.Patients)
	for i := range pool {
		pool[i] = Patient{
			ID:        int64(PatientIDBase + i),
			Name:      g.src.Name(),
			BirthDate: g.src.DateBetween(oldest, g.opts.Reference),
		}
	}
	g.pool = pool
	return pool
}

// Batch generates batch number index. Encounter ids are
// index*BatchSize + offset, so ids stay unique and contiguous across batches.
func (g *Generator) Batch(index int) []Encounter {
	if g.pool == nil {
		g.GeneratePatients()
	}
	out := make([]Encounter, g.opts.BatchSize)
	base := int64(index) * int64(g.opts.BatchSize)
	for i := range out {
		out[i] = g.encounter(base + int64(i))
	}
	return out
}

func (g *Generator) encounter(id int64) Encounter {
	patient := synth.Pick(g.src, g.pool)
	typ := g.dims.EncounterTypes[g.src.Weighted(g.typeWeights)]
	department := synth.Pick(g.src, g.dims.Departments)
	at := g.src.TimeBetween(g.dims.Start, g.dims.End)
	stay := StayDays(g.src, typ, g.dims.MinStayDays, g.dims.MaxStayDays)
	insurer := synth.Pick(g.src, g.dims.Insurers)
	billed := BilledAmount(g.src, insurer, g.dims.MinCharge, g.dims.MaxCharge)

	return Encounter{
		ID:            id,
		Patient:       patient,
		At:            at,
		Type:          typ.Name,
		Department:    department,
		StayDays:      stay,
		Insurer:       insurer.Name,
		Billed:        billed,
		PaymentStatus: synth.Pick(g.src, g.dims.PaymentStatuses),
	}
}

// Generate writes every batch to sink, one at a time. The pool is built
// first; each batch is encoded, handed to the sink and dropped before the
// next one is generated. A failed write aborts the run and leaves whatever
// the sink already persisted.
func (g *Generator) Generate(ctx context.Context, sink tabular.BatchSink, progress tabular.ProgressFunc) (Summary, error) {
	g.GeneratePatients()

	sum := Summary{Patients: len(g.pool)}
	rows := make([][]string, g.opts.BatchSize)
	for b := 0; b < g.NumBatches(); b++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		start := time.Now()
		for i, enc := range g.Batch(b) {
			rows[i] = enc.Record()
		}
		if err := sink.WriteBatch(rows); err != nil {
			return sum, fmt.Errorf("batch %d: %w", b+1, err)
		}
		sum.Batches++
		sum.Rows += len(rows)
		if progress != nil {
			progress(tabular.BatchStats{Index: b, Rows: len(rows), Total: sum.Rows, Elapsed: time.Since(start)})
		}
	}
	return sum, nil
}

// StayDays draws a length of stay in [lo, hi] for inpatient encounters and
// returns 0 for every other type.
func StayDays(src *synth.Source, typ EncounterType, lo, hi int) int {
	if !typ.Inpatient {
		return 0
	}
	return src.IntBetween(lo, hi)
}

// InsurerMultiplier is 1.0 for self-pay, 0.5 for the public insurer and a
// uniform draw in [0.7, 0.9) for private insurers.
func InsurerMultiplier(src *synth.Source, ins Insurer) float64 {
	switch ins.Kind {
	case InsurerSelfPay:
		return 1.0
	case InsurerPublic:
		return 0.5
	default:
		return src.Uniform(0.7, 0.9)
	}
}

// BilledAmount draws a base charge in [lo, hi) and applies the insurer
// multiplier, rounded to cents.
func BilledAmount(src *synth.Source, ins Insurer, lo, hi float64) decimal.Decimal {
	base := src.Uniform(lo, hi)
	factor := InsurerMultiplier(src, ins)
	return decimal.NewFromFloat(base * factor).Round(2)
}
