package supply

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidaplena/analytics/internal/platform/synth"
	"github.com/vidaplena/analytics/internal/platform/tabular"
)

type Options struct {
	Orders int
}

type Summary struct {
	Rows int
}

// Generator produces purchase orders in a single pass.
type Generator struct {
	dims    Dimensions
	opts    Options
	src     *synth.Source
	weights []float64
}

func NewGenerator(dims Dimensions, opts Options, src *synth.Source) (*Generator, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if opts.Orders <= 0 {
		return nil, fmt.Errorf("supply: order count must be positive, got %d", opts.Orders)
	}
	return &Generator{dims: dims, opts: opts, src: src, weights: dims.statusWeights()}, nil
}

// Orders generates every order in memory.
func (g *Generator) Orders() []Order {
	out := make([]Order, g.opts.Orders)
	for i := range out {
		out[i] = g.order(int64(OrderIDBase + i))
	}
	return out
}

func (g *Generator) order(id int64) Order {
	item := synth.Pick(g.src, g.dims.Items)
	supplier := synth.Pick(g.src, g.dims.Suppliers)
	orderedAt := g.src.TimeBetween(g.dims.Start, g.dims.End)
	qty := g.src.IntBetween(g.dims.MinQuantity, g.dims.MaxQuantity)
	unit := UnitCost(g.src, item.BaseCost, g.dims.CostJitter)
	status := g.dims.Statuses[g.src.Weighted(g.weights)]
	expected, delivered := DeliveryDates(g.src, orderedAt, status.Outcome, g.dims)

	return Order{
		ID:          id,
		Item:        item,
		Supplier:    supplier,
		OrderedAt:   orderedAt,
		Quantity:    qty,
		UnitCost:    unit,
		TotalCost:   TotalCost(qty, unit),
		Status:      status.Name,
		ExpectedAt:  expected,
		DeliveredAt: delivered,
	}
}

// Generate writes all orders to sink as one batch.
func (g *Generator) Generate(ctx context.Context, sink tabular.BatchSink, progress tabular.ProgressFunc) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	start := time.Now()
	orders := g.Orders()
	rows := make([][]string, len(orders))
	for i, o := range orders {
		rows[i] = o.Record()
	}
	if err := sink.WriteBatch(rows); err != nil {
		return Summary{}, fmt.Errorf("write orders: %w", err)
	}
	if progress != nil {
		progress(tabular.BatchStats{Index: 0, Rows: len(rows), Total: len(rows), Elapsed: time.Since(start)})
	}
	return Summary{Rows: len(rows)}, nil
}

// UnitCost is base × uniform[1-jitter, 1+jitter], rounded to cents.
func UnitCost(src *synth.Source, base, jitter float64) decimal.Decimal {
	return decimal.NewFromFloat(base * src.Uniform(1-jitter, 1+jitter)).Round(2)
}

// TotalCost is quantity × unit, rounded to cents.
func TotalCost(quantity int, unit decimal.Decimal) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// DeliveryDates derives the expected date from the lead time and the actual
// date from the outcome: up to Early days ahead of schedule when delivered,
// Delay days behind when late, nil when pending.
func DeliveryDates(src *synth.Source, orderedAt time.Time, outcome Outcome, d Dimensions) (time.Time, *time.Time) {
	expected := orderedAt.AddDate(0, 0, src.IntBetween(d.LeadTime.Min, d.LeadTime.Max))
	var actual time.Time
	switch outcome {
	case OutcomeDelivered:
		actual = expected.AddDate(0, 0, -src.IntBetween(d.Early.Min, d.Early.Max))
	case OutcomeLate:
		actual = expected.AddDate(0, 0, src.IntBetween(d.Delay.Min, d.Delay.Max))
	default:
		return expected, nil
	}
	return expected, &actual
}
