package hr

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidaplena/analytics/internal/platform/synth"
	"github.com/vidaplena/analytics/internal/platform/tabular"
)

type Options struct {
	Employees int
	// Reference overrides Dimensions.Reference when set.
	Reference time.Time
}

type Summary struct {
	Rows   int
	Exits  int
	Active int
}

// Generator produces employee records in a single pass.
type Generator struct {
	dims Dimensions
	opts Options
	src  *synth.Source
}

func NewGenerator(dims Dimensions, opts Options, src *synth.Source) (*Generator, error) {
	if !opts.Reference.IsZero() {
		dims.Reference = opts.Reference
	}
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if opts.Employees <= 0 {
		return nil, fmt.Errorf("hr: employee count must be positive, got %d", opts.Employees)
	}
	return &Generator{dims: dims, opts: opts, src: src}, nil
}

// Employees generates every employee in memory.
func (g *Generator) Employees() []Employee {
	out := make([]Employee, g.opts.Employees)
	for i := range out {
		out[i] = g.employee(int64(EmployeeIDBase + i))
	}
	return out
}

func (g *Generator) employee(id int64) Employee {
	d := g.dims
	e := Employee{
		ID:     id,
		Name:   g.src.Name(),
		Gender: synth.Pick(g.src, d.Genders),
		Age:    g.src.IntBetween(d.MinAge, d.MaxAge),
	}
	dep := synth.Pick(g.src, d.Departments)
	e.Department = dep.Name
	e.Title = synth.Pick(g.src, dep.Titles)
	band := SeniorityFor(d.Bands, e.Title)
	e.Seniority = band.Level
	e.Salary = decimal.NewFromFloat(g.src.Uniform(band.MinSalary, band.MaxSalary)).Round(2)

	e.HiredAt = g.src.DateBetween(d.HireStart, d.Reference)
	risk := TenureYears(e.HiredAt, d.Reference)
	var dissatisfied bool
	if g.src.Float64() < TurnoverProbability(d.BaseTurnover, d.EarlyTurnover, risk) {
		end := TerminationDate(g.src, e.HiredAt, d.Reference, d.MinServiceDays)
		reason := synth.Pick(g.src, d.ExitReasons)
		e.TerminatedAt = &end
		e.ExitReason = reason.Name
		dissatisfied = reason.Dissatisfied
	}

	// Performance follows the drawn satisfaction; the override for
	// dissatisfied leavers comes after and does not feed back.
	e.Satisfaction = g.src.IntBetween(MinScore, MaxScore)
	e.Performance = Performance(g.src, e.Satisfaction, d.PerformanceOffsets)
	if dissatisfied {
		e.Satisfaction = g.src.IntBetween(MinScore, d.MaxDissatisfied)
	}
	until := d.Reference
	if e.TerminatedAt != nil {
		until = *e.TerminatedAt
	}
	e.TenureYears = RoundTenure(TenureYears(e.HiredAt, until))
	e.Overtime = g.src.IntBetween(0, d.MaxOvertime)
	e.Promoted = Promoted(g.src, e.Performance, e.TenureYears, d)
	return e
}

// Generate writes all employees to sink as one batch.
func (g *Generator) Generate(ctx context.Context, sink tabular.BatchSink, progress tabular.ProgressFunc) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	start := time.Now()
	employees := g.Employees()
	rows := make([][]string, len(employees))
	var sum Summary
	for i, e := range employees {
		rows[i] = e.Record()
		if e.Active() {
			sum.Active++
		} else {
			sum.Exits++
		}
	}
	if err := sink.WriteBatch(rows); err != nil {
		return Summary{}, fmt.Errorf("write employees: %w", err)
	}
	sum.Rows = len(rows)
	if progress != nil {
		progress(tabular.BatchStats{Index: 0, Rows: len(rows), Total: len(rows), Elapsed: time.Since(start)})
	}
	return sum, nil
}

// SeniorityFor returns the first band with a keyword contained in title, or
// the last band when none matches.
func SeniorityFor(bands []SeniorityBand, title string) SeniorityBand {
	for _, b := range bands {
		for _, kw := range b.Keywords {
			if strings.Contains(title, kw) {
				return b
			}
		}
	}
	return bands[len(bands)-1]
}

// TenureYears counts whole days between from and to in 365.25-day years.
func TenureYears(from, to time.Time) float64 {
	days := math.Floor(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 365.25
}

// RoundTenure rounds years to the two places written to the file. Promotion
// eligibility is checked on the rounded value.
func RoundTenure(years float64) float64 {
	return math.Round(years*100) / 100
}

// TurnoverProbability decays from base+early at hire towards base.
func TurnoverProbability(base, early, tenure float64) float64 {
	return base + early/(1+tenure)
}

// TerminationDate is uniform over [hired+minDays, reference]. Employees hired
// less than minDays before the reference leave on the reference date.
func TerminationDate(src *synth.Source, hired, reference time.Time, minDays int) time.Time {
	earliest := hired.AddDate(0, 0, minDays)
	if earliest.After(reference) {
		earliest = reference
	}
	return src.DateBetween(earliest, reference)
}

// ClampScore bounds v to [MinScore, MaxScore].
func ClampScore(v int) int {
	return max(MinScore, min(MaxScore, v))
}

// Performance is satisfaction minus a picked offset, clamped.
func Performance(src *synth.Source, satisfaction int, offsets []int) int {
	return ClampScore(satisfaction - synth.Pick(src, offsets))
}

// Promoted draws the promotion flag. Only employees meeting the score and
// tenure thresholds are eligible.
func Promoted(src *synth.Source, performance int, tenure float64, d Dimensions) bool {
	if performance < d.PromotionMinScore || tenure <= d.PromotionMinTenure {
		return false
	}
	return src.Chance(d.PromotionRate)
}
