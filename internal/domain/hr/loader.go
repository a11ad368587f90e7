package hr

import (
	"context"
	"fmt"
	"time"

	"github.com/vidaplena/analytics/internal/platform/tabular"
)

// Table is the column-oriented form of an employees file.
type Table struct {
	EmployeeID []int64
	Name       []string
	Age        []int
	Gender     *tabular.Category
	Department *tabular.Category
	Title      *tabular.Category
	Seniority  *tabular.Category
	HiredAt    []time.Time
	// TerminatedAt holds the zero time for active employees.
	TerminatedAt []time.Time
	// ExitReason holds "" for active employees.
	ExitReason   *tabular.Category
	Salary       []float64
	Performance  []int
	Satisfaction []int
	Overtime     []int
	Promoted     *tabular.Category
	TenureYears  []float64

	Skipped int
}

func newTable(capacity int) *Table {
	return &Table{
		EmployeeID:   make([]int64, 0, capacity),
		Name:         make([]string, 0, capacity),
		Age:          make([]int, 0, capacity),
		Gender:       tabular.NewCategory(capacity),
		Department:   tabular.NewCategory(capacity),
		Title:        tabular.NewCategory(capacity),
		Seniority:    tabular.NewCategory(capacity),
		HiredAt:      make([]time.Time, 0, capacity),
		TerminatedAt: make([]time.Time, 0, capacity),
		ExitReason:   tabular.NewCategory(capacity),
		Salary:       make([]float64, 0, capacity),
		Performance:  make([]int, 0, capacity),
		Satisfaction: make([]int, 0, capacity),
		Overtime:     make([]int, 0, capacity),
		Promoted:     tabular.NewCategory(capacity),
		TenureYears:  make([]float64, 0, capacity),
	}
}

func (t *Table) Len() int { return len(t.EmployeeID) }

// Terminated reports whether row i has a termination date.
func (t *Table) Terminated(i int) bool { return !t.TerminatedAt[i].IsZero() }

func (t *Table) append(e Employee) {
	t.EmployeeID = append(t.EmployeeID, e.ID)
	t.Name = append(t.Name, e.Name)
	t.Age = append(t.Age, e.Age)
	t.Gender.Append(e.Gender)
	t.Department.Append(e.Department)
	t.Title.Append(e.Title)
	t.Seniority.Append(e.Seniority)
	t.HiredAt = append(t.HiredAt, e.HiredAt)
	var end time.Time
	if e.TerminatedAt != nil {
		end = *e.TerminatedAt
	}
	t.TerminatedAt = append(t.TerminatedAt, end)
	t.ExitReason.Append(e.ExitReason)
	t.Salary = append(t.Salary, e.Salary.InexactFloat64())
	t.Performance = append(t.Performance, e.Performance)
	t.Satisfaction = append(t.Satisfaction, e.Satisfaction)
	t.Overtime = append(t.Overtime, e.Overtime)
	t.Promoted.Append(FormatPromoted(e.Promoted))
	t.TenureYears = append(t.TenureYears, e.TenureYears)
}

// Load reads an employees file. A missing file returns a nil table and an
// error wrapping tabular.ErrNotFound.
func Load(ctx context.Context, path string) (*Table, error) {
	t := newTable(1024)
	skipped, err := tabular.Scan(ctx, path, Columns, func(rec tabular.Record) error {
		e, err := ParseRecord(rec)
		if err != nil {
			return err
		}
		t.append(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.Skipped = skipped
	return t, nil
}

// ParseRecord decodes one employees row. A row whose termination date and
// exit reason disagree is rejected.
func ParseRecord(rec tabular.Record) (Employee, error) {
	var (
		e   Employee
		err error
		n   int64
	)
	if e.ID, err = tabular.ParseInt(rec.Get(ColEmployeeID)); err != nil {
		return e, fmt.Errorf("%s: %w", ColEmployeeID, err)
	}
	e.Name = rec.Get(ColName)
	if n, err = tabular.ParseInt(rec.Get(ColAge)); err != nil {
		return e, fmt.Errorf("%s: %w", ColAge, err)
	}
	e.Age = int(n)
	e.Gender = rec.Get(ColGender)
	e.Department = rec.Get(ColDepartment)
	e.Title = rec.Get(ColTitle)
	e.Seniority = rec.Get(ColSeniority)
	if e.HiredAt, err = tabular.ParseTime(rec.Get(ColHiredAt)); err != nil {
		return e, fmt.Errorf("%s: %w", ColHiredAt, err)
	}
	if e.TerminatedAt, err = tabular.ParseOptionalTime(rec.Get(ColTerminatedAt)); err != nil {
		return e, fmt.Errorf("%s: %w", ColTerminatedAt, err)
	}
	e.ExitReason = rec.Get(ColExitReason)
	if (e.TerminatedAt == nil) != (e.ExitReason == "") {
		return e, fmt.Errorf("%s and %s must both be set or both be empty", ColTerminatedAt, ColExitReason)
	}
	if e.Salary, err = tabular.ParseDecimal(rec.Get(ColSalary)); err != nil {
		return e, fmt.Errorf("%s: %w", ColSalary, err)
	}
	if e.Performance, err = parseScore(rec.Get(ColPerformance)); err != nil {
		return e, fmt.Errorf("%s: %w", ColPerformance, err)
	}
	if e.Satisfaction, err = parseScore(rec.Get(ColSatisfaction)); err != nil {
		return e, fmt.Errorf("%s: %w", ColSatisfaction, err)
	}
	if n, err = tabular.ParseInt(rec.Get(ColOvertime)); err != nil {
		return e, fmt.Errorf("%s: %w", ColOvertime, err)
	}
	e.Overtime = int(n)
	if e.Promoted, err = ParsePromoted(rec.Get(ColPromoted)); err != nil {
		return e, fmt.Errorf("%s: %w", ColPromoted, err)
	}
	if e.TenureYears, err = tabular.ParseFloat(rec.Get(ColTenure)); err != nil {
		return e, fmt.Errorf("%s: %w", ColTenure, err)
	}
	return e, nil
}

func parseScore(s string) (int, error) {
	n, err := tabular.ParseInt(s)
	if err != nil {
		return 0, err
	}
	if n < MinScore || n > MaxScore {
		return 0, fmt.Errorf("score %d outside [%d, %d]", n, MinScore, MaxScore)
	}
	return int(n), nil
}
