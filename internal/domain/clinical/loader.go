package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/vidaplena/analytics/internal/platform/tabular"
)

// Table is the column-oriented, typed form of an encounters file. The
// low-cardinality columns are dictionary encoded.
type Table struct {
	EncounterID      []int64
	PatientID        []int64
	PatientName      []string
	PatientBirthDate []time.Time
	At               []time.Time
	Type             *tabular.Category
	Department       *tabular.Category
	StayDays         []int
	Insurer          *tabular.Category
	Billed           []float64
	PaymentStatus    *tabular.Category

	// Skipped counts malformed rows left out of the table.
	Skipped int
}

func newTable(capacity int) *Table {
	return &Table{
		EncounterID:      make([]int64, 0, capacity),
		PatientID:        make([]int64, 0, capacity),
		PatientName:      make([]string, 0, capacity),
		PatientBirthDate: make([]time.Time, 0, capacity),
		At:               make([]time.Time, 0, capacity),
		Type:             tabular.NewCategory(capacity),
		Department:       tabular.NewCategory(capacity),
		StayDays:         make([]int, 0, capacity),
		Insurer:          tabular.NewCategory(capacity),
		Billed:           make([]float64, 0, capacity),
		PaymentStatus:    tabular.NewCategory(capacity),
	}
}

// Len returns the number of loaded rows.
func (t *Table) Len() int { return len(t.EncounterID) }

func (t *Table) append(e Encounter) {
	t.EncounterID = append(t.EncounterID, e.ID)
	t.PatientID = append(t.PatientID, e.Patient.ID)
	t.PatientName = append(t.PatientName, e.Patient.Name)
	t.PatientBirthDate = append(t.PatientBirthDate, e.Patient.BirthDate)
	t.At = append(t.At, e.At)
	t.Type.Append(e.Type)
	t.Department.Append(e.Department)
	t.StayDays = append(t.StayDays, e.StayDays)
	t.Insurer.Append(e.Insurer)
	t.Billed = append(t.Billed, e.Billed.InexactFloat64())
	t.PaymentStatus.Append(e.PaymentStatus)
}

// Load reads an encounters file. A missing file returns a nil table and an
// error wrapping tabular.ErrNotFound. Malformed rows are skipped, counted in
// Table.Skipped and logged through the context logger.
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

// ParseRecord decodes one encounters row.
func ParseRecord(rec tabular.Record) (Encounter, error) {
	var (
		e   Encounter
		err error
	)
	if e.ID, err = tabular.ParseInt(rec.Get(ColEncounterID)); err != nil {
		return e, fmt.Errorf("%s: %w", ColEncounterID, err)
	}
	if e.Patient.ID, err = tabular.ParseInt(rec.Get(ColPatientID)); err != nil {
		return e, fmt.Errorf("%s: %w", ColPatientID, err)
	}
	e.Patient.Name = rec.Get(ColPatientName)
	if e.Patient.BirthDate, err = tabular.ParseTime(rec.Get(ColPatientBirthDate)); err != nil {
		return e, fmt.Errorf("%s: %w", ColPatientBirthDate, err)
	}
	if e.At, err = tabular.ParseTime(rec.Get(ColEncounterAt)); err != nil {
		return e, fmt.Errorf("%s: %w", ColEncounterAt, err)
	}
	e.Type = rec.Get(ColEncounterType)
	e.Department = rec.Get(ColDepartment)
	stay, err := tabular.ParseInt(rec.Get(ColStayDays))
	if err != nil {
		return e, fmt.Errorf("%s: %w", ColStayDays, err)
	}
	e.StayDays = int(stay)
	e.Insurer = rec.Get(ColInsurer)
	if e.Billed, err = tabular.ParseDecimal(rec.Get(ColBilled)); err != nil {
		return e, fmt.Errorf("%s: %w", ColBilled, err)
	}
	e.PaymentStatus = rec.Get(ColPaymentStatus)
	return e, nil
}
