package clinical

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vidaplena/analytics/internal/platform/synth"
	"github.com/vidaplena/analytics/internal/platform/tabular"
)

type memorySink struct {
	batches [][][]string
	failAt  int
}

func (m *memorySink) WriteBatch(rows [][]string) error {
	if m.failAt > 0 && len(m.batches)+1 == m.failAt {
		return errors.New("disk full")
	}
	cp := make([][]string, len(rows))
	copy(cp, rows)
	m.batches = append(m.batches, cp)
	return nil
}

func newTestGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	g, err := NewGenerator(DefaultDimensions(), opts, synth.New(42))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestNewGenerator_RejectsUnevenBatches(t *testing.T) {
	cases := []Options{
		{Rows: 10, BatchSize: 3, Patients: 5},
		{Rows: 10, BatchSize: 0, Patients: 5},
		{Rows: 0, BatchSize: 5, Patients: 5},
	}
	for _, opts := range cases {
		_, err := NewGenerator(DefaultDimensions(), opts, synth.New(1))
		if !errors.Is(err, ErrBatchSize) {
			t.Errorf("opts %+v: expected ErrBatchSize, got %v", opts, err)
		}
	}
}

func TestNewGenerator_RejectsEmptyPool(t *testing.T) {
	_, err := NewGenerator(DefaultDimensions(), Options{Rows: 10, BatchSize: 5}, synth.New(1))
	if err == nil {
		t.Fatal("expected error for empty patient pool")
	}
}

func TestBatch_IDsContiguousAcrossBatches(t *testing.T) {
	g := newTestGenerator(t, Options{Rows: 30, BatchSize: 10, Patients: 4})
	var next int64
	for b := 0; b < g.NumBatches(); b++ {
		for _, e := range g.Batch(b) {
			if e.ID != next {
				t.Fatalf("expected id %d, got %d", next, e.ID)
			}
			next++
		}
	}
}

func TestBatch_EncounterInvariants(t *testing.T) {
	dims := DefaultDimensions()
	g := newTestGenerator(t, Options{Rows: 5000, BatchSize: 5000, Patients: 50})
	pool := g.GeneratePatients()

	byID := make(map[int64]Patient, len(pool))
	for _, p := range pool {
		byID[p.ID] = p
	}

	for _, e := range g.Batch(0) {
		if e.Type == TypeInpatient {
			if e.StayDays < dims.MinStayDays || e.StayDays > dims.MaxStayDays {
				t.Errorf("encounter %d: inpatient stay %d out of range", e.ID, e.StayDays)
			}
		} else if e.StayDays != 0 {
			t.Errorf("encounter %d: %s with stay %d", e.ID, e.Type, e.StayDays)
		}
		if e.At.Before(dims.Start) || e.At.After(dims.End) {
			t.Errorf("encounter %d: timestamp %v out of range", e.ID, e.At)
		}
		if !e.Billed.IsPositive() || e.Billed.InexactFloat64() > dims.MaxCharge {
			t.Errorf("encounter %d: billed %s out of range", e.ID, e.Billed)
		}
		p, ok := byID[e.Patient.ID]
		if !ok {
			t.Fatalf("encounter %d: patient %d not in pool", e.ID, e.Patient.ID)
		}
		if p.Name != e.Patient.Name || !p.BirthDate.Equal(e.Patient.BirthDate) {
			t.Errorf("encounter %d: patient attributes differ from pool", e.ID)
		}
	}
}

func TestInsurerMultiplier(t *testing.T) {
	src := synth.New(7)
	if got := InsurerMultiplier(src, Insurer{Name: "Particular", Kind: InsurerSelfPay}); got != 1.0 {
		t.Errorf("self pay: got %v", got)
	}
	if got := InsurerMultiplier(src, Insurer{Name: "SUS", Kind: InsurerPublic}); got != 0.5 {
		t.Errorf("public: got %v", got)
	}
	for i := 0; i < 1000; i++ {
		got := InsurerMultiplier(src, Insurer{Name: "Amil", Kind: InsurerPrivate})
		if got < 0.7 || got >= 0.9 {
			t.Fatalf("private: %v outside [0.7, 0.9)", got)
		}
	}
}

func TestGenerate_StopsOnSinkError(t *testing.T) {
	g := newTestGenerator(t, Options{Rows: 40, BatchSize: 10, Patients: 3})
	sink := &memorySink{failAt: 3}
	sum, err := g.Generate(context.Background(), sink, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if sum.Batches != 2 || len(sink.batches) != 2 {
		t.Errorf("expected 2 persisted batches, got %d (sink %d)", sum.Batches, len(sink.batches))
	}
}

func TestGenerate_ReportsProgress(t *testing.T) {
	g := newTestGenerator(t, Options{Rows: 20, BatchSize: 5, Patients: 3})
	var seen []tabular.BatchStats
	sum, err := g.Generate(context.Background(), &memorySink{}, func(s tabular.BatchStats) {
		seen = append(seen, s)
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sum.Rows != 20 || sum.Batches != 4 || sum.Patients != 3 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if len(seen) != 4 || seen[3].Total != 20 {
		t.Errorf("unexpected progress %+v", seen)
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	g := newTestGenerator(t, Options{Rows: 20, BatchSize: 5, Patients: 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, &memorySink{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGenerate_FullSizeFile(t *testing.T) {
	if testing.Short() {
		t.Skip("writes 500k rows")
	}
	path := filepath.Join(t.TempDir(), "encounters.csv")
	w, err := tabular.OpenAppend(path, Columns)
	if err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	defer w.Close()

	g := newTestGenerator(t, Options{Rows: 500_000, BatchSize: 100_000, Patients: 100_000})
	sum, err := g.Generate(context.Background(), w, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sum.Batches != 5 {
		t.Errorf("expected 5 batches, got %d", sum.Batches)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	lines, headers := 0, 0
	var first string
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), ColEncounterID+";") {
			headers++
		} else if first == "" {
			first = sc.Text()
		}
		lines++
	}
	if headers != 1 || lines != 500_001 {
		t.Errorf("expected 1 header and 500001 lines, got %d headers, %d lines", headers, lines)
	}
	if !strings.HasPrefix(first, "0;") {
		t.Errorf("first data row should start with id 0, got %q", first)
	}
}
