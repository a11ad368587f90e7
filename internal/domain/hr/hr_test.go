package hr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vidaplena/analytics/internal/platform/synth"
	"github.com/vidaplena/analytics/internal/platform/tabular"
)

func employees(t *testing.T, n int, seed int64) []Employee {
	t.Helper()
	g, err := NewGenerator(DefaultDimensions(), Options{Employees: n}, synth.New(seed))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g.Employees()
}

func TestEmployees_Invariants(t *testing.T) {
	d := DefaultDimensions()
	exits := 0
	for _, e := range employees(t, 20_000, 8) {
		if e.Active() != (e.ExitReason == "") {
			t.Fatalf("employee %d: termination %v with reason %q", e.ID, e.TerminatedAt, e.ExitReason)
		}
		if e.Performance < MinScore || e.Performance > MaxScore {
			t.Fatalf("employee %d: performance %d", e.ID, e.Performance)
		}
		if e.Satisfaction < MinScore || e.Satisfaction > MaxScore {
			t.Fatalf("employee %d: satisfaction %d", e.ID, e.Satisfaction)
		}
		if e.Promoted && (e.Performance < 4 || e.TenureYears <= 1.5) {
			t.Fatalf("employee %d: promoted with performance %d, tenure %.2f", e.ID, e.Performance, e.TenureYears)
		}
		if e.Age < 18 || e.Age > 65 {
			t.Fatalf("employee %d: age %d", e.ID, e.Age)
		}
		if e.HiredAt.Before(d.HireStart) || e.HiredAt.After(d.Reference) {
			t.Fatalf("employee %d: hired %v", e.ID, e.HiredAt)
		}
		if !e.Active() {
			exits++
			if e.TerminatedAt.Before(e.HiredAt) || e.TerminatedAt.After(d.Reference) {
				t.Fatalf("employee %d: terminated %v, hired %v", e.ID, e.TerminatedAt, e.HiredAt)
			}
			if e.ExitReason == "Voluntário - Insatisfação" && e.Satisfaction > 2 {
				t.Fatalf("employee %d: dissatisfied leaver with satisfaction %d", e.ID, e.Satisfaction)
			}
		}
		band := SeniorityFor(d.Bands, e.Title)
		if e.Seniority != band.Level {
			t.Fatalf("employee %d: %s mapped to %s", e.ID, e.Title, e.Seniority)
		}
		salary := e.Salary.InexactFloat64()
		if salary < band.MinSalary || salary > band.MaxSalary {
			t.Fatalf("employee %d: salary %v outside %s band", e.ID, salary, band.Level)
		}
	}
	if exits == 0 {
		t.Error("expected some exits")
	}
}

func TestSeniorityFor(t *testing.T) {
	bands := DefaultDimensions().Bands
	cases := map[string]string{
		"Desenvolvedor Júnior":     "Júnior",
		"Analista Financeiro":      "Júnior",
		"Representante de Vendas":  "Júnior",
		"Desenvolvedor Pleno":      "Pleno",
		"Contabilista":             "Pleno",
		"Coordenador de Operações": "Sénior",
		"Desenvolvedor Sénior":     "Sénior",
		"Gerente de RH":            "Liderança",
		"Arquiteto de Software":    "Liderança",
		"Business Partner":         "Liderança",
	}
	for title, want := range cases {
		if got := SeniorityFor(bands, title).Level; got != want {
			t.Errorf("%s: expected %s, got %s", title, want, got)
		}
	}
}

func TestTurnoverProbability(t *testing.T) {
	if got := TurnoverProbability(0.05, 0.30, 0); got < 0.349 || got > 0.351 {
		t.Errorf("at hire: got %v", got)
	}
	if got := TurnoverProbability(0.05, 0.30, 2); got < 0.149 || got > 0.151 {
		t.Errorf("after 2 years: got %v", got)
	}
}

func TestClampScore(t *testing.T) {
	for in, want := range map[int]int{-1: 1, 0: 1, 3: 3, 5: 5, 6: 5} {
		if got := ClampScore(in); got != want {
			t.Errorf("ClampScore(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTerminationDate_ShortServiceFallsBackToReference(t *testing.T) {
	ref := DefaultReference
	hired := ref.AddDate(0, 0, -30)
	if got := TerminationDate(synth.New(1), hired, ref, 180); !got.Equal(ref) {
		t.Errorf("expected %v, got %v", ref, got)
	}
	hired = ref.AddDate(-2, 0, 0)
	got := TerminationDate(synth.New(1), hired, ref, 180)
	if got.Before(hired.AddDate(0, 0, 180)) || got.After(ref) {
		t.Errorf("termination %v outside window", got)
	}
}

func TestTenureYears(t *testing.T) {
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 731)
	if got := TenureYears(from, to); got < 2.0 || got > 2.002 {
		t.Errorf("got %v", got)
	}
	if got := TenureYears(to, from); got != 0 {
		t.Errorf("negative span: got %v", got)
	}
}

func TestNewGenerator_ReferenceOverride(t *testing.T) {
	ref := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	g, err := NewGenerator(DefaultDimensions(), Options{Employees: 200, Reference: ref}, synth.New(4))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range g.Employees() {
		if e.HiredAt.After(ref) {
			t.Fatalf("employee %d hired after reference", e.ID)
		}
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	w, err := tabular.OpenAppend(path, Columns)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	g, err := NewGenerator(DefaultDimensions(), Options{Employees: 300}, synth.New(12))
	if err != nil {
		t.Fatal(err)
	}
	sum, err := g.Generate(context.Background(), w, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Close()

	tbl, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 300 || tbl.Skipped != 0 {
		t.Fatalf("expected 300 rows, got %d (%d skipped)", tbl.Len(), tbl.Skipped)
	}
	exits := 0
	for i := 0; i < tbl.Len(); i++ {
		if tbl.Terminated(i) {
			exits++
		}
	}
	if exits != sum.Exits {
		t.Errorf("expected %d exits, got %d", sum.Exits, exits)
	}
}

func TestLoad_PromotionInvariantHoldsOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	w, err := tabular.OpenAppend(path, Columns)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	d := DefaultDimensions()
	g, err := NewGenerator(d, Options{Employees: 50_000}, synth.New(99))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(context.Background(), w, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	promoted := 0
	for i := 0; i < tbl.Len(); i++ {
		if tbl.Promoted.Value(i) != PromotedYes {
			continue
		}
		promoted++
		if tbl.Performance[i] < d.PromotionMinScore || tbl.TenureYears[i] <= d.PromotionMinTenure {
			t.Fatalf("employee %d: promoted with performance %d, stored tenure %v",
				tbl.EmployeeID[i], tbl.Performance[i], tbl.TenureYears[i])
		}
	}
	if promoted == 0 {
		t.Error("expected some promotions")
	}
}

func TestRoundTenure_BoundaryIsNotEligible(t *testing.T) {
	d := DefaultDimensions()
	d.PromotionRate = 1
	tenure := RoundTenure(1.5003)
	if tenure != 1.5 {
		t.Fatalf("expected 1.5, got %v", tenure)
	}
	if Promoted(synth.New(1), 5, tenure, d) {
		t.Error("tenure rounding to the threshold must not be eligible")
	}
	if !Promoted(synth.New(1), 5, RoundTenure(1.506), d) {
		t.Error("expected tenure 1.51 to be eligible at rate 1")
	}
}

func TestLoad_RejectsInconsistentExit(t *testing.T) {
	header := strings.Join(Columns, ";")
	content := header + "\n" +
		"1000;Ana;30;Feminino;Vendas;Gerente de Contas;Liderança;2021-03-01;;;15000,00;4;5;10;Não;4,43\n" +
		"1001;Bia;40;Feminino;Vendas;Gerente de Contas;Liderança;2021-03-01;2023-01-01;;15000,00;4;5;10;Não;1,84\n" +
		"1002;Caio;41;Masculino;Vendas;Gerente de Contas;Liderança;2021-03-01;;;15000,00;9;5;10;Não;4,43\n"
	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 1 || tbl.Skipped != 2 {
		t.Fatalf("expected 1 row and 2 skipped, got %d and %d", tbl.Len(), tbl.Skipped)
	}
	if tbl.TenureYears[0] < 4.429 || tbl.TenureYears[0] > 4.431 {
		t.Errorf("expected tenure 4.43, got %v", tbl.TenureYears[0])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	tbl, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if tbl != nil || !errors.Is(err, tabular.ErrNotFound) {
		t.Fatalf("expected nil table and ErrNotFound, got %v, %v", tbl, err)
	}
}
