package tabular

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestWriter_HeaderOnlyOnFirstBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := OpenAppend(path, []string{"id", "valor"})
	if err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	defer w.Close()

	if err := w.WriteBatch([][]string{{"0", "1,50"}, {"1", "2,00"}}); err != nil {
		t.Fatalf("batch 1: %v", err)
	}
	if err := w.WriteBatch([][]string{{"2", "3,25"}}); err != nil {
		t.Fatalf("batch 2: %v", err)
	}

	lines := readLines(t, path)
	want := []string{"id;valor", "0;1,50", "1;2,00", "2;3,25"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if w.Rows() != 3 || w.Batches() != 2 {
		t.Errorf("expected 3 rows in 2 batches, got %d rows in %d batches", w.Rows(), w.Batches())
	}
}

func TestWriter_AppendToNonEmptyFileSkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("id\n0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := OpenAppend(path, []string{"id"})
	if err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	if err := w.WriteBatch([][]string{{"1"}}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	lines := readLines(t, path)
	if len(lines) != 3 || lines[2] != "1" {
		t.Errorf("unexpected content: %q", lines)
	}
}

func TestWriter_RejectsWrongWidth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := OpenAppend(path, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.WriteBatch([][]string{{"only-one"}}); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := OpenAppend(path, []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.WriteBatch([][]string{{"x"}}); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "absent.csv"), nil)
	if r != nil {
		t.Fatal("expected nil reader for missing file")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpen_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte("a;b\n1;2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, []string{"a", "c"})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReader_RowsAndRowErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "\ufeffid;nome\n1;Ana\n2\n3;Bruno\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Open(path, []string{"id", "nome"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var names []string
	var rowErrs int
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			rowErrs++
			if rowErr.Line != 3 {
				t.Errorf("expected row error on line 3, got %d", rowErr.Line)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		names = append(names, rec.Get("nome"))
	}
	if rowErrs != 1 {
		t.Errorf("expected 1 row error, got %d", rowErrs)
	}
	if strings.Join(names, ",") != "Ana,Bruno" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.5", "1234,50"},
		{"0.005", "0,01"},
		{"150", "150,00"},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := FormatMoney(d.Round(2)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	if got := FormatFloat(3.14159, 2); got != "3,14" {
		t.Errorf("FormatFloat = %q, want 3,14", got)
	}
	if got := FormatFloat(2.5, 2); got != "2,5" {
		t.Errorf("FormatFloat = %q, want 2,5", got)
	}
}

func TestParseDecimal_BothSeparators(t *testing.T) {
	for _, in := range []string{"1234,56", "1234.56"} {
		f, err := ParseFloat(in)
		if err != nil {
			t.Fatalf("ParseFloat(%q): %v", in, err)
		}
		if f != 1234.56 {
			t.Errorf("ParseFloat(%q) = %v", in, f)
		}
	}
	if _, err := ParseDecimal(""); err == nil {
		t.Error("expected error for empty field")
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Error("expected error for non-numeric field")
	}
}

func TestParseTime_Layouts(t *testing.T) {
	want := time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)
	got, err := ParseTime(FormatTimestamp(want))
	if err != nil || !got.Equal(want) {
		t.Fatalf("timestamp round trip: %v, %v", got, err)
	}
	d, err := ParseTime("2024-03-07")
	if err != nil || d.Day() != 7 {
		t.Fatalf("date: %v, %v", d, err)
	}
	if _, err := ParseTime("07/03/2024"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

func TestParseOptionalTime_Empty(t *testing.T) {
	got, err := ParseOptionalTime("")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
	if FormatOptionalDate(nil) != "" || FormatOptionalTimestamp(nil) != "" {
		t.Error("expected empty field for nil time")
	}
}

func TestCategory(t *testing.T) {
	c := CategoryOf("SUS", "Amil", "SUS", "Particular", "SUS")
	if c.Len() != 5 || c.NumLevels() != 3 {
		t.Fatalf("expected 5 rows and 3 levels, got %d/%d", c.Len(), c.NumLevels())
	}
	if c.Value(2) != "SUS" || c.Code(0) != c.Code(4) {
		t.Error("expected repeated values to share a code")
	}
	code, ok := c.LevelCode("Amil")
	if !ok || c.Level(code) != "Amil" {
		t.Error("LevelCode lookup failed")
	}
	if _, ok := c.LevelCode("Unimed"); ok {
		t.Error("expected unknown level to be absent")
	}
	counts := c.Counts()
	sus, _ := c.LevelCode("SUS")
	if counts[sus] != 3 {
		t.Errorf("expected 3 SUS rows, got %d", counts[sus])
	}
}
