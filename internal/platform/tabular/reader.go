package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

var (
	// ErrNotFound means the dataset file does not exist on disk.
	ErrNotFound = errors.New("dataset file not found")
	// ErrMissingColumn means the header lacks a column the caller requires.
	ErrMissingColumn = errors.New("required column missing")
)

// RowError describes a data row that could not be read or parsed. Loaders
// skip such rows and count them rather than aborting the whole load.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Record is one data row addressed by column name.
type Record struct {
	Line   int
	fields []string
	index  map[string]int
}

// Get returns the named field, or "" when the column is absent.
func (r Record) Get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// Reader iterates over the data rows of a delimited file.
type Reader struct {
	path   string
	file   *os.File
	csv    *csv.Reader
	header []string
	index  map[string]int
	line   int
}

// Open opens path and reads its header. A missing file yields an error that
// wraps ErrNotFound; a header lacking any of the required columns yields one
// wrapping ErrMissingColumn.
func Open(path string, required []string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cr := csv.NewReader(f)
	cr.Comma = Separator
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header of %s: empty file", path)
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		f.Close()
		return nil, fmt.Errorf("%w in %s: %s", ErrMissingColumn, path, strings.Join(missing, ", "))
	}

	return &Reader{
		path:   path,
		file:   f,
		csv:    cr,
		header: header,
		index:  index,
		line:   1,
	}, nil
}

// Header returns the column names in file order.
func (r *Reader) Header() []string {
	return append([]string(nil), r.header...)
}

// Next returns the next data row. It returns io.EOF after the last row and a
// *RowError for a row that is malformed at the delimiter level; reading may
// continue after a *RowError.
func (r *Reader) Next() (Record, error) {
	fields, err := r.csv.Read()
	r.line++
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return Record{}, &RowError{Line: perr.Line, Err: perr.Err}
		}
		return Record{}, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(fields) != len(r.header) {
		return Record{}, &RowError{
			Line: r.line,
			Err:  fmt.Errorf("expected %d fields, got %d", len(r.header), len(fields)),
		}
	}
	return Record{Line: r.line, fields: fields, index: r.index}, nil
}

func (r *Reader) Close() error {
	return r.file.Close()
}
