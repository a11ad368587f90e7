package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrWriterClosed is returned by WriteBatch after Close.
var ErrWriterClosed = errors.New("tabular: writer is closed")

// Writer appends batches of rows to one file. The header is written with the
// first batch only when the file was empty at open time, and every batch is
// flushed and synced before WriteBatch returns, so memory held by the caller
// never exceeds one batch. A Writer is acquired once per run; Close is safe to
// call more than once and should be deferred right after OpenAppend.
type Writer struct {
	path       string
	file       *os.File
	buf        *bufio.Writer
	csv        *csv.Writer
	header     []string
	headerDone bool
	rows       int
	batches    int
	closed     bool
}

// OpenAppend opens path in append mode, creating it if needed.
func OpenAppend(path string, header []string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	buf := bufio.NewWriterSize(f, 1<<20)
	cw := csv.NewWriter(buf)
	cw.Comma = Separator

	return &Writer{
		path:       path,
		file:       f,
		buf:        buf,
		csv:        cw,
		header:     header,
		headerDone: info.Size() > 0,
	}, nil
}

// WriteBatch writes rows, preceded by the header on the first batch of an
// empty file, and flushes them to durable storage.
func (w *Writer) WriteBatch(rows [][]string) error {
	if w.closed {
		return ErrWriterClosed
	}
	if !w.headerDone {
		if err := w.csv.Write(w.header); err != nil {
			return fmt.Errorf("write header to %s: %w", w.path, err)
		}
		w.headerDone = true
	}
	for _, row := range rows {
		if len(row) != len(w.header) {
			return fmt.Errorf("write %s: row has %d fields, header has %d", w.path, len(row), len(w.header))
		}
		if err := w.csv.Write(row); err != nil {
			return fmt.Errorf("write row to %s: %w", w.path, err)
		}
	}
	if err := w.flush(); err != nil {
		return err
	}
	w.rows += len(rows)
	w.batches++
	return nil
}

func (w *Writer) flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	return nil
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int { return w.rows }

// Batches returns the number of batches written so far.
func (w *Writer) Batches() int { return w.batches }

// Path returns the file being written.
func (w *Writer) Path() string { return w.path }

// Close flushes pending output and releases the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.csv.Flush()
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("close %s: %w", w.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", w.path, closeErr)
	}
	return nil
}

// BatchSink receives encoded batches. *Writer implements it.
type BatchSink interface {
	WriteBatch(rows [][]string) error
}

// BatchStats describes one batch after it reached the sink.
type BatchStats struct {
	Index   int
	Rows    int
	Total   int
	Elapsed time.Duration
}

// ProgressFunc is called after every flushed batch. It may be nil.
type ProgressFunc func(BatchStats)
