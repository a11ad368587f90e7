package tabular

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
)

// Scan opens path and calls fn for every data row. Rows that are malformed at
// the delimiter level, or for which fn returns an error, are skipped and
// logged at warn level through the context logger; the number of skipped rows
// is returned. Errors from Open and I/O errors abort the scan.
func Scan(ctx context.Context, path string, required []string, fn func(Record) error) (skipped int, err error) {
	r, err := Open(path, required)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	log := zerolog.Ctx(ctx)
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return skipped, err
			}
		}
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err == nil {
			ferr := fn(rec)
			if ferr == nil {
				continue
			}
			err = &RowError{Line: rec.Line, Err: ferr}
		}
		var rowErr *RowError
		if !errors.As(err, &rowErr) {
			return skipped, err
		}
		skipped++
		log.Warn().Str("file", path).Int("line", rowErr.Line).Err(rowErr.Err).Msg("skipping malformed row")
	}
}
