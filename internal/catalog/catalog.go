// Package catalog holds the dimension lists every generator samples from. The
// defaults are compiled in; an optional YAML file overrides any subset.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vidaplena/analytics/internal/domain/clinical"
	"github.com/vidaplena/analytics/internal/domain/hr"
	"github.com/vidaplena/analytics/internal/domain/supply"
)

// Catalog groups the per-domain dimensions.
type Catalog struct {
	Clinical clinical.Dimensions `yaml:"clinical"`
	Supply   supply.Dimensions   `yaml:"supply"`
	HR       hr.Dimensions       `yaml:"hr"`
}

// Default returns the compiled-in catalog.
func Default() Catalog {
	return Catalog{
		Clinical: clinical.DefaultDimensions(),
		Supply:   supply.DefaultDimensions(),
		HR:       hr.DefaultDimensions(),
	}
}

// Load overlays the YAML file at path on the defaults. Keys absent from the
// file keep their default; lists present in the file replace the default list
// as a whole. An empty path returns the defaults.
func Load(path string) (Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Catalog{}, fmt.Errorf("catalog file %s not found", path)
		}
		return Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Validate checks every domain.
func (c Catalog) Validate() error {
	return errors.Join(c.Clinical.Validate(), c.Supply.Validate(), c.HR.Validate())
}

// Dump writes c as YAML.
func Dump(w io.Writer, c Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return enc.Close()
}
