package tabular

// Category is a dictionary-encoded string column: each distinct value is
// stored once and rows hold a small integer code. Grouping by a Category is
// a slice index instead of a map lookup per row.
type Category struct {
	levels []string
	lookup map[string]int32
	codes  []int32
}

// NewCategory returns an empty column with room for capacity rows.
func NewCategory(capacity int) *Category {
	return &Category{
		lookup: make(map[string]int32),
		codes:  make([]int32, 0, capacity),
	}
}

// CategoryOf builds a column from values.
func CategoryOf(values ...string) *Category {
	c := NewCategory(len(values))
	for _, v := range values {
		c.Append(v)
	}
	return c
}

func (c *Category) Append(v string) {
	code, ok := c.lookup[v]
	if !ok {
		code = int32(len(c.levels))
		c.levels = append(c.levels, v)
		c.lookup[v] = code
	}
	c.codes = append(c.codes, code)
}

func (c *Category) Len() int { return len(c.codes) }

// Code returns the level code of row i.
func (c *Category) Code(i int) int { return int(c.codes[i]) }

// Value returns the string value of row i.
func (c *Category) Value(i int) string { return c.levels[c.codes[i]] }

// Level returns the string for a level code.
func (c *Category) Level(code int) string { return c.levels[code] }

// NumLevels returns the number of distinct values.
func (c *Category) NumLevels() int { return len(c.levels) }

// Levels returns the distinct values in first-seen order.
func (c *Category) Levels() []string {
	return append([]string(nil), c.levels...)
}

// LevelCode returns the code for v, if v occurs in the column.
func (c *Category) LevelCode(v string) (int, bool) {
	code, ok := c.lookup[v]
	return int(code), ok
}

// Counts returns the number of rows per level code.
func (c *Category) Counts() []int {
	counts := make([]int, len(c.levels))
	for _, code := range c.codes {
		counts[code]++
	}
	return counts
}
