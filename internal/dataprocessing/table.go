package dataprocessing

import (
	"fmt"

	"gwcatalog/internal/errors"
)

// SampleTable is an ordered set of equal-length named columns. Row i of every
// column belongs to the same posterior draw.
type SampleTable struct {
	names   []string
	columns map[string][]float64
	rows    int
}

// NewSampleTable creates an empty table.
func NewSampleTable() *SampleTable {
	return &SampleTable{
		columns: make(map[string][]float64),
		rows:    -1,
	}
}

// AddColumn appends a copy of values under name. The first column fixes the
// row count; later columns must match it.
func (t *SampleTable) AddColumn(name string, values []float64) error {
	if name == "" {
		return fmt.Errorf("column name cannot be empty")
	}
	if _, exists := t.columns[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	if t.rows >= 0 && len(values) != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d", name, len(values), t.rows)
	}

	copied := make([]float64, len(values))
	copy(copied, values)

	t.columns[name] = copied
	t.names = append(t.names, name)
	t.rows = len(values)
	return nil
}

// Column returns the column stored under name. The slice is shared with the
// table and must not be modified.
func (t *SampleTable) Column(name string) ([]float64, bool) {
	values, ok := t.columns[name]
	return values, ok
}

// Has reports whether the table has a column called name.
func (t *SampleTable) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// MustColumns returns the named columns in order, failing with a missing
// column error naming the first absent one.
func (t *SampleTable) MustColumns(names ...string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		values, ok := t.columns[name]
		if !ok {
			return nil, errors.NewMissingColumnError(name)
		}
		out[i] = values
	}
	return out, nil
}

// Names returns column names in insertion order.
func (t *SampleTable) Names() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

// Len returns the number of rows.
func (t *SampleTable) Len() int {
	if t.rows < 0 {
		return 0
	}
	return t.rows
}

// NumColumns returns the number of columns.
func (t *SampleTable) NumColumns() int {
	return len(t.names)
}

// Clone returns a deep copy of the table.
func (t *SampleTable) Clone() *SampleTable {
	clone := NewSampleTable()
	for _, name := range t.names {
		// Names are unique and lengths already agree.
		_ = clone.AddColumn(name, t.columns[name])
	}
	return clone
}

// Select returns a copy holding only the columns named in keep, in table
// order, along with the names that were dropped.
func (t *SampleTable) Select(keep []string) (*SampleTable, []string) {
	wanted := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		wanted[name] = struct{}{}
	}

	selected := NewSampleTable()
	var dropped []string
	for _, name := range t.names {
		if _, ok := wanted[name]; !ok {
			dropped = append(dropped, name)
			continue
		}
		_ = selected.AddColumn(name, t.columns[name])
	}
	return selected, dropped
}
