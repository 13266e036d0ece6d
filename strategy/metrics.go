package strategy

import (
	"fmt"
	"math"
	"time"
)

// Metrics is a per-date table of named float columns for a single asset.
// Values is indexed [row][column].
type Metrics struct {
	Dates   []time.Time
	Columns []string
	Values  [][]float64
}

// NewMetrics allocates a NaN filled table.
func NewMetrics(dates []time.Time, columns ...string) *Metrics {
	m := &Metrics{
		Dates:   dates,
		Columns: columns,
		Values:  make([][]float64, len(dates)),
	}
	for i := range m.Values {
		row := make([]float64, len(columns))
		for j := range row {
			row[j] = math.NaN()
		}
		m.Values[i] = row
	}
	return m
}

func (m *Metrics) Len() int { return len(m.Dates) }

func (m *Metrics) columnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// SetColumn copies vals into the named column.
func (m *Metrics) SetColumn(name string, vals []float64) error {
	j := m.columnIndex(name)
	if j < 0 {
		return fmt.Errorf("no column %q", name)
	}
	if len(vals) != len(m.Dates) {
		return fmt.Errorf("column %q: got %d values for %d dates", name, len(vals), len(m.Dates))
	}
	for i, v := range vals {
		m.Values[i][j] = v
	}
	return nil
}

// Column returns a copy of the named column or nil.
func (m *Metrics) Column(name string) []float64 {
	j := m.columnIndex(name)
	if j < 0 {
		return nil
	}
	out := make([]float64, len(m.Values))
	for i, row := range m.Values {
		out[i] = row[j]
	}
	return out
}

// Validate checks that the table is rectangular.
func (m *Metrics) Validate() error {
	if len(m.Values) != len(m.Dates) {
		return fmt.Errorf("%d rows for %d dates", len(m.Values), len(m.Dates))
	}
	for i, row := range m.Values {
		if len(row) != len(m.Columns) {
			return fmt.Errorf("row %d: %d values for %d columns", i, len(row), len(m.Columns))
		}
	}
	return nil
}
