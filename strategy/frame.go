package strategy

import (
	"math"
	"sort"

	"github.com/rustyeddy/backtester/asset"
)

// Frame holds the metrics of every asset at one date: one row per asset,
// one column per metric.
type Frame struct {
	assets  []*asset.Asset
	columns []string
	colIdx  map[string]int
	rowIdx  map[string]int
	data    [][]float64
}

// NewFrame returns a NaN filled frame.
func NewFrame(assets []*asset.Asset, columns []string) *Frame {
	f := &Frame{
		assets:  assets,
		columns: columns,
		colIdx:  make(map[string]int, len(columns)),
		rowIdx:  make(map[string]int, len(assets)),
		data:    make([][]float64, len(assets)),
	}
	for j, c := range columns {
		f.colIdx[c] = j
	}
	for i, a := range assets {
		f.rowIdx[a.Ticker()] = i
		row := make([]float64, len(columns))
		for j := range row {
			row[j] = math.NaN()
		}
		f.data[i] = row
	}
	return f
}

// SetRow copies vals into the row of the i-th asset.
func (f *Frame) SetRow(i int, vals []float64) {
	copy(f.data[i], vals)
}

func (f *Frame) Assets() []*asset.Asset { return f.assets }
func (f *Frame) Columns() []string      { return f.columns }

// Column returns the named metric across all assets, in asset order.
func (f *Frame) Column(name string) []float64 {
	j, ok := f.colIdx[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(f.data))
	for i, row := range f.data {
		out[i] = row[j]
	}
	return out
}

// At returns one metric of one asset, NaN when either is unknown.
func (f *Frame) At(ticker, column string) float64 {
	i, ok := f.rowIdx[ticker]
	if !ok {
		return math.NaN()
	}
	j, ok := f.colIdx[column]
	if !ok {
		return math.NaN()
	}
	return f.data[i][j]
}

// Asset looks an asset up by ticker.
func (f *Frame) Asset(ticker string) *asset.Asset {
	if i, ok := f.rowIdx[ticker]; ok {
		return f.assets[i]
	}
	return nil
}

// Row is a read-only view of one asset's metrics.
type Row struct {
	cols   map[string]int
	values []float64
}

// Get returns the named metric, NaN when unknown.
func (r Row) Get(column string) float64 {
	j, ok := r.cols[column]
	if !ok {
		return math.NaN()
	}
	return r.values[j]
}

// Item pairs an asset with its row.
type Item struct {
	Asset *asset.Asset
	Row   Row
}

// Items returns every asset with its row, in asset order.
func (f *Frame) Items() []Item {
	out := make([]Item, len(f.assets))
	for i, a := range f.assets {
		out[i] = Item{Asset: a, Row: Row{cols: f.colIdx, values: f.data[i]}}
	}
	return out
}

// Filter returns the items matching cond. When sortBy names a column the
// result is sorted ascending on it, NaN last; otherwise asset order is kept.
func (f *Frame) Filter(cond func(Row) bool, sortBy string) []Item {
	var out []Item
	for _, it := range f.Items() {
		if cond == nil || cond(it.Row) {
			out = append(out, it)
		}
	}
	if _, ok := f.colIdx[sortBy]; ok {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].Row.Get(sortBy), out[j].Row.Get(sortBy)
			if math.IsNaN(b) {
				return !math.IsNaN(a)
			}
			return a < b
		})
	}
	return out
}
