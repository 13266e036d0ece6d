package asset

import (
	"sort"
	"time"
)

// Quotes is a strictly ascending, time indexed price table.
// Close and Exec are required; Open, High, Low and Volume are optional
// and may be nil.
type Quotes struct {
	Dates  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
	Exec   []float64
}

func (q Quotes) Len() int { return len(q.Dates) }

// Series is a single time indexed column (margin, point value).
type Series struct {
	Dates  []time.Time
	Values []float64
}

// CostTable holds per-unit transaction costs at close and exec time.
type CostTable struct {
	Dates []time.Time
	Close []float64
	Exec  []float64
}

// CostKind selects how transaction costs are computed.
type CostKind int

const (
	NoCosts CostKind = iota
	PercentCosts
	DollarCosts
	DynamicCosts
)

func (k CostKind) String() string {
	switch k {
	case NoCosts:
		return "none"
	case PercentCosts:
		return "percent"
	case DollarCosts:
		return "dollar"
	case DynamicCosts:
		return "dynamic"
	}
	return "unknown"
}

// Costs is a tagged cost model. Rate is used by PercentCosts and
// DollarCosts, Table by DynamicCosts. The zero value means no costs.
type Costs struct {
	Kind  CostKind
	Rate  float64
	Table *CostTable
}

// Percent charges rate * price * |qty|.
func Percent(rate float64) Costs { return Costs{Kind: PercentCosts, Rate: rate} }

// Dollar charges a fixed amount per unit traded.
func Dollar(rate float64) Costs { return Costs{Kind: DollarCosts, Rate: rate} }

// Dynamic looks per-unit costs up in a table aligned with the quotes.
func Dynamic(t CostTable) Costs { return Costs{Kind: DynamicCosts, Table: &t} }

// MarginKind selects how margin requirements are computed.
type MarginKind int

const (
	// CashMargin requires the full notional value.
	CashMargin MarginKind = iota
	// FixedMargin is a fraction of notional when Value <= 1, else dollars per unit.
	FixedMargin
	// SeriesMargin is dollars per unit looked up in Series.
	SeriesMargin
)

// Margin is the margin model of an asset. The zero value is cash-like.
type Margin struct {
	Kind   MarginKind
	Value  float64
	Series *Series
}

func FixedMarginOf(v float64) Margin { return Margin{Kind: FixedMargin, Value: v} }

func MarginSeriesOf(s Series) Margin { return Margin{Kind: SeriesMargin, Series: &s} }

// PointValue is the dollar value of one price unit, either constant or time varying.
type PointValue struct {
	Value  float64
	Series *Series
}

func FixedPointValue(v float64) *PointValue { return &PointValue{Value: v} }

func PointValueSeriesOf(s Series) *PointValue { return &PointValue{Series: &s} }

// asOf returns the index of the last date at or before d, or -1 when d
// precedes every date.
func asOf(dates []time.Time, d time.Time) int {
	return sort.Search(len(dates), func(i int) bool { return dates[i].After(d) }) - 1
}

func sameIndex(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
