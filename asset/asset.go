package asset

import (
	"fmt"
	"math"
	"time"
)

// Config describes a tradable instrument.
type Config struct {
	Ticker string
	Quotes Quotes
	Costs  Costs
	Margin Margin

	// PointValue defaults to a constant 1.0 when nil.
	PointValue *PointValue

	// Legs defaults to {Ticker: 1} when nil.
	Legs map[string]float64

	// Synthetic marks an asset derived from an account equity curve.
	Synthetic bool
}

// Asset answers point in time price, cost, margin and point value queries.
//
// Price and point value lookups keep a single-slot cache keyed by the exact
// date requested. Once populated for a date the cache is authoritative. The
// cache is not synchronized: an Asset must not be queried for different dates
// from concurrent goroutines.
type Asset struct {
	ticker     string
	quotes     Quotes
	costs      Costs
	margin     Margin
	pointValue PointValue
	legs       map[string]float64
	synthetic  bool

	px pxSlot
	pv pvSlot
}

type pxSlot struct {
	ok          bool
	date        time.Time
	close, exec float64
}

type pvSlot struct {
	ok    bool
	date  time.Time
	value float64
}

// New validates cfg and returns an Asset. Every failure wraps ErrInvalidConfig.
func New(cfg Config) (*Asset, error) {
	if cfg.Ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidConfig)
	}
	a := &Asset{
		ticker:    cfg.Ticker,
		quotes:    cfg.Quotes,
		costs:     cfg.Costs,
		margin:    cfg.Margin,
		synthetic: cfg.Synthetic,
	}
	if err := a.validateQuotes(); err != nil {
		return nil, err
	}
	if err := a.validateCosts(); err != nil {
		return nil, err
	}
	if err := a.validateMargin(); err != nil {
		return nil, err
	}

	if cfg.PointValue == nil {
		a.pointValue = PointValue{Value: 1.0}
	} else {
		a.pointValue = *cfg.PointValue
	}
	if err := a.validatePointValue(); err != nil {
		return nil, err
	}

	if cfg.Legs == nil {
		a.legs = map[string]float64{a.ticker: 1.0}
	} else {
		a.legs = make(map[string]float64, len(cfg.Legs))
		for k, v := range cfg.Legs {
			if k == "" {
				return nil, a.configErr("legs keys must be non-empty tickers")
			}
			a.legs[k] = v
		}
	}
	return a, nil
}

func (a *Asset) configErr(format string, args ...any) error {
	return fmt.Errorf("%w: asset %q: %s", ErrInvalidConfig, a.ticker, fmt.Sprintf(format, args...))
}

func (a *Asset) validateQuotes() error {
	q := a.quotes
	n := q.Len()
	if n == 0 {
		return a.configErr("quotes are empty")
	}
	if q.Close == nil || q.Exec == nil {
		return a.configErr("quotes must have close and exec columns")
	}
	if len(q.Close) != n || len(q.Exec) != n {
		return a.configErr("close/exec length does not match %d dates", n)
	}
	for name, col := range map[string][]float64{"open": q.Open, "high": q.High, "low": q.Low, "volume": q.Volume} {
		if col != nil && len(col) != n {
			return a.configErr("%s length %d does not match %d dates", name, len(col), n)
		}
	}
	for i := 1; i < n; i++ {
		if !q.Dates[i].After(q.Dates[i-1]) {
			return a.configErr("quote dates must be strictly ascending (row %d)", i)
		}
	}
	return nil
}

func (a *Asset) validateCosts() error {
	c := a.costs
	switch c.Kind {
	case NoCosts:
	case PercentCosts, DollarCosts:
		if math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) || c.Rate < 0 {
			return a.configErr("%s costs rate must be a non-negative number, got %v", c.Kind, c.Rate)
		}
	case DynamicCosts:
		if c.Table == nil || c.Table.Close == nil || c.Table.Exec == nil {
			return a.configErr("dynamic costs need a table with close and exec columns")
		}
		if len(c.Table.Close) != len(c.Table.Dates) || len(c.Table.Exec) != len(c.Table.Dates) {
			return a.configErr("dynamic costs columns do not match their dates")
		}
		if !sameIndex(a.quotes.Dates, c.Table.Dates) {
			return a.configErr("dynamic costs must have the same index as quotes")
		}
	default:
		return a.configErr("unknown costs kind %d", c.Kind)
	}
	return nil
}

func (a *Asset) validateMargin() error {
	m := a.margin
	switch m.Kind {
	case CashMargin:
	case FixedMargin:
		if math.IsNaN(m.Value) || m.Value < 0 {
			return a.configErr("margin must be >= 0, got %v", m.Value)
		}
	case SeriesMargin:
		if m.Series == nil || len(m.Series.Values) != len(m.Series.Dates) {
			return a.configErr("margin series is malformed")
		}
		if !sameIndex(a.quotes.Dates, m.Series.Dates) {
			return a.configErr("margin series must have the same index as quotes")
		}
	default:
		return a.configErr("unknown margin kind %d", m.Kind)
	}
	return nil
}

func (a *Asset) validatePointValue() error {
	pv := a.pointValue
	if pv.Series != nil {
		if len(pv.Series.Values) != len(pv.Series.Dates) {
			return a.configErr("point value series is malformed")
		}
		if !sameIndex(a.quotes.Dates, pv.Series.Dates) {
			return a.configErr("point value series must have the same index as quotes")
		}
		return nil
	}
	if !(pv.Value > 0) || math.IsInf(pv.Value, 0) {
		return a.configErr("point value must be > 0, got %v", pv.Value)
	}
	return nil
}

func (a *Asset) Ticker() string    { return a.ticker }
func (a *Asset) String() string    { return a.ticker }
func (a *Asset) IsSynthetic() bool { return a.synthetic }

// Equal reports whether both assets share a ticker.
func (a *Asset) Equal(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.ticker == other.ticker
}

// Quotes returns the underlying quote table. Callers must not modify it.
func (a *Asset) Quotes() Quotes { return a.quotes }

// Costs returns the configured cost model.
func (a *Asset) Costs() Costs { return a.costs }

// MarginModel returns the configured margin model.
func (a *Asset) MarginModel() Margin { return a.margin }

// Legs returns a copy of the asset composition.
func (a *Asset) Legs() map[string]float64 {
	out := make(map[string]float64, len(a.legs))
	for k, v := range a.legs {
		out[k] = v
	}
	return out
}

// PriceAt returns the close and exec price at date, falling back to the
// latest row at or before date.
func (a *Asset) PriceAt(date time.Time) (float64, float64, error) {
	if a.px.ok && a.px.date.Equal(date) {
		return a.px.close, a.px.exec, nil
	}
	i := asOf(a.quotes.Dates, date)
	if i < 0 {
		return 0, 0, a.rangeErr("quotes", date, a.quotes.Dates)
	}
	c, e := a.quotes.Close[i], a.quotes.Exec[i]
	a.px = pxSlot{ok: true, date: date, close: c, exec: e}
	return c, e, nil
}

// PointValueAt returns the dollar value of one price unit at date.
func (a *Asset) PointValueAt(date time.Time) (float64, error) {
	if a.pv.ok && a.pv.date.Equal(date) {
		return a.pv.value, nil
	}
	s := a.pointValue.Series
	if s == nil {
		a.pv = pvSlot{ok: true, date: date, value: a.pointValue.Value}
		return a.pointValue.Value, nil
	}
	i := asOf(s.Dates, date)
	if i < 0 {
		return 0, a.rangeErr("point value", date, s.Dates)
	}
	v := s.Values[i]
	if !(v > 0) {
		return 0, fmt.Errorf("%w: point value for %s is <= 0 at %s: %v", ErrInvalidValue, a.ticker, date.Format(time.RFC3339), v)
	}
	a.pv = pvSlot{ok: true, date: date, value: v}
	return v, nil
}

// CostsAt returns the close and exec time costs of trading qty units at
// date. Both values are <= 0 regardless of trade direction.
func (a *Asset) CostsAt(date time.Time, qty float64) (float64, float64, error) {
	switch a.costs.Kind {
	case PercentCosts:
		c, e, err := a.PriceAt(date)
		if err != nil {
			return 0, 0, err
		}
		r := a.costs.Rate
		return -math.Abs(c * r * qty), -math.Abs(e * r * qty), nil
	case DollarCosts:
		v := -math.Abs(a.costs.Rate * qty)
		return v, v, nil
	case DynamicCosts:
		t := a.costs.Table
		i := asOf(t.Dates, date)
		if i < 0 {
			return 0, 0, a.rangeErr("costs", date, t.Dates)
		}
		return -math.Abs(t.Close[i] * qty), -math.Abs(t.Exec[i] * qty), nil
	}
	return 0, 0, nil
}

// MarginRequirementAt returns the margin needed to hold qty units at date.
func (a *Asset) MarginRequirementAt(date time.Time, qty float64) (float64, error) {
	switch a.margin.Kind {
	case FixedMargin:
		if a.margin.Value > 1.0 {
			return a.margin.Value * math.Abs(qty), nil
		}
		v, err := a.NotionalValueAt(date, qty)
		if err != nil {
			return 0, err
		}
		return v * a.margin.Value, nil
	case SeriesMargin:
		s := a.margin.Series
		i := asOf(s.Dates, date)
		if i < 0 {
			return 0, a.rangeErr("margin", date, s.Dates)
		}
		v := s.Values[i]
		if v < 0 {
			return 0, fmt.Errorf("%w: margin for %s is negative at %s: %v", ErrInvalidValue, a.ticker, date.Format(time.RFC3339), v)
		}
		return v * math.Abs(qty), nil
	}
	return a.NotionalValueAt(date, qty)
}

// NotionalValueAt returns the dollar value of qty units at date using the
// exec price, or the close price when exec is not finite.
func (a *Asset) NotionalValueAt(date time.Time, qty float64) (float64, error) {
	c, e, err := a.PriceAt(date)
	if err != nil {
		return 0, err
	}
	var px float64
	switch {
	case isFinite(e):
		px = e
	case isFinite(c):
		px = c
	default:
		return 0, fmt.Errorf("%w: %s at %s", ErrInvalidPrice, a.ticker, date.Format(time.RFC3339))
	}
	pv, err := a.PointValueAt(date)
	if err != nil {
		return 0, err
	}
	return math.Abs(px) * pv * math.Abs(qty), nil
}

// PnLBetween returns the dollar PnL of holding qty units while the price
// moved from oldPrice to newPrice.
func (a *Asset) PnLBetween(date time.Time, oldPrice, newPrice, qty float64) (float64, error) {
	pv, err := a.PointValueAt(date)
	if err != nil {
		return 0, err
	}
	return (newPrice - oldPrice) * qty * pv, nil
}

func (a *Asset) rangeErr(what string, date time.Time, dates []time.Time) error {
	if len(dates) == 0 {
		return fmt.Errorf("%w: no %s for %s at %s", ErrOutOfRange, what, a.ticker, date.Format(time.RFC3339))
	}
	return fmt.Errorf("%w: no %s for %s at %s, range %s - %s", ErrOutOfRange, what, a.ticker,
		date.Format(time.RFC3339), dates[0].Format(time.RFC3339), dates[len(dates)-1].Format(time.RFC3339))
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
