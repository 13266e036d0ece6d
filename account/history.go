package account

import (
	"math"
	"time"
)

// history is a set of parallel, preallocated arrays with a write cursor.
type history struct {
	n int

	dates          []time.Time
	pnlClose       []float64
	pnlExec        []float64
	costsClose     []float64
	costsExec      []float64
	potentialClose []float64
	potentialExec  []float64
	equityClose    []float64
	equityExec     []float64
	capital        []float64
	margin         []float64
}

func newHistory(capacity int) history {
	return history{
		dates:          make([]time.Time, capacity),
		pnlClose:       nanSlice(capacity),
		pnlExec:        nanSlice(capacity),
		costsClose:     nanSlice(capacity),
		costsExec:      nanSlice(capacity),
		potentialClose: nanSlice(capacity),
		potentialExec:  nanSlice(capacity),
		equityClose:    nanSlice(capacity),
		equityExec:     nanSlice(capacity),
		capital:        nanSlice(capacity),
		margin:         nanSlice(capacity),
	}
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// record writes the next row. The caller checks capacity first.
func (h *history) record(date time.Time, t Totals, a *Account) {
	i := h.n
	h.dates[i] = date
	h.pnlClose[i] = t.PnLClose
	h.pnlExec[i] = t.PnLExec
	h.costsClose[i] = t.CostsClose
	h.costsExec[i] = t.CostsExec
	h.potentialClose[i] = t.PotentialCostsClose
	h.potentialExec[i] = t.PotentialCostsExec
	h.equityClose[i] = a.equityClose
	h.equityExec[i] = a.equityExec
	h.capital[i] = a.capitalInvested
	h.margin[i] = a.margin
	h.n++
}

// HistoryRow is one processed step, valued at execution prices.
type HistoryRow struct {
	Date            time.Time
	Equity          float64
	CapitalInvested float64
	Costs           float64
	Margin          float64
	PnL             float64
}

// History returns the rows written so far.
func (a *Account) History() []HistoryRow {
	h := a.hist
	out := make([]HistoryRow, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = HistoryRow{
			Date:            h.dates[i],
			Equity:          h.equityExec[i],
			CapitalInvested: h.capital[i],
			Costs:           h.costsExec[i],
			Margin:          h.margin[i],
			PnL:             h.pnlExec[i],
		}
	}
	return out
}

// Column names accepted by HistoryColumn.
const (
	ColEquity          = "equity"
	ColCapitalInvested = "capital_invested"
	ColCosts           = "costs"
	ColMargin          = "margin"
	ColPnL             = "pnl"
)

// HistoryColumn returns one History column by name, or nil if unknown.
func (a *Account) HistoryColumn(name string) []float64 {
	h := a.hist
	var src []float64
	switch name {
	case ColEquity:
		src = h.equityExec
	case ColCapitalInvested:
		src = h.capital
	case ColCosts:
		src = h.costsExec
	case ColMargin:
		src = h.margin
	case ColPnL:
		src = h.pnlExec
	default:
		return nil
	}
	out := make([]float64, h.n)
	copy(out, src[:h.n])
	return out
}

// Dates returns the recorded step dates.
func (a *Account) Dates() []time.Time {
	out := make([]time.Time, a.hist.n)
	copy(out, a.hist.dates[:a.hist.n])
	return out
}
