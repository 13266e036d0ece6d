package account

import (
	"fmt"

	"github.com/rustyeddy/backtester/asset"
)

// AsAsset turns the account equity curve into a synthetic asset. The name
// defaults to the account name.
//
// Its cost model is built from potential costs only: realized costs are
// already part of the equity curve.
func (a *Account) AsAsset(name string) (*asset.Asset, error) {
	if a.hasSynthetic {
		return nil, fmt.Errorf("%w: account %s already holds synthetic assets", ErrNestedSynthetic, a.name)
	}
	if name == "" {
		name = a.name
	}

	h := a.hist
	n := h.n
	dates := a.Dates()

	margin := make([]float64, n)
	for i, m := range h.margin[:n] {
		if m > 0 {
			margin[i] = m
		}
	}

	legs := make(map[string]float64, len(a.position))
	for t, e := range a.position {
		legs[t] = e.Qty
	}

	return asset.New(asset.Config{
		Ticker: name,
		Quotes: asset.Quotes{
			Dates:  dates,
			Open:   clone(h.equityClose[:n]),
			High:   clone(h.equityClose[:n]),
			Low:    clone(h.equityClose[:n]),
			Close:  clone(h.equityClose[:n]),
			Volume: make([]float64, n),
			Exec:   clone(h.equityExec[:n]),
		},
		Costs: asset.Dynamic(asset.CostTable{
			Dates: dates,
			Close: clone(h.potentialClose[:n]),
			Exec:  clone(h.potentialExec[:n]),
		}),
		Margin:     asset.MarginSeriesOf(asset.Series{Dates: dates, Values: margin}),
		PointValue: asset.FixedPointValue(1.0),
		Legs:       legs,
		Synthetic:  true,
	})
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
