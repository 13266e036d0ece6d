package account

import (
	"testing"
	"time"

	"github.com/rustyeddy/backtester/asset"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

var (
	d1 = day("2018-01-01")
	d2 = day("2018-01-02")
	d3 = day("2018-01-03")
	d4 = day("2018-01-07")
	d5 = day("2018-01-08")
	d6 = day("2018-01-09")
)

func testDates() []time.Time { return []time.Time{d1, d2, d3, d4, d5, d6} }

// newAsset returns an asset with close 1..6 and exec 2..7.
func newAsset(t *testing.T, ticker string, costs asset.Costs) *asset.Asset {
	t.Helper()
	a, err := asset.New(asset.Config{
		Ticker: ticker,
		Quotes: asset.Quotes{
			Dates: testDates(),
			Close: []float64{1, 2, 3, 4, 5, 6},
			Exec:  []float64{2, 3, 4, 5, 6, 7},
		},
		Costs: costs,
	})
	require.NoError(t, err)
	return a
}

func entry(a *asset.Asset, qty, close, exec float64) Entry {
	return Entry{Asset: a, Qty: qty, Close: close, Exec: exec}
}
