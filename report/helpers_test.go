package report

import (
	"testing"
	"time"

	"github.com/rustyeddy/backtester/account"
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

var dates = []time.Time{
	day("2018-01-01"), day("2018-01-02"), day("2018-01-03"),
	day("2018-01-07"), day("2018-01-08"), day("2018-01-09"),
}

func newAsset(t *testing.T, ticker string) *asset.Asset {
	t.Helper()
	a, err := asset.New(asset.Config{
		Ticker: ticker,
		Quotes: asset.Quotes{
			Dates: dates,
			Close: []float64{1, 2, 3, 4, 5, 6},
			Exec:  []float64{2, 3, 4, 5, 6, 7},
		},
		Costs: asset.Dollar(0.5),
	})
	require.NoError(t, err)
	return a
}

func tx(a *asset.Asset, d time.Time, action account.Action, qty, px, pnl float64) account.Transaction {
	return account.Transaction{
		Date:       d,
		Asset:      a,
		Action:     action,
		Qty:        qty,
		PriceClose: px,
		PriceExec:  px,
		CostsClose: -0.5,
		CostsExec:  -0.5,
		PnLClose:   pnl,
		PnLExec:    pnl,
	}
}
