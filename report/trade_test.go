package report

import (
	"math"
	"testing"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeLifecycle(t *testing.T) {
	a := newAsset(t, "A")

	tr, err := NewTrade(tx(a, dates[0], account.Open, 2, 10, -0.5))
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Side)
	assert.False(t, tr.Closed())

	require.NoError(t, tr.Add(tx(a, dates[1], account.Open, 2, 12, 3.5)))
	require.NoError(t, tr.Add(tx(a, dates[2], account.Hold, 0, 13, 4)))
	require.NoError(t, tr.Add(tx(a, dates[3], account.Close, -1, 14, 1.5)))
	assert.False(t, tr.Closed())
	require.NoError(t, tr.Add(tx(a, dates[4], account.Close, -3, 16, 5.5)))
	assert.True(t, tr.Closed())

	assert.Equal(t, 4, tr.NTransactions)
	assert.Equal(t, 4.0, tr.QtyEntered)
	assert.Equal(t, 4.0, tr.QtyExited)
	assert.Equal(t, 11.0, tr.EntryPrice())
	assert.Equal(t, 15.5, tr.ExitPrice())
	assert.Equal(t, 14.0, tr.PnL)
	assert.Equal(t, -2.5, tr.Costs)
	assert.InDelta(t, 14.0/44.0*100, tr.PnLPct(), 1e-9)
	assert.Equal(t, dates[0], tr.EntryDate)
	assert.Equal(t, dates[4], tr.ExitDate)

	err = tr.Add(tx(a, dates[5], account.Open, 1, 16, 0))
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestTradeRejectsRawSignFlip(t *testing.T) {
	a := newAsset(t, "A")

	tr, err := NewTrade(tx(a, dates[0], account.Open, 2, 10, 0))
	require.NoError(t, err)
	err = tr.Add(tx(a, dates[1], account.Close, -3, 11, 2))
	assert.ErrorIs(t, err, ErrInvariantViolation)

	short, err := NewTrade(tx(a, dates[0], account.Open, -2, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, -1, short.Side)
	err = short.Add(tx(a, dates[1], account.Open, 5, 11, 2))
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestTradeRejectsOtherAsset(t *testing.T) {
	tr, err := NewTrade(tx(newAsset(t, "A"), dates[0], account.Open, 1, 10, 0))
	require.NoError(t, err)
	err = tr.Add(tx(newAsset(t, "B"), dates[1], account.Close, -1, 11, 1))
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestNewTradeNeedsOpen(t *testing.T) {
	_, err := NewTrade(tx(newAsset(t, "A"), dates[0], account.Close, -1, 10, 0))
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestTradeExecFallsBackToClose(t *testing.T) {
	a := newAsset(t, "A")
	open := tx(a, dates[0], account.Open, 1, 10, -0.5)
	open.PriceExec = math.NaN()
	open.PnLExec = math.NaN()
	open.CostsExec = math.NaN()

	tr, err := NewTrade(open)
	require.NoError(t, err)
	assert.Equal(t, -0.5, tr.PnL)
	assert.Equal(t, -0.5, tr.Costs)
	assert.Equal(t, 10.0, tr.EntryPrice())

	exit := tx(a, dates[1], account.Close, -1, 12, 1.5)
	exit.PriceExec = math.NaN()
	exit.PnLExec = math.Inf(1)
	require.NoError(t, tr.Add(exit))
	assert.Equal(t, 1.0, tr.PnL)
	assert.Equal(t, 12.0, tr.ExitPrice())
	assert.True(t, math.IsNaN((&Trade{}).ExitPrice()))
}

func TestTradePriceFollowsPnLSide(t *testing.T) {
	a := newAsset(t, "A")
	open := tx(a, dates[0], account.Open, 1, 10, -0.5)
	open.PriceExec = 20
	open.PnLExec = math.NaN()
	open.CostsExec = -3

	tr, err := NewTrade(open)
	require.NoError(t, err)
	assert.Equal(t, 10.0, tr.EntryPrice())
	assert.Equal(t, -0.5, tr.Costs)

	exit := tx(a, dates[1], account.Close, -1, 12, 1.5)
	exit.PriceExec = 13
	exit.PnLExec = 2.5
	require.NoError(t, tr.Add(exit))
	assert.Equal(t, 13.0, tr.ExitPrice())
	assert.Equal(t, 2.0, tr.PnL)
}

func TestTradeFractionalLegsClose(t *testing.T) {
	a := newAsset(t, "A")
	acct := account.New(len(dates), account.WithName("frac"), account.WithInitialCapital(100))
	steps := []map[*asset.Asset]float64{
		{a: 3.3},
		{a: 0.2},
		{},
		{a: -1},
	}
	for i, targets := range steps {
		require.NoError(t, acct.ProcessStep(dates[i], targets))
	}
	txs, err := acct.Transactions()
	require.NoError(t, err)

	trades, err := Trades(txs)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Closed())
	assert.Equal(t, 1, trades[0].Side)
	assert.InDelta(t, 3.3, trades[0].QtyExited, 1e-12)
	assert.Equal(t, -1, trades[1].Side)
	assert.False(t, trades[1].Closed())

	_, err = New(acct)
	assert.NoError(t, err)
}

func TestTradeRejectsReversalBeyondTolerance(t *testing.T) {
	a := newAsset(t, "A")
	tr, err := NewTrade(tx(a, dates[0], account.Open, 0.3, 10, 0))
	require.NoError(t, err)
	err = tr.Add(tx(a, dates[1], account.Close, -0.300001, 11, 0))
	assert.ErrorIs(t, err, ErrInvariantViolation)

	tr, err = NewTrade(tx(a, dates[0], account.Open, 0.1, 10, 0))
	require.NoError(t, err)
	require.NoError(t, tr.Add(tx(a, dates[1], account.Open, 0.2, 10, 0)))
	require.NoError(t, tr.Add(tx(a, dates[2], account.Close, -0.3, 11, 0)))
	assert.True(t, tr.Closed())
}

func TestTrades(t *testing.T) {
	a := newAsset(t, "A")
	b := newAsset(t, "B")
	ctx := map[string]string{"signal": "cross"}

	first := tx(a, dates[0], account.Open, 1, 10, 0)
	first.Context = ctx
	log := []account.Transaction{
		first,
		tx(b, dates[0], account.Open, -2, 5, 0),
		tx(a, dates[1], account.Close, -1, 11, 1),
		// reversal split into two legs
		tx(b, dates[2], account.Close, 2, 4, 2),
		tx(b, dates[2], account.Open, 1, 4, -0.5),
		tx(a, dates[3], account.Open, 3, 12, 0),
	}

	trades, err := Trades(log)
	require.NoError(t, err)
	require.Len(t, trades, 4)

	assert.Equal(t, "A", trades[0].Ticker)
	assert.True(t, trades[0].Closed())
	assert.Equal(t, ctx, trades[0].Context)

	assert.Equal(t, "B", trades[1].Ticker)
	assert.Equal(t, -1, trades[1].Side)
	assert.True(t, trades[1].Closed())

	// open trades follow in opening order
	assert.Equal(t, "B", trades[2].Ticker)
	assert.Equal(t, 1, trades[2].Side)
	assert.False(t, trades[2].Closed())
	assert.Nil(t, trades[2].Context)
	assert.Equal(t, "A", trades[3].Ticker)
	assert.False(t, trades[3].Closed())
}

func TestTradesErrors(t *testing.T) {
	a := newAsset(t, "A")

	_, err := Trades([]account.Transaction{
		tx(a, dates[0], account.Open, 1, 10, 0),
		tx(a, dates[1], account.Close, -2, 11, 1),
	})
	assert.ErrorIs(t, err, ErrInvariantViolation)

	_, err = Trades([]account.Transaction{tx(a, dates[0], account.Close, -1, 10, 0)})
	assert.ErrorIs(t, err, ErrInvariantViolation)

	_, err = Trades([]account.Transaction{
		tx(a, dates[1], account.Open, 1, 10, 0),
		tx(a, dates[0], account.Close, -1, 11, 1),
	})
	assert.ErrorIs(t, err, ErrInvariantViolation)

	trades, err := Trades(nil)
	require.NoError(t, err)
	assert.Empty(t, trades)
}
