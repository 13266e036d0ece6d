package account

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type step struct {
	date    time.Time
	targets map[*asset.Asset]float64
}

func runSteps(t *testing.T, acct *Account, steps []step) {
	t.Helper()
	for _, s := range steps {
		require.NoError(t, acct.ProcessStep(s.date, s.targets))
	}
}

func TestNewAccount(t *testing.T) {
	acct := New(4)
	assert.Equal(t, DefaultName, acct.Name())
	assert.Equal(t, 4, acct.Capacity())
	assert.Equal(t, 0, acct.Steps())
	assert.Empty(t, acct.Positions())
	assert.Empty(t, acct.History())

	acct = New(-1, WithName("main"), WithInitialCapital(1000), WithLogger(zap.NewNop()))
	assert.Equal(t, "main", acct.String())
	assert.Equal(t, 0, acct.Capacity())
	assert.Equal(t, 1000.0, acct.Equity())
	assert.Equal(t, 1000.0, acct.EquityExec())
	assert.Equal(t, 1000.0, acct.CapitalInvested())
}

func TestCapitalTransaction(t *testing.T) {
	acct := New(1)
	acct.CapitalTransaction(500, true)
	acct.CapitalTransaction(25, false)
	acct.CapitalTransaction(-100, true)

	assert.Equal(t, 425.0, acct.Equity())
	assert.Equal(t, 400.0, acct.CapitalInvested())
}

func TestProcessStep(t *testing.T) {
	a := newAsset(t, "A", asset.Dollar(1))
	acct := New(6, WithInitialCapital(100))

	runSteps(t, acct, []step{
		{d1, map[*asset.Asset]float64{a: 2}},
		{d2, map[*asset.Asset]float64{a: 2}},
	})
	assert.Equal(t, 100.0, acct.Equity())
	assert.Equal(t, 6.0, acct.Margin())
	assert.Equal(t, 94.0, acct.CapitalAvailable())

	pos, ok := acct.Position("A")
	require.True(t, ok)
	assert.Equal(t, 2.0, pos.Qty)
	assert.Equal(t, []PositionInfo{{Asset: a, Qty: 2}}, acct.Positions())

	runSteps(t, acct, []step{
		{d3, map[*asset.Asset]float64{a: 0}},
		{d4, map[*asset.Asset]float64{}},
	})
	assert.Equal(t, 4, acct.Steps())
	assert.Equal(t, 0.0, acct.Margin())
	_, ok = acct.Position("A")
	assert.False(t, ok)

	want := []HistoryRow{
		{Date: d1, Equity: 98, CapitalInvested: 100, Costs: -2, Margin: 4, PnL: -2},
		{Date: d2, Equity: 100, CapitalInvested: 100, Costs: 0, Margin: 6, PnL: 2},
		{Date: d3, Equity: 100, CapitalInvested: 100, Costs: -2, Margin: 0, PnL: 0},
		{Date: d4, Equity: 100, CapitalInvested: 100, Costs: 0, Margin: 0, PnL: 0},
	}
	assert.Equal(t, want, acct.History())
	assert.Equal(t, []float64{98, 100, 100, 100}, acct.HistoryColumn(ColEquity))
	assert.Nil(t, acct.HistoryColumn("nope"))
	assert.Equal(t, []time.Time{d1, d2, d3, d4}, acct.Dates())

	txs, err := acct.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, []Action{Open, Hold, Close}, []Action{txs[0].Action, txs[1].Action, txs[2].Action})
}

func TestProcessStepEquityRoundTrip(t *testing.T) {
	a := newAsset(t, "A", asset.Percent(0.1))
	b := newAsset(t, "B", asset.Dollar(0.5))
	acct := New(6, WithInitialCapital(1000))
	acct.CapitalTransaction(250, true)

	runSteps(t, acct, []step{
		{d1, map[*asset.Asset]float64{a: 3, b: -1}},
		{d2, map[*asset.Asset]float64{a: 5, b: -1}},
		{d3, map[*asset.Asset]float64{a: -2, b: 4}},
		{d4, map[*asset.Asset]float64{b: 4}},
		{d5, map[*asset.Asset]float64{a: 1}},
		{d6, nil},
	})

	var pnl float64
	for _, row := range acct.History() {
		pnl += row.PnL
	}
	assert.InDelta(t, acct.EquityExec()-0-acct.CapitalInvested(), pnl, 1e-9)
}

func TestProcessStepBufferExhausted(t *testing.T) {
	a := newAsset(t, "A", asset.Costs{})
	acct := New(1)

	require.NoError(t, acct.ProcessStep(d1, map[*asset.Asset]float64{a: 1}))
	err := acct.ProcessStep(d2, map[*asset.Asset]float64{a: 1})
	assert.ErrorIs(t, err, ErrBufferExhausted)
	assert.Equal(t, 1, acct.Steps())
}

func TestProcessStepInvalidInputLeavesStateUnchanged(t *testing.T) {
	a := newAsset(t, "A", asset.Dollar(1))
	twin := newAsset(t, "A", asset.Dollar(1))

	tests := []struct {
		name    string
		date    time.Time
		targets map[*asset.Asset]float64
		want    error
	}{
		{"nil asset", d2, map[*asset.Asset]float64{nil: 1}, ErrInvalidInput},
		{"nan quantity", d2, map[*asset.Asset]float64{a: math.NaN()}, ErrInvalidInput},
		{"inf quantity", d2, map[*asset.Asset]float64{a: math.Inf(1)}, ErrInvalidInput},
		{"duplicate ticker", d2, map[*asset.Asset]float64{a: 1, twin: 2}, ErrInvalidInput},
		{"before data", day("2017-06-01"), map[*asset.Asset]float64{a: 1}, asset.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := New(3, WithInitialCapital(10))
			require.NoError(t, acct.ProcessStep(d1, map[*asset.Asset]float64{a: 1}))
			acct.Annotate("A", "kept")

			err := acct.ProcessStep(tt.date, tt.targets)
			require.ErrorIs(t, err, tt.want)

			assert.Equal(t, 1, acct.Steps())
			assert.Equal(t, 9.0, acct.Equity())
			assert.Equal(t, []PositionInfo{{Asset: a, Qty: 1}}, acct.Positions())
			txs, err := acct.Transactions()
			require.NoError(t, err)
			assert.Len(t, txs, 1)

			// the pending annotation survives a failed step
			require.NoError(t, acct.ProcessStep(d2, map[*asset.Asset]float64{a: 2}))
			txs, _ = acct.Transactions()
			assert.Equal(t, "kept", txs[len(txs)-1].Context)
		})
	}
}

func TestAnnotate(t *testing.T) {
	a := newAsset(t, "A", asset.Costs{})
	b := newAsset(t, "B", asset.Costs{})
	acct := New(2)

	acct.Annotate("A", map[string]float64{"signal": 1})
	runSteps(t, acct, []step{
		{d1, map[*asset.Asset]float64{a: 1, b: 1}},
		{d2, map[*asset.Asset]float64{}},
	})

	txs, err := acct.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 4)
	assert.Equal(t, map[string]float64{"signal": 1}, txs[0].Context)
	assert.Nil(t, txs[1].Context)
	assert.Nil(t, txs[2].Context)
}

func TestTransactionsUnordered(t *testing.T) {
	a := newAsset(t, "A", asset.Costs{})
	acct := New(2)
	runSteps(t, acct, []step{
		{d3, map[*asset.Asset]float64{a: 1}},
		{d2, map[*asset.Asset]float64{a: 2}},
	})
	_, err := acct.Transactions()
	assert.ErrorIs(t, err, ErrUnordered)
}

func TestAsAsset(t *testing.T) {
	a := newAsset(t, "A", asset.Percent(0.5))
	acct := New(6, WithName("inner"), WithInitialCapital(100))
	runSteps(t, acct, []step{
		{d1, map[*asset.Asset]float64{a: 2}},
		{d2, map[*asset.Asset]float64{a: 2}},
		{d3, map[*asset.Asset]float64{a: 1}},
		{d4, map[*asset.Asset]float64{a: 1}},
	})

	syn, err := acct.AsAsset("")
	require.NoError(t, err)
	assert.Equal(t, "inner", syn.Ticker())
	assert.True(t, syn.IsSynthetic())
	assert.Equal(t, map[string]float64{"A": 1}, syn.Legs())

	q := syn.Quotes()
	require.Equal(t, 4, q.Len())
	assert.Equal(t, acct.HistoryColumn(ColEquity), q.Exec)
	assert.Equal(t, q.Close, q.Open)

	costs := syn.Costs()
	require.Equal(t, asset.DynamicCosts, costs.Kind)
	assert.Equal(t, acct.hist.potentialClose[:4], costs.Table.Close)
	assert.Equal(t, acct.hist.potentialExec[:4], costs.Table.Exec)

	pv, err := syn.PointValueAt(d2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pv)

	// margin per unit follows the account margin
	m, err := syn.MarginRequirementAt(d2, 1)
	require.NoError(t, err)
	assert.Equal(t, acct.History()[1].Margin, m)

	named, err := acct.AsAsset("portfolio")
	require.NoError(t, err)
	assert.Equal(t, "portfolio", named.Ticker())

	outer := New(2, WithName("outer"))
	require.NoError(t, outer.ProcessStep(d2, map[*asset.Asset]float64{syn: 1}))
	assert.True(t, outer.HasSyntheticAssets())
	_, err = outer.AsAsset("")
	assert.ErrorIs(t, err, ErrNestedSynthetic)
}

func TestAsAssetWithoutHistory(t *testing.T) {
	_, err := New(3).AsAsset("")
	assert.ErrorIs(t, err, asset.ErrInvalidConfig)
}
