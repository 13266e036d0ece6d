package strategies

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
	"github.com/rustyeddy/backtester/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func newAsset(t *testing.T, ticker string, closes []float64) *asset.Asset {
	t.Helper()
	a, err := asset.New(asset.Config{
		Ticker: ticker,
		Quotes: asset.Quotes{Dates: dates(len(closes)), Close: closes, Exec: closes},
	})
	require.NoError(t, err)
	return a
}

func TestStrategyByName(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		want    string
		wantErr bool
	}{
		{"noop", nil, "noop", false},
		{"Buy-And-Hold", Params{"units": 3}, "buy_and_hold", false},
		{"buy_and_hold", Params{"fraction": 2}, "", true},
		{"ma_cross", Params{"fraction": -1}, "", true},
		{"ma_cross", Params{"fast": 2, "slow": 5}, "ma_cross", false},
		{"ma_cross", Params{"fast": 5, "slow": 2}, "", true},
		{"rsi_band", nil, "rsi_band", false},
		{"rsi_band", Params{"low": 80, "high": 20}, "", true},
		{"martingale", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := StrategyByName(tt.name, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
			assert.NoError(t, s.Initialize())
		})
	}
	assert.Equal(t, []string{"buy_and_hold", "ma_cross", "noop", "rsi_band"}, Names())
}

func TestParamsGet(t *testing.T) {
	p := Params{"fast": 3}
	assert.Equal(t, 3.0, p.Get("fast", 10))
	assert.Equal(t, 10.0, p.Get("slow", 10))
	assert.Equal(t, 1.0, Params(nil).Get("units", 1))
}

func frameFor(t *testing.T, s strategy.Strategy, assets []*asset.Asset, row int) *strategy.Frame {
	t.Helper()
	var cols []string
	var rows [][]float64
	for _, a := range assets {
		m, err := s.Calculate(a)
		require.NoError(t, err)
		cols = m.Columns
		rows = append(rows, m.Values[row])
	}
	f := strategy.NewFrame(assets, cols)
	for i, r := range rows {
		f.SetRow(i, r)
	}
	return f
}

func TestBuyAndHold(t *testing.T) {
	a := newAsset(t, "A", []float64{1, 2, 3})
	b := newAsset(t, "B", []float64{math.NaN(), 2, 3})
	s := &BuyAndHold{Units: 5}
	acct := account.New(3)

	got, err := s.ComposePortfolio(dates(1)[0], acct, frameFor(t, s, []*asset.Asset{a, b}, 0))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{a: 5}, got)

	got, err = s.ComposePortfolio(dates(2)[1], acct, frameFor(t, s, []*asset.Asset{a, b}, 1))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{a: 5, b: 5}, got)
}

func TestNoop(t *testing.T) {
	a := newAsset(t, "A", []float64{1, 2})
	got, err := Noop{}.ComposePortfolio(dates(1)[0], account.New(1), frameFor(t, Noop{}, []*asset.Asset{a}, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMACrossMetrics(t *testing.T) {
	a := newAsset(t, "A", []float64{1, 2, 3, 4, 5, 6})
	s, err := NewMACross(MACrossConfig{Fast: 2, Slow: 4})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Units)

	m, err := s.Calculate(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"close", "fast", "slow"}, m.Columns)

	fast := m.Column("fast")
	assert.True(t, math.IsNaN(fast[0]))
	assert.InDelta(t, 1.5, fast[1], 1e-9)
	assert.InDelta(t, 5.5, fast[5], 1e-9)

	slow := m.Column("slow")
	assert.True(t, math.IsNaN(slow[2]))
	assert.InDelta(t, 2.5, slow[3], 1e-9)

	assert.True(t, math.IsNaN(sma([]float64{1}, 4)[0]))
}

func TestMACrossComposePortfolio(t *testing.T) {
	up := newAsset(t, "UP", []float64{1, 2, 3, 4})
	down := newAsset(t, "DN", []float64{4, 3, 2, 1})
	assets := []*asset.Asset{up, down}
	d := dates(4)[3]

	s, err := NewMACross(MACrossConfig{Fast: 2, Slow: 3, Units: 2})
	require.NoError(t, err)
	acct := account.New(1)
	got, err := s.ComposePortfolio(d, acct, frameFor(t, s, assets, 3))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{up: 2}, got)

	// not warmed up yet
	got, err = s.ComposePortfolio(d, acct, frameFor(t, s, assets, 1))
	require.NoError(t, err)
	assert.Empty(t, got)

	s.AllowShort = true
	got, err = s.ComposePortfolio(d, acct, frameFor(t, s, assets, 3))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{up: 2, down: -2}, got)

	// the signal values travel with the opening transactions
	require.NoError(t, acct.ProcessStep(d, got))
	txs, err := acct.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.NotNil(t, txs[0].Context)
	assert.NotNil(t, txs[1].Context)
}

func TestMACrossFractionSizing(t *testing.T) {
	up := newAsset(t, "UP", []float64{10, 20, 30, 40})
	s, err := NewMACross(MACrossConfig{Fast: 2, Slow: 3, Fraction: 0.5})
	require.NoError(t, err)
	d := dates(4)[3]

	acct := account.New(1, account.WithInitialCapital(1000))
	got, err := s.ComposePortfolio(d, acct, frameFor(t, s, []*asset.Asset{up}, 3))
	require.NoError(t, err)
	// half of 1000 at 40 per unit
	assert.Equal(t, map[*asset.Asset]float64{up: 12}, got)
	require.NoError(t, acct.ProcessStep(d, got))

	// the held size is kept while the signal does not change
	got, err = s.ComposePortfolio(d, acct, frameFor(t, s, []*asset.Asset{up}, 3))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{up: 12}, got)
}

func TestMACrossCarriesPositionWithoutRow(t *testing.T) {
	up := newAsset(t, "UP", []float64{1, 2, 3, 4})
	flat := newAsset(t, "FL", []float64{1, 2, 3, 4})
	assets := []*asset.Asset{up, flat}
	s, err := NewMACross(MACrossConfig{Fast: 2, Slow: 3, Units: 3})
	require.NoError(t, err)
	d := dates(4)[3]

	acct := account.New(2)
	got, err := s.ComposePortfolio(d, acct, frameFor(t, s, []*asset.Asset{up}, 3))
	require.NoError(t, err)
	require.NoError(t, acct.ProcessStep(d, got))

	// neither asset has a row today
	got, err = s.ComposePortfolio(d, acct, strategy.NewFrame(assets, []string{"close", "fast", "slow"}))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{up: 3}, got)
}

func TestRSIBandComposePortfolio(t *testing.T) {
	a := newAsset(t, "A", []float64{1, 2, 3, 4})
	s, err := NewRSIBand(RSIBandConfig{Period: 2, Low: 30, High: 70, Units: 4})
	require.NoError(t, err)
	d := dates(1)[0]

	frame := func(v float64) *strategy.Frame {
		f := strategy.NewFrame([]*asset.Asset{a}, []string{"close", "rsi"})
		f.SetRow(0, []float64{1, v})
		return f
	}

	acct := account.New(4)
	got, err := s.ComposePortfolio(d, acct, frame(50))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.ComposePortfolio(d, acct, frame(20))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{a: 4}, got)
	require.NoError(t, acct.ProcessStep(d, got))

	got, err = s.ComposePortfolio(d, acct, frame(50))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{a: 4}, got)

	got, err = s.ComposePortfolio(d, acct, frame(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, map[*asset.Asset]float64{a: 4}, got)

	got, err = s.ComposePortfolio(d, acct, frame(90))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRSIColumn(t *testing.T) {
	closes := []float64{10, 11, 10.5, 12, 11.8, 12.5, 13, 12.2}
	out := rsi(closes, 3)
	require.Len(t, out, len(closes))
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(out[i]))
	}
	for _, v := range out[3:] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	assert.True(t, math.IsNaN(rsi([]float64{1, 2}, 3)[1]))
}
