package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
	"github.com/rustyeddy/backtester/strategy"
	"go.uber.org/zap"
)

// RunnerOptions controls the account the runner creates.
type RunnerOptions struct {
	AccountName    string
	InitialCapital float64
	Logger         *zap.Logger
}

// Runner drives one strategy over a set of assets.
type Runner struct {
	Strategy strategy.Strategy
	Assets   []*asset.Asset
	Options  RunnerOptions
}

// column is the metric table of one asset in the universe.
type column struct {
	asset   *asset.Asset
	metrics *strategy.Metrics
	next    int
}

// Run executes the backtest:
//  1. strategy.Initialize
//  2. strategy.Calculate for every asset, checking the schema and dates
//  3. for each date of the joined calendar, ComposePortfolio then ProcessStep
//
// Any error aborts the run; the partial account is not returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Strategy == nil {
		return nil, fmt.Errorf("%w: strategy is required", ErrMissingComponent)
	}
	if len(r.Assets) == 0 {
		return nil, fmt.Errorf("%w: at least one asset is required", ErrMissingComponent)
	}
	log := r.Options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("strategy", r.Strategy.Name()))

	if err := r.Strategy.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", r.Strategy.Name(), err)
	}

	cols, columns, err := r.collect(log)
	if err != nil {
		log.Error("metric collection failed", zap.Error(err))
		return nil, err
	}
	dates := calendar(cols)

	opts := []account.Option{account.WithLogger(log)}
	if r.Options.AccountName != "" {
		opts = append(opts, account.WithName(r.Options.AccountName))
	}
	if r.Options.InitialCapital != 0 {
		opts = append(opts, account.WithInitialCapital(r.Options.InitialCapital))
	}
	acct := account.New(len(dates), opts...)

	universe := make([]*asset.Asset, len(cols))
	for i, c := range cols {
		universe[i] = c.asset
	}

	log.Info("backtest started",
		zap.Int("assets", len(universe)),
		zap.Int("dates", len(dates)),
		zap.Strings("columns", columns),
	)
	started := time.Now()

	var prev time.Time
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 && !date.After(prev) {
			return nil, fmt.Errorf("%w: %s after %s", ErrOutOfOrderDates, date.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		prev = date

		frame := strategy.NewFrame(universe, columns)
		for j := range cols {
			c := &cols[j]
			if c.next < c.metrics.Len() && c.metrics.Dates[c.next].Equal(date) {
				frame.SetRow(j, c.metrics.Values[c.next])
				c.next++
			}
		}

		targets, err := r.Strategy.ComposePortfolio(date, acct, frame)
		if err != nil {
			log.Error("compose portfolio failed", zap.Time("date", date), zap.Error(err))
			return nil, fmt.Errorf("compose portfolio at %s: %w", date.Format(time.RFC3339), err)
		}
		if err := acct.ProcessStep(date, targets); err != nil {
			log.Error("process step failed", zap.Time("date", date), zap.Error(err))
			return nil, fmt.Errorf("process step at %s: %w", date.Format(time.RFC3339), err)
		}
	}

	res := &Result{
		Strategy: r.Strategy.Name(),
		Account:  acct,
		Universe: universe,
		Dates:    dates,
	}
	if len(dates) > 0 {
		res.Start = dates[0]
		res.End = dates[len(dates)-1]
	}
	log.Info("backtest finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Float64("equity", acct.EquityExec()),
	)
	return res, nil
}

// collect runs Calculate on every asset. Assets without metrics are left
// out of the universe.
func (r *Runner) collect(log *zap.Logger) ([]column, []string, error) {
	var (
		cols    []column
		columns []string
		ref     string
	)
	for _, a := range r.Assets {
		if a == nil {
			return nil, nil, fmt.Errorf("%w: nil asset", ErrMissingComponent)
		}
		m, err := r.Strategy.Calculate(a)
		if err != nil {
			return nil, nil, fmt.Errorf("calculate %s: %w", a, err)
		}
		if m == nil {
			log.Debug("asset excluded", zap.String("ticker", a.Ticker()))
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, a, err)
		}
		for i := 1; i < len(m.Dates); i++ {
			if !m.Dates[i].After(m.Dates[i-1]) {
				return nil, nil, fmt.Errorf("%w: %s metrics row %d at %s", ErrOutOfOrderDates, a, i, m.Dates[i].Format(time.RFC3339))
			}
		}
		if columns == nil {
			columns, ref = m.Columns, a.Ticker()
		} else if !sameColumns(columns, m.Columns) {
			return nil, nil, fmt.Errorf("%w: %s has %v, %s has %v", ErrSchemaMismatch, ref, columns, a, m.Columns)
		}
		cols = append(cols, column{asset: a, metrics: m})
	}
	if len(cols) == 0 {
		return nil, nil, ErrNoMetrics
	}
	return cols, columns, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// calendar is the sorted union of every metric date.
func calendar(cols []column) []time.Time {
	seen := make(map[int64]time.Time)
	for _, c := range cols {
		for _, d := range c.metrics.Dates {
			seen[d.UnixNano()] = d
		}
	}
	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
