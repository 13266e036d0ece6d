package backtest

import "errors"

var (
	ErrSchemaMismatch   = errors.New("backtest: metric columns differ between assets")
	ErrOutOfOrderDates  = errors.New("backtest: dates are not strictly increasing")
	ErrNoMetrics        = errors.New("backtest: no asset produced metrics")
	ErrMissingComponent = errors.New("backtest: runner is missing a component")
)
