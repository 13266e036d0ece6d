package strategies

import (
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
	"github.com/rustyeddy/backtester/strategy"
)

// Noop never trades. Its only metric is the close price.
type Noop struct{}

func (Noop) Name() string      { return "noop" }
func (Noop) Initialize() error { return nil }

func (Noop) Calculate(a *asset.Asset) (*strategy.Metrics, error) {
	return closeMetrics(a)
}

func (Noop) ComposePortfolio(time.Time, *account.Account, *strategy.Frame) (map[*asset.Asset]float64, error) {
	return map[*asset.Asset]float64{}, nil
}

func closeMetrics(a *asset.Asset) (*strategy.Metrics, error) {
	q := a.Quotes()
	m := strategy.NewMetrics(q.Dates, "close")
	if err := m.SetColumn("close", q.Close); err != nil {
		return nil, err
	}
	return m, nil
}
