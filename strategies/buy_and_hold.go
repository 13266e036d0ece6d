package strategies

import (
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategy"
)

// BuyAndHold buys every asset on its first priced date and holds it. With
// Fraction set each asset is sized to that share of equity when bought.
type BuyAndHold struct {
	Units    float64
	Fraction float64
}

func (s *BuyAndHold) Name() string      { return "buy_and_hold" }
func (s *BuyAndHold) Initialize() error { return nil }

func (s *BuyAndHold) Calculate(a *asset.Asset) (*strategy.Metrics, error) {
	return closeMetrics(a)
}

func (s *BuyAndHold) ComposePortfolio(date time.Time, acct *account.Account, f *strategy.Frame) (map[*asset.Asset]float64, error) {
	out := make(map[*asset.Asset]float64)
	for _, it := range f.Items() {
		if pos, held := acct.Position(it.Asset.Ticker()); held {
			out[it.Asset] = pos.Qty
			continue
		}
		if !isFinite(it.Row.Get("close")) {
			continue
		}
		units, err := risk.Sizing{Units: s.Units, Fraction: s.Fraction}.Qty(date, acct.Equity(), it.Asset)
		if err != nil {
			return nil, err
		}
		if units > 0 {
			out[it.Asset] = units
		}
	}
	return out, nil
}
