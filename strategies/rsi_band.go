package strategies

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategy"
	"github.com/thrasher-corp/gct-ta/indicators"
)

type RSIBandConfig struct {
	Period   int     `json:"period" yaml:"period"`
	Low      float64 `json:"low" yaml:"low"`
	High     float64 `json:"high" yaml:"high"`
	Units    float64 `json:"units" yaml:"units"`
	Fraction float64 `json:"fraction,omitempty" yaml:"fraction,omitempty"`
}

// RSIBand buys when the RSI of the close falls below Low and sells
// out once it rises above High.
type RSIBand struct {
	RSIBandConfig
}

func NewRSIBand(cfg RSIBandConfig) (*RSIBand, error) {
	if cfg.Period <= 1 {
		return nil, fmt.Errorf("rsi_band: period must be above 1, got %d", cfg.Period)
	}
	if cfg.Low < 0 || cfg.High > 100 || cfg.Low >= cfg.High {
		return nil, fmt.Errorf("rsi_band: need 0 <= low < high <= 100, got low=%v high=%v", cfg.Low, cfg.High)
	}
	if cfg.Units == 0 {
		cfg.Units = 1
	}
	if err := (risk.Sizing{Units: cfg.Units, Fraction: cfg.Fraction}).Validate(); err != nil {
		return nil, fmt.Errorf("rsi_band: %w", err)
	}
	return &RSIBand{RSIBandConfig: cfg}, nil
}

func (s *RSIBand) Name() string      { return "rsi_band" }
func (s *RSIBand) Initialize() error { return nil }

func (s *RSIBand) Calculate(a *asset.Asset) (*strategy.Metrics, error) {
	q := a.Quotes()
	m := strategy.NewMetrics(q.Dates, "close", "rsi")
	if err := m.SetColumn("close", q.Close); err != nil {
		return nil, err
	}
	if err := m.SetColumn("rsi", rsi(q.Close, s.Period)); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *RSIBand) ComposePortfolio(date time.Time, acct *account.Account, f *strategy.Frame) (map[*asset.Asset]float64, error) {
	out := make(map[*asset.Asset]float64)
	for _, it := range f.Items() {
		ticker := it.Asset.Ticker()
		r := it.Row.Get("rsi")
		pos, held := acct.Position(ticker)
		holding := held && pos.Qty != 0

		switch {
		case !isFinite(r):
			if holding {
				out[it.Asset] = pos.Qty
			}
		case !holding && r < s.Low:
			units, err := risk.Sizing{Units: s.Units, Fraction: s.Fraction}.Qty(date, acct.Equity(), it.Asset)
			if err != nil {
				return nil, err
			}
			if units > 0 {
				acct.Annotate(ticker, map[string]float64{"rsi": r})
				out[it.Asset] = units
			}
		case holding && r > s.High:
			acct.Annotate(ticker, map[string]float64{"rsi": r})
		case holding:
			out[it.Asset] = pos.Qty
		}
	}
	return out, nil
}

// rsi is NaN until period price changes are available.
func rsi(in []float64, period int) []float64 {
	out := nanSlice(len(in))
	if len(in) <= period {
		return out
	}
	vals := indicators.RSI(in, period)
	copy(out[period:], vals[period:])
	return out
}
