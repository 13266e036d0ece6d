package strategies

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategy"
	"github.com/thrasher-corp/gct-ta/indicators"
)

type MACrossConfig struct {
	Fast       int     `json:"fast" yaml:"fast"`
	Slow       int     `json:"slow" yaml:"slow"`
	Units      float64 `json:"units" yaml:"units"`
	Fraction   float64 `json:"fraction,omitempty" yaml:"fraction,omitempty"`
	AllowShort bool    `json:"allow_short" yaml:"allow_short"`
}

// MACross is long while the fast simple moving average of the close is
// above the slow one. Below it, the position is short when AllowShort is set
// and flat otherwise. Positions are sized by Units, or by Fraction of equity
// when set, and keep their size until the signal flips.
type MACross struct {
	MACrossConfig
}

func NewMACross(cfg MACrossConfig) (*MACross, error) {
	if cfg.Fast <= 0 || cfg.Slow <= 0 {
		return nil, fmt.Errorf("ma_cross: periods must be positive, got fast=%d slow=%d", cfg.Fast, cfg.Slow)
	}
	if cfg.Fast >= cfg.Slow {
		return nil, fmt.Errorf("ma_cross: fast period %d must be below slow period %d", cfg.Fast, cfg.Slow)
	}
	if cfg.Units == 0 {
		cfg.Units = 1
	}
	if err := cfg.sizing().Validate(); err != nil {
		return nil, fmt.Errorf("ma_cross: %w", err)
	}
	return &MACross{MACrossConfig: cfg}, nil
}

func (s *MACross) Name() string      { return "ma_cross" }
func (s *MACross) Initialize() error { return nil }

func (s *MACross) Calculate(a *asset.Asset) (*strategy.Metrics, error) {
	q := a.Quotes()
	m := strategy.NewMetrics(q.Dates, "close", "fast", "slow")
	if err := m.SetColumn("close", q.Close); err != nil {
		return nil, err
	}
	if err := m.SetColumn("fast", sma(q.Close, s.Fast)); err != nil {
		return nil, err
	}
	if err := m.SetColumn("slow", sma(q.Close, s.Slow)); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MACross) ComposePortfolio(date time.Time, acct *account.Account, f *strategy.Frame) (map[*asset.Asset]float64, error) {
	out := make(map[*asset.Asset]float64)
	for _, it := range f.Items() {
		fast, slow := it.Row.Get("fast"), it.Row.Get("slow")
		pos, held := acct.Position(it.Asset.Ticker())
		if !isFinite(fast) || !isFinite(slow) {
			// no row for this date: carry the position
			if held && pos.Qty != 0 {
				out[it.Asset] = pos.Qty
			}
			continue
		}
		var dir float64
		switch {
		case fast > slow:
			dir = 1
		case fast < slow && s.AllowShort:
			dir = -1
		}
		if dir == 0 {
			continue
		}
		if held && pos.Qty*dir > 0 {
			out[it.Asset] = pos.Qty
			continue
		}
		units, err := s.sizing().Qty(date, acct.Equity(), it.Asset)
		if err != nil {
			return nil, err
		}
		if units == 0 {
			continue
		}
		acct.Annotate(it.Asset.Ticker(), map[string]float64{"fast": fast, "slow": slow})
		out[it.Asset] = dir * units
	}
	return out, nil
}

func (c MACrossConfig) sizing() risk.Sizing {
	return risk.Sizing{Units: c.Units, Fraction: c.Fraction}
}

// sma is the simple moving average with NaN before the first full window.
func sma(in []float64, period int) []float64 {
	out := nanSlice(len(in))
	if period <= 0 || len(in) < period {
		return out
	}
	vals := indicators.SMA(in, period)
	copy(out[period-1:], vals[period-1:])
	return out
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
