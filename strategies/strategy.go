package strategies

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategy"
)

// Params are the numeric knobs of a strategy, as read from the config file.
type Params map[string]float64

// Get returns the named parameter or def when it is absent.
func (p Params) Get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Factory builds a strategy from its parameters.
type Factory func(p Params) (strategy.Strategy, error)

var registry = make(map[string]Factory)

func Register(name string, f Factory) {
	registry[normalize(name)] = f
}

// Names lists the registered strategies.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// StrategyByName builds the named strategy.
func StrategyByName(name string, p Params) (strategy.Strategy, error) {
	f, ok := registry[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(p)
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

func init() {
	Register("noop", func(Params) (strategy.Strategy, error) { return Noop{}, nil })
	Register("buy_and_hold", func(p Params) (strategy.Strategy, error) {
		s := &BuyAndHold{Units: p.Get("units", 1), Fraction: p.Get("fraction", 0)}
		if err := (risk.Sizing{Units: s.Units, Fraction: s.Fraction}).Validate(); err != nil {
			return nil, fmt.Errorf("buy_and_hold: %w", err)
		}
		return s, nil
	})
	Register("ma_cross", func(p Params) (strategy.Strategy, error) {
		return NewMACross(MACrossConfig{
			Fast:       int(p.Get("fast", 10)),
			Slow:       int(p.Get("slow", 30)),
			Units:      p.Get("units", 1),
			Fraction:   p.Get("fraction", 0),
			AllowShort: p.Get("allow_short", 0) != 0,
		})
	})
	Register("rsi_band", func(p Params) (strategy.Strategy, error) {
		return NewRSIBand(RSIBandConfig{
			Period:   int(p.Get("period", 14)),
			Low:      p.Get("low", 30),
			High:     p.Get("high", 70),
			Units:    p.Get("units", 1),
			Fraction: p.Get("fraction", 0),
		})
	})
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
