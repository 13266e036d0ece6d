// Package risk sizes positions.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/asset"
)

// Sizing turns a trade signal into a quantity. With Fraction set, the
// quantity is the whole number of units whose notional value fits in that
// fraction of equity; otherwise it is Units.
type Sizing struct {
	Units    float64 `json:"units" yaml:"units"`
	Fraction float64 `json:"fraction,omitempty" yaml:"fraction,omitempty"`
}

func (s Sizing) Validate() error {
	if math.IsNaN(s.Units) || math.IsInf(s.Units, 0) || s.Units < 0 {
		return fmt.Errorf("units must be a non negative number, got %v", s.Units)
	}
	if math.IsNaN(s.Fraction) || s.Fraction < 0 || s.Fraction > 1 {
		return fmt.Errorf("fraction must be within [0, 1], got %v", s.Fraction)
	}
	return nil
}

// Qty returns the unsigned quantity to hold of a at date given the account
// equity. A zero result means the position does not fit.
func (s Sizing) Qty(date time.Time, equity float64, a *asset.Asset) (float64, error) {
	if s.Fraction == 0 {
		return s.Units, nil
	}
	perUnit, err := a.NotionalValueAt(date, 1)
	if err != nil {
		return 0, err
	}
	if perUnit <= 0 || math.IsNaN(perUnit) || equity <= 0 {
		return 0, nil
	}
	return math.Floor(equity * s.Fraction / perUnit), nil
}
