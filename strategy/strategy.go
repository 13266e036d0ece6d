package strategy

import (
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
)

// Strategy is driven once per asset to compute metrics, then once per date
// to decide the portfolio.
type Strategy interface {
	Name() string

	// Initialize resets any cached state before a run.
	Initialize() error

	// Calculate returns the per-date metrics of a. A nil table excludes the
	// asset from the run. Every asset must produce the same columns in the
	// same order.
	Calculate(a *asset.Asset) (*Metrics, error)

	// ComposePortfolio returns the target quantities at date. acct reflects
	// the previous date and f holds the metrics at date.
	ComposePortfolio(date time.Time, acct *account.Account, f *Frame) (map[*asset.Asset]float64, error)
}
