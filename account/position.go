package account

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/asset"
)

// Entry is a held position: signed quantity plus the close and exec prices
// it was last valued at.
type Entry struct {
	Asset *asset.Asset
	Qty   float64
	Close float64
	Exec  float64
}

// PositionInfo is the public view of an open position.
type PositionInfo struct {
	Asset *asset.Asset
	Qty   float64
}

func (p PositionInfo) String() string {
	return fmt.Sprintf("%s x %v", p.Asset, p.Qty)
}

// Action classifies a transaction by its effect on position size.
type Action int8

const (
	Close Action = -1
	Hold  Action = 0
	Open  Action = 1
)

func (a Action) String() string {
	switch a {
	case Open:
		return "open"
	case Close:
		return "close"
	}
	return "hold"
}

// Transaction is one emitted trade. Costs are always <= 0 and are already
// included in the PnL fields.
type Transaction struct {
	Date   time.Time
	Asset  *asset.Asset
	Action Action
	Qty    float64

	PriceClose float64
	PriceExec  float64
	CostsClose float64
	CostsExec  float64
	PnLClose   float64
	PnLExec    float64

	// Context is an optional payload attached with Account.Annotate.
	Context any
}

// Totals aggregates one reconciliation step.
type Totals struct {
	PnLClose   float64
	PnLExec    float64
	CostsClose float64
	CostsExec  float64

	// Potential costs are the costs of closing every new position right
	// away. They feed the cost model of synthetic assets.
	PotentialCostsClose float64
	PotentialCostsExec  float64
}

func (t *Totals) add(tx Transaction) {
	t.PnLClose += tx.PnLClose
	t.PnLExec += tx.PnLExec
	t.CostsClose += tx.CostsClose
	t.CostsExec += tx.CostsExec
}
