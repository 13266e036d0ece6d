package report

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/account"
)

// Trade is one round trip in a single asset: from the first opening
// transaction until the signed quantity returns to zero.
type Trade struct {
	Ticker        string
	EntryDate     time.Time
	ExitDate      time.Time
	Side          int
	NTransactions int
	QtyEntered    float64
	QtyExited     float64
	PnL           float64
	Costs         float64
	Context       any

	qty        float64
	entryValue float64
	exitValue  float64
	closed     bool
}

// NewTrade starts a trade from an opening transaction.
func NewTrade(tx account.Transaction) (*Trade, error) {
	if tx.Action != account.Open {
		return nil, fmt.Errorf("%w: trade for %s must start with an opening transaction, got %s", ErrInvariantViolation, tx.Asset, tx.Action)
	}
	if tx.Asset == nil {
		return nil, fmt.Errorf("%w: transaction without asset", ErrInvariantViolation)
	}
	qty := math.Abs(tx.Qty)
	px, pnl, costs := fill(tx)
	side := 1
	if tx.Qty < 0 {
		side = -1
	}
	return &Trade{
		Ticker:        tx.Asset.Ticker(),
		EntryDate:     tx.Date,
		ExitDate:      tx.Date,
		Side:          side,
		NTransactions: 1,
		QtyEntered:    qty,
		PnL:           pnl,
		Costs:         costs,
		Context:       tx.Context,
		qty:           tx.Qty,
		entryValue:    px * qty,
	}, nil
}

// Add folds a later transaction of the same asset into the trade.
func (t *Trade) Add(tx account.Transaction) error {
	if t.closed {
		return fmt.Errorf("%w: trade in %s opened %s is already closed", ErrInvariantViolation, t.Ticker, t.EntryDate.Format(time.RFC3339))
	}
	if tx.Asset == nil || tx.Asset.Ticker() != t.Ticker {
		return fmt.Errorf("%w: transaction for %v added to trade in %s", ErrInvariantViolation, tx.Asset, t.Ticker)
	}
	next := t.qty + tx.Qty
	if math.Abs(next) <= qtyTolerance*math.Max(t.QtyEntered, math.Abs(t.qty)) {
		next = 0
	}
	if (t.qty > 0 && next < 0) || (t.qty < 0 && next > 0) {
		return fmt.Errorf("%w: %s position reversed from %v to %v in one transaction at %s",
			ErrInvariantViolation, t.Ticker, t.qty, next, tx.Date.Format(time.RFC3339))
	}

	px, pnl, costs := fill(tx)
	t.PnL += pnl
	t.Costs += costs
	t.qty = next
	t.ExitDate = tx.Date

	switch tx.Action {
	case account.Open:
		t.QtyEntered += math.Abs(tx.Qty)
		t.entryValue += px * math.Abs(tx.Qty)
		t.NTransactions++
	case account.Close:
		t.QtyExited += math.Abs(tx.Qty)
		t.exitValue += px * math.Abs(tx.Qty)
		t.NTransactions++
		if t.qty == 0 {
			t.closed = true
		}
	}
	return nil
}

// Closed reports whether the position has been fully exited.
func (t *Trade) Closed() bool { return t.closed }

// EntryPrice is the quantity weighted average entry price, NaN with no entries.
func (t *Trade) EntryPrice() float64 {
	if t.QtyEntered <= 0 {
		return math.NaN()
	}
	return t.entryValue / t.QtyEntered
}

// ExitPrice is the quantity weighted average exit price, NaN with no exits.
func (t *Trade) ExitPrice() float64 {
	if t.QtyExited <= 0 {
		return math.NaN()
	}
	return t.exitValue / t.QtyExited
}

// PnLPct is the PnL as a percentage of the value entered.
func (t *Trade) PnLPct() float64 {
	if t.entryValue == 0 {
		return math.NaN()
	}
	return t.PnL / math.Abs(t.entryValue) * 100
}

func (t *Trade) String() string {
	return fmt.Sprintf("%s side=%d entry=%s exit=%s pnl=%.2f", t.Ticker, t.Side,
		t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"), t.PnL)
}

// qtyTolerance is the relative residue below which a summed quantity is
// taken as flat. Fractional legs rarely add back to exactly zero.
const qtyTolerance = 1e-9

// fill returns the price, PnL and costs of tx valued at execution when its
// exec PnL is finite, and at the close otherwise, so the three always come
// from the same side.
func fill(tx account.Transaction) (px, pnl, costs float64) {
	if isFinite(tx.PnLExec) {
		return pick(tx.PriceExec, tx.PriceClose), tx.PnLExec, pick(tx.CostsExec, tx.CostsClose)
	}
	return pick(tx.PriceClose, 0), pick(tx.PnLClose, 0), pick(tx.CostsClose, 0)
}

// pick returns exec unless it is not finite, then close. A non-finite close
// counts as zero.
func pick(exec, close float64) float64 {
	if isFinite(exec) {
		return exec
	}
	if isFinite(close) {
		return close
	}
	return 0
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Trades stitches a date-ordered transaction log into trades. Closed trades
// come first in the order they closed, then the trades still open in the
// order they were opened.
func Trades(txs []account.Transaction) ([]*Trade, error) {
	var (
		done   []*Trade
		open   = make(map[string]*Trade)
		opened []*Trade
	)
	for i, tx := range txs {
		if i > 0 && tx.Date.Before(txs[i-1].Date) {
			return nil, fmt.Errorf("%w: transaction %d at %s precedes %s", ErrInvariantViolation, i,
				tx.Date.Format(time.RFC3339), txs[i-1].Date.Format(time.RFC3339))
		}
		if tx.Asset == nil {
			return nil, fmt.Errorf("%w: transaction %d has no asset", ErrInvariantViolation, i)
		}
		ticker := tx.Asset.Ticker()
		t, ok := open[ticker]
		if !ok {
			nt, err := NewTrade(tx)
			if err != nil {
				return nil, err
			}
			open[ticker] = nt
			opened = append(opened, nt)
			continue
		}
		if err := t.Add(tx); err != nil {
			return nil, err
		}
		if t.Closed() {
			done = append(done, t)
			delete(open, ticker)
		}
	}
	for _, t := range opened {
		if !t.Closed() {
			done = append(done, t)
		}
	}
	return done, nil
}
