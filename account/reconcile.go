package account

import (
	"sort"
	"time"
)

// Reconcile diffs the previous and the next positions at date and returns
// the transactions that move the account from one to the other.
//
// prev may be nil (everything flat). Assets are visited in ticker order,
// but callers should only rely on the totals and on each record.
//
// A sign flip is emitted as two legs: one closing the whole old quantity
// and one opening the new quantity. Adjustments realize PnL on the old
// quantity held over the interval.
//
// A position whose quantity is unchanged still produces a record when its
// price moved: a Hold transaction with Qty 0 and zero costs that carries
// the mark to market PnL at close and at exec. Holds with no price move
// produce nothing. Consumers summing quantities can treat Hold as a no-op.
func Reconcile(date time.Time, next, prev map[string]Entry) ([]Transaction, Totals, error) {
	var (
		txs    []Transaction
		totals Totals
	)

	for _, ticker := range unionKeys(next, prev) {
		old, hadOld := prev[ticker]
		cur, hasCur := next[ticker]

		if hasCur {
			pc, pe, err := cur.Asset.CostsAt(date, cur.Qty)
			if err != nil {
				return nil, Totals{}, err
			}
			totals.PotentialCostsClose += pc
			totals.PotentialCostsExec += pe
		}

		var (
			emitted []Transaction
			err     error
		)
		switch {
		case !hadOld:
			if cur.Qty != 0 {
				emitted, err = openLeg(date, cur, cur.Qty)
			}
		case !hasCur:
			if old.Qty != 0 {
				emitted, err = closeOut(date, old)
			}
		default:
			emitted, err = adjust(date, old, cur)
		}
		if err != nil {
			return nil, Totals{}, err
		}

		for _, tx := range emitted {
			totals.add(tx)
		}
		txs = append(txs, emitted...)
	}
	return txs, totals, nil
}

// openLeg opens qty units at the current prices. Costs are the only PnL.
func openLeg(date time.Time, cur Entry, qty float64) ([]Transaction, error) {
	cc, ce, err := cur.Asset.CostsAt(date, qty)
	if err != nil {
		return nil, err
	}
	return []Transaction{{
		Date:       date,
		Asset:      cur.Asset,
		Action:     Open,
		Qty:        qty,
		PriceClose: cur.Close,
		PriceExec:  cur.Exec,
		CostsClose: cc,
		CostsExec:  ce,
		PnLClose:   cc,
		PnLExec:    ce,
	}}, nil
}

// closeOut closes an old position that is absent from the next portfolio.
func closeOut(date time.Time, old Entry) ([]Transaction, error) {
	a := old.Asset
	cc, ce, err := a.CostsAt(date, -old.Qty)
	if err != nil {
		return nil, err
	}
	pxClose, pxExec, err := a.PriceAt(date)
	if err != nil {
		return nil, err
	}
	pnlClose, pnlExec, err := intervalPnL(date, old, pxClose, pxExec)
	if err != nil {
		return nil, err
	}
	return []Transaction{{
		Date:       date,
		Asset:      a,
		Action:     Close,
		Qty:        -old.Qty,
		PriceClose: pxClose,
		PriceExec:  pxExec,
		CostsClose: cc,
		CostsExec:  ce,
		PnLClose:   pnlClose + cc,
		PnLExec:    pnlExec + ce,
	}}, nil
}

// adjust handles an asset present in both portfolios.
func adjust(date time.Time, old, cur Entry) ([]Transaction, error) {
	pnlClose, pnlExec, err := intervalPnL(date, old, cur.Close, cur.Exec)
	if err != nil {
		return nil, err
	}

	delta := cur.Qty - old.Qty
	if delta == 0 {
		if cur.Qty == 0 || (pnlClose == 0 && pnlExec == 0) {
			return nil, nil
		}
		return []Transaction{{
			Date:       date,
			Asset:      cur.Asset,
			Action:     Hold,
			PriceClose: cur.Close,
			PriceExec:  cur.Exec,
			PnLClose:   pnlClose,
			PnLExec:    pnlExec,
		}}, nil
	}

	reversal := (old.Qty > 0 && cur.Qty < 0) || (old.Qty < 0 && cur.Qty > 0)

	qty := delta
	action := Hold
	switch {
	case reversal:
		qty = -old.Qty
		action = Close
	case abs(cur.Qty) > abs(old.Qty):
		action = Open
	case abs(cur.Qty) < abs(old.Qty):
		action = Close
	}

	cc, ce, err := cur.Asset.CostsAt(date, qty)
	if err != nil {
		return nil, err
	}
	out := []Transaction{{
		Date:       date,
		Asset:      cur.Asset,
		Action:     action,
		Qty:        qty,
		PriceClose: cur.Close,
		PriceExec:  cur.Exec,
		CostsClose: cc,
		CostsExec:  ce,
		PnLClose:   pnlClose + cc,
		PnLExec:    pnlExec + ce,
	}}

	if reversal {
		leg, err := openLeg(date, cur, cur.Qty)
		if err != nil {
			return nil, err
		}
		out = append(out, leg...)
	}
	return out, nil
}

// intervalPnL is the PnL of holding old.Qty from the old prices to the given ones.
func intervalPnL(date time.Time, old Entry, pxClose, pxExec float64) (float64, float64, error) {
	pnlClose, err := old.Asset.PnLBetween(date, old.Close, pxClose, old.Qty)
	if err != nil {
		return 0, 0, err
	}
	pnlExec, err := old.Asset.PnLBetween(date, old.Exec, pxExec, old.Qty)
	if err != nil {
		return 0, 0, err
	}
	return pnlClose, pnlExec, nil
}

func unionKeys(a, b map[string]Entry) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
