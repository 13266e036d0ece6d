package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/rustyeddy/backtester/account"
)

// Stats summarizes one account.
type Stats struct {
	NumberOfTrades int
	WinRate        float64
	NetProfit      float64
	MaxDD          float64
}

// Result is everything the report keeps for one account.
type Result struct {
	Account string
	Stats   Stats
	History []account.HistoryRow
	Trades  []*Trade
}

// Report holds the results of one or more accounts, keyed by account name.
type Report struct {
	order   []string
	results map[string]*Result
}

// New builds a report over the given accounts. Account names must be unique.
func New(accounts ...*account.Account) (*Report, error) {
	r := &Report{results: make(map[string]*Result, len(accounts))}
	for _, acct := range accounts {
		if _, dup := r.results[acct.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAccount, acct.Name())
		}
		res, err := build(acct)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", acct.Name(), err)
		}
		r.order = append(r.order, acct.Name())
		r.results[acct.Name()] = res
	}
	return r, nil
}

func build(acct *account.Account) (*Result, error) {
	txs, err := acct.Transactions()
	if err != nil {
		return nil, err
	}
	trades, err := Trades(txs)
	if err != nil {
		return nil, err
	}
	hist := acct.History()
	return &Result{
		Account: acct.Name(),
		Stats:   computeStats(trades, hist),
		History: hist,
		Trades:  trades,
	}, nil
}

func computeStats(trades []*Trade, hist []account.HistoryRow) Stats {
	s := Stats{
		NumberOfTrades: len(trades),
		WinRate:        math.NaN(),
		NetProfit:      math.NaN(),
		MaxDD:          math.NaN(),
	}
	if len(trades) == 0 || len(hist) == 0 {
		return s
	}

	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
	}
	s.WinRate = float64(wins) / float64(len(trades))

	last, peak, dd := math.NaN(), math.Inf(-1), math.NaN()
	for _, row := range hist {
		if !math.IsNaN(row.Equity) {
			last = row.Equity
		}
		if math.IsNaN(last) {
			continue
		}
		peak = math.Max(peak, last)
		if d := last - peak; math.IsNaN(dd) || d < dd {
			dd = d
		}
	}
	s.NetProfit = last
	s.MaxDD = dd
	return s
}

// Accounts returns the account names in the order they were added.
func (r *Report) Accounts() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Result returns the result for the named account.
func (r *Report) Result(name string) (*Result, bool) {
	res, ok := r.results[name]
	return res, ok
}

// Stats returns the statistics of every account.
func (r *Report) Stats() map[string]Stats {
	out := make(map[string]Stats, len(r.results))
	for name, res := range r.results {
		out[name] = res.Stats
	}
	return out
}

// Series returns one history column (see account.HistoryColumn) for
// every account.
func (r *Report) Series(column string) (map[string][]float64, error) {
	switch column {
	case account.ColEquity, account.ColCapitalInvested, account.ColCosts, account.ColMargin, account.ColPnL:
	default:
		return nil, fmt.Errorf("unknown series %q", column)
	}
	out := make(map[string][]float64, len(r.results))
	for name, res := range r.results {
		vals := make([]float64, len(res.History))
		for i, row := range res.History {
			switch column {
			case account.ColEquity:
				vals[i] = row.Equity
			case account.ColCapitalInvested:
				vals[i] = row.CapitalInvested
			case account.ColCosts:
				vals[i] = row.Costs
			case account.ColMargin:
				vals[i] = row.Margin
			case account.ColPnL:
				vals[i] = row.PnL
			}
		}
		out[name] = vals
	}
	return out, nil
}

// Trades returns the trade list of the named account.
func (r *Report) Trades(name string) []*Trade {
	if res, ok := r.results[name]; ok {
		return res.Trades
	}
	return nil
}

// WriteStats prints a one line per account statistics table.
func (r *Report) WriteStats(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tTRADES\tWIN RATE\tNET PROFIT\tMAX DD")
	for _, name := range r.order {
		s := r.results[name].Stats
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", name, s.NumberOfTrades, s.WinRate, s.NetProfit, s.MaxDD)
	}
	return tw.Flush()
}
