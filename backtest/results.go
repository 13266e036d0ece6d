package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/asset"
	"github.com/rustyeddy/backtester/report"
)

// Result is a finished run.
type Result struct {
	Strategy string
	Account  *account.Account
	Universe []*asset.Asset
	Dates    []time.Time

	Start time.Time
	End   time.Time
}

// Report builds the trade report of the run's account.
func (r *Result) Report() (*report.Report, error) {
	return report.New(r.Account)
}

// PrintResult writes a human readable summary of a run.
func PrintResult(w io.Writer, r *Result, s report.Stats) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Account:       %s\n", r.Account.Name())
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Assets:        %d\n", len(r.Universe))
	if !r.Start.IsZero() {
		fmt.Fprintf(w, "Period:        %s -> %s (%d steps)\n",
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), len(r.Dates))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Account")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Capital:       %.2f\n", r.Account.CapitalInvested())
	fmt.Fprintf(w, "Equity:        %.2f\n", r.Account.EquityExec())
	fmt.Fprintf(w, "Margin:        %.2f\n", r.Account.Margin())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Trades")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.NumberOfTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate*100)
	fmt.Fprintf(w, "Net Profit:    %.2f\n", s.NetProfit)
	fmt.Fprintf(w, "Max Drawdown:  %.2f\n", s.MaxDD)
	fmt.Fprintln(w, "==================================================")
}
