package journal

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CSV file names written by CSVJournal.
const (
	RunsFile         = "runs.csv"
	TransactionsFile = "transactions.csv"
	EquityFile       = "equity.csv"
	TradesFile       = "trades.csv"
)

var (
	runsHeader = []string{"run_id", "created", "account", "strategy", "params", "assets", "start_date", "end_date",
		"steps", "initial_capital", "final_equity", "trades", "win_rate", "net_profit", "max_dd"}
	transactionsHeader = []string{"run_id", "seq", "date", "ticker", "action", "qty", "price_close", "price_exec",
		"costs_close", "costs_exec", "pnl_close", "pnl_exec", "context"}
	equityHeader = []string{"run_id", "date", "equity", "capital_invested", "costs", "margin", "pnl"}
	tradesHeader = []string{"run_id", "seq", "ticker", "side", "entry_date", "exit_date", "n_transactions",
		"entry_price", "exit_price", "qty_entered", "qty_exited", "pnl", "pnl_pct", "costs", "closed", "context"}
)

type csvFile struct {
	f *os.File
	w *csv.Writer
}

func createCSV(path string, header []string) (*csvFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &csvFile{f: f, w: w}, nil
}

func (c *csvFile) write(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvFile) close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}

// CSVJournal writes one CSV file per record kind into a directory.
type CSVJournal struct {
	runs, transactions, equity, trades *csvFile
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	j := &CSVJournal{}
	var err error
	if j.runs, err = createCSV(filepath.Join(dir, RunsFile), runsHeader); err != nil {
		return nil, err
	}
	if j.transactions, err = createCSV(filepath.Join(dir, TransactionsFile), transactionsHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if j.equity, err = createCSV(filepath.Join(dir, EquityFile), equityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if j.trades, err = createCSV(filepath.Join(dir, TradesFile), tradesHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	return j.runs.write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Account,
		r.Strategy,
		r.Params,
		strings.Join(r.Assets, " "),
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		strconv.Itoa(r.Steps),
		f(r.InitialCapital),
		f(r.FinalEquity),
		strconv.Itoa(r.Trades),
		f(r.WinRate),
		f(r.NetProfit),
		f(r.MaxDD),
	})
}

func (j *CSVJournal) RecordTransaction(t TransactionRecord) error {
	return j.transactions.write([]string{
		t.RunID,
		strconv.Itoa(t.Seq),
		t.Date.Format(time.RFC3339),
		t.Ticker,
		strconv.Itoa(t.Action),
		f(t.Qty),
		f(t.PriceClose),
		f(t.PriceExec),
		f(t.CostsClose),
		f(t.CostsExec),
		f(t.PnLClose),
		f(t.PnLExec),
		t.Context,
	})
}

func (j *CSVJournal) RecordEquity(e EquityRecord) error {
	return j.equity.write([]string{
		e.RunID,
		e.Date.Format(time.RFC3339),
		f(e.Equity),
		f(e.CapitalInvested),
		f(e.Costs),
		f(e.Margin),
		f(e.PnL),
	})
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.trades.write([]string{
		t.RunID,
		strconv.Itoa(t.Seq),
		t.Ticker,
		strconv.Itoa(t.Side),
		t.EntryDate.Format(time.RFC3339),
		t.ExitDate.Format(time.RFC3339),
		strconv.Itoa(t.NTransactions),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.QtyEntered),
		f(t.QtyExited),
		f(t.PnL),
		f(t.PnLPct),
		f(t.Costs),
		strconv.FormatBool(t.Closed),
		t.Context,
	})
}

func (j *CSVJournal) Close() error {
	var first error
	for _, c := range []*csvFile{j.runs, j.transactions, j.equity, j.trades} {
		if c == nil {
			continue
		}
		if err := c.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// f formats a float, writing NaN as an empty cell.
func f(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
