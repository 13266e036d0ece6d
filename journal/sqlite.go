package journal

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, account, strategy, params, assets, start_date, end_date, steps,
		 initial_capital, final_equity, trades, win_rate, net_profit, max_dd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Account, r.Strategy, r.Params, strings.Join(r.Assets, ","),
		r.Start, r.End, r.Steps,
		nullReal(r.InitialCapital), nullReal(r.FinalEquity), r.Trades,
		nullReal(r.WinRate), nullReal(r.NetProfit), nullReal(r.MaxDD),
	)
	return err
}

func (j *SQLite) RecordTransaction(t TransactionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO transactions
		(run_id, seq, date, ticker, action, qty, price_close, price_exec,
		 costs_close, costs_exec, pnl_close, pnl_exec, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Seq, t.Date, t.Ticker, t.Action, nullReal(t.Qty),
		nullReal(t.PriceClose), nullReal(t.PriceExec), nullReal(t.CostsClose), nullReal(t.CostsExec),
		nullReal(t.PnLClose), nullReal(t.PnLExec), t.Context,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, date, equity, capital_invested, costs, margin, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Date, nullReal(e.Equity), nullReal(e.CapitalInvested),
		nullReal(e.Costs), nullReal(e.Margin), nullReal(e.PnL),
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, seq, ticker, side, entry_date, exit_date, n_transactions, entry_price, exit_price,
		 qty_entered, qty_exited, pnl, pnl_pct, costs, closed, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Seq, t.Ticker, t.Side, t.EntryDate, t.ExitDate, t.NTransactions,
		nullReal(t.EntryPrice), nullReal(t.ExitPrice), nullReal(t.QtyEntered), nullReal(t.QtyExited),
		nullReal(t.PnL), nullReal(t.PnLPct), nullReal(t.Costs), t.Closed, t.Context,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
