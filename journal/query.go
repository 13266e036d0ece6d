package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("journal: not found")

const runColumns = `run_id, created, account, strategy, params, assets, start_date, end_date, steps,
	initial_capital, final_equity, trades, win_rate, net_profit, max_dd`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		r      RunRecord
		assets string
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.Account, &r.Strategy, &r.Params, &assets,
		&r.Start, &r.End, &r.Steps,
		(*nullReal)(&r.InitialCapital), (*nullReal)(&r.FinalEquity), &r.Trades,
		(*nullReal)(&r.WinRate), (*nullReal)(&r.NetProfit), (*nullReal)(&r.MaxDD),
	)
	if err != nil {
		return RunRecord{}, err
	}
	if assets != "" {
		r.Assets = strings.Split(assets, ",")
	}
	return r, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("%w: run %q", ErrNotFound, runID)
		}
		return RunRecord{}, err
	}
	return r, nil
}

// ListRuns returns every run, newest first.
func (j *SQLite) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTransactions returns the transaction log of a run in log order.
func (j *SQLite) ListTransactions(ctx context.Context, runID string) ([]TransactionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, date, ticker, action, qty, price_close, price_exec,
		       costs_close, costs_exec, pnl_close, pnl_exec, context
		FROM transactions
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionRecord
	for rows.Next() {
		var t TransactionRecord
		if err := rows.Scan(
			&t.RunID, &t.Seq, &t.Date, &t.Ticker, &t.Action,
			(*nullReal)(&t.Qty),
			(*nullReal)(&t.PriceClose),
			(*nullReal)(&t.PriceExec),
			(*nullReal)(&t.CostsClose),
			(*nullReal)(&t.CostsExec),
			(*nullReal)(&t.PnLClose),
			(*nullReal)(&t.PnLExec),
			&t.Context,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns the history rows of a run in date order.
func (j *SQLite) ListEquity(ctx context.Context, runID string) ([]EquityRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, date, equity, capital_invested, costs, margin, pnl
		FROM equity
		WHERE run_id = ?
		ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(
			&e.RunID, &e.Date,
			(*nullReal)(&e.Equity),
			(*nullReal)(&e.CapitalInvested),
			(*nullReal)(&e.Costs),
			(*nullReal)(&e.Margin),
			(*nullReal)(&e.PnL),
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const tradeColumns = `run_id, seq, ticker, side, entry_date, exit_date, n_transactions, entry_price, exit_price,
	qty_entered, qty_exited, pnl, pnl_pct, costs, closed, context`

func (j *SQLite) queryTrades(ctx context.Context, query string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.RunID, &t.Seq, &t.Ticker, &t.Side, &t.EntryDate, &t.ExitDate, &t.NTransactions,
			(*nullReal)(&t.EntryPrice),
			(*nullReal)(&t.ExitPrice),
			(*nullReal)(&t.QtyEntered),
			(*nullReal)(&t.QtyExited),
			(*nullReal)(&t.PnL),
			(*nullReal)(&t.PnLPct),
			(*nullReal)(&t.Costs),
			&t.Closed, &t.Context,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns the trades of a run in report order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]TradeRecord, error) {
	return j.queryTrades(ctx, `SELECT `+tradeColumns+` FROM trades WHERE run_id = ? ORDER BY seq ASC`, runID)
}

// ListTradesClosedBetween returns closed trades, across runs, whose exit
// date is within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]TradeRecord, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE closed = 1 AND exit_date >= ? AND exit_date < ?
		ORDER BY exit_date ASC, run_id ASC, seq ASC`, start, end)
}
