package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/account"
	"github.com/rustyeddy/backtester/report"
)

// NewRun fills a run record from a finished account and its statistics.
func NewRun(runID, strategy string, params map[string]float64, acct *account.Account, assets []string, stats report.Stats) (RunRecord, error) {
	p := "{}"
	if len(params) > 0 {
		b, err := json.Marshal(params)
		if err != nil {
			return RunRecord{}, fmt.Errorf("encode params: %w", err)
		}
		p = string(b)
	}
	r := RunRecord{
		RunID:          runID,
		Created:        time.Now().UTC(),
		Account:        acct.Name(),
		Strategy:       strategy,
		Params:         p,
		Assets:         assets,
		Steps:          acct.Steps(),
		InitialCapital: acct.CapitalInvested(),
		FinalEquity:    acct.EquityExec(),
		Trades:         stats.NumberOfTrades,
		WinRate:        stats.WinRate,
		NetProfit:      stats.NetProfit,
		MaxDD:          stats.MaxDD,
	}
	if dates := acct.Dates(); len(dates) > 0 {
		r.Start = dates[0]
		r.End = dates[len(dates)-1]
	}
	return r, nil
}

// Record writes the run, its transaction log, history and trades.
func Record(j Journal, run RunRecord, acct *account.Account, trades []*report.Trade) error {
	if err := j.RecordRun(run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	txs, err := acct.Transactions()
	if err != nil {
		return err
	}
	for i, tx := range txs {
		ctx, err := encodeContext(tx.Context)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		rec := TransactionRecord{
			RunID:      run.RunID,
			Seq:        i,
			Date:       tx.Date,
			Ticker:     tx.Asset.Ticker(),
			Action:     int(tx.Action),
			Qty:        tx.Qty,
			PriceClose: tx.PriceClose,
			PriceExec:  tx.PriceExec,
			CostsClose: tx.CostsClose,
			CostsExec:  tx.CostsExec,
			PnLClose:   tx.PnLClose,
			PnLExec:    tx.PnLExec,
			Context:    ctx,
		}
		if err := j.RecordTransaction(rec); err != nil {
			return fmt.Errorf("record transaction %d: %w", i, err)
		}
	}

	for _, row := range acct.History() {
		rec := EquityRecord{
			RunID:           run.RunID,
			Date:            row.Date,
			Equity:          row.Equity,
			CapitalInvested: row.CapitalInvested,
			Costs:           row.Costs,
			Margin:          row.Margin,
			PnL:             row.PnL,
		}
		if err := j.RecordEquity(rec); err != nil {
			return fmt.Errorf("record equity at %s: %w", row.Date.Format(time.RFC3339), err)
		}
	}

	for i, t := range trades {
		ctx, err := encodeContext(t.Context)
		if err != nil {
			return fmt.Errorf("trade %d: %w", i, err)
		}
		rec := TradeRecord{
			RunID:         run.RunID,
			Seq:           i,
			Ticker:        t.Ticker,
			Side:          t.Side,
			EntryDate:     t.EntryDate,
			ExitDate:      t.ExitDate,
			NTransactions: t.NTransactions,
			EntryPrice:    t.EntryPrice(),
			ExitPrice:     t.ExitPrice(),
			QtyEntered:    t.QtyEntered,
			QtyExited:     t.QtyExited,
			PnL:           t.PnL,
			PnLPct:        t.PnLPct(),
			Costs:         t.Costs,
			Closed:        t.Closed(),
			Context:       ctx,
		}
		if err := j.RecordTrade(rec); err != nil {
			return fmt.Errorf("record trade %d: %w", i, err)
		}
	}
	return nil
}

func encodeContext(ctx any) (string, error) {
	if ctx == nil {
		return "", nil
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return "", fmt.Errorf("encode context: %w", err)
	}
	return string(b), nil
}
