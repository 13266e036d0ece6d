package journal

// Schema creates the journal tables. Real columns are nullable: NaN is
// stored as NULL.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	account TEXT NOT NULL,
	strategy TEXT NOT NULL,
	params TEXT NOT NULL,
	assets TEXT NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	steps INTEGER NOT NULL,
	initial_capital REAL,
	final_equity REAL,
	trades INTEGER NOT NULL,
	win_rate REAL,
	net_profit REAL,
	max_dd REAL
);

CREATE TABLE IF NOT EXISTS transactions (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	date DATETIME NOT NULL,
	ticker TEXT NOT NULL,
	action INTEGER NOT NULL,
	qty REAL,
	price_close REAL,
	price_exec REAL,
	costs_close REAL,
	costs_exec REAL,
	pnl_close REAL,
	pnl_exec REAL,
	context TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	equity REAL,
	capital_invested REAL,
	costs REAL,
	margin REAL,
	pnl REAL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	side INTEGER NOT NULL,
	entry_date DATETIME NOT NULL,
	exit_date DATETIME NOT NULL,
	n_transactions INTEGER NOT NULL,
	entry_price REAL,
	exit_price REAL,
	qty_entered REAL,
	qty_exited REAL,
	pnl REAL,
	pnl_pct REAL,
	costs REAL,
	closed INTEGER NOT NULL,
	context TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, date);
CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_date);
`
