package journal

import (
	"time"
)

// RunRecord describes one finished backtest.
type RunRecord struct {
	RunID    string
	Created  time.Time
	Account  string
	Strategy string
	Params   string // JSON
	Assets   []string

	Start time.Time
	End   time.Time
	Steps int

	InitialCapital float64
	FinalEquity    float64

	Trades    int
	WinRate   float64
	NetProfit float64
	MaxDD     float64

	OrgPath string
	Notes   []string
}

// TransactionRecord is one account transaction. Seq keeps the log order.
type TransactionRecord struct {
	RunID      string
	Seq        int
	Date       time.Time
	Ticker     string
	Action     int
	Qty        float64
	PriceClose float64
	PriceExec  float64
	CostsClose float64
	CostsExec  float64
	PnLClose   float64
	PnLExec    float64
	Context    string // JSON, empty when missing
}

// EquityRecord is one row of the account history.
type EquityRecord struct {
	RunID           string
	Date            time.Time
	Equity          float64
	CapitalInvested float64
	Costs           float64
	Margin          float64
	PnL             float64
}

// TradeRecord is one stitched trade.
type TradeRecord struct {
	RunID         string
	Seq           int
	Ticker        string
	Side          int
	EntryDate     time.Time
	ExitDate      time.Time
	NTransactions int
	EntryPrice    float64
	ExitPrice     float64
	QtyEntered    float64
	QtyExited     float64
	PnL           float64
	PnLPct        float64
	Costs         float64
	Closed        bool
	Context       string
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTransaction(TransactionRecord) error
	RecordEquity(EquityRecord) error
	RecordTrade(TradeRecord) error
	Close() error
}
