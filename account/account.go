package account

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/backtester/asset"
	"go.uber.org/zap"
)

const DefaultName = "GenericAccount"

// Account is the simulated trading account. It owns the current positions,
// running equity and a fixed capacity history with one row per step.
//
// An Account has a single writer and is not safe for concurrent use.
type Account struct {
	name string
	log  *zap.Logger

	position     map[string]Entry
	transactions []Transaction
	annotations  map[string]any

	equityClose     float64
	equityExec      float64
	capitalInvested float64
	margin          float64
	hasSynthetic    bool

	hist history
}

type Option func(*Account)

func WithName(name string) Option {
	return func(a *Account) { a.name = name }
}

// WithInitialCapital deposits owner capital when the account is created.
func WithInitialCapital(amount float64) Option {
	return func(a *Account) { a.CapitalTransaction(amount, true) }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Account) {
		if l != nil {
			a.log = l
		}
	}
}

// New returns an account able to record exactly capacity steps.
func New(capacity int, opts ...Option) *Account {
	if capacity < 0 {
		capacity = 0
	}
	a := &Account{
		name:     DefaultName,
		log:      zap.NewNop(),
		position: make(map[string]Entry),
		hist:     newHistory(capacity),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(zap.String("account", a.name))
	return a
}

func (a *Account) Name() string   { return a.name }
func (a *Account) String() string { return a.name }

// Equity is the most recent equity at close prices.
func (a *Account) Equity() float64 { return a.equityClose }

// EquityExec is the most recent equity at execution prices.
func (a *Account) EquityExec() float64 { return a.equityExec }

// CapitalInvested is the net owner capital deposited.
func (a *Account) CapitalInvested() float64 { return a.capitalInvested }

// CapitalAvailable is the capital free for new positions: equity minus margin.
func (a *Account) CapitalAvailable() float64 { return a.equityClose - a.margin }

// Margin is the total margin requirement of the open positions.
func (a *Account) Margin() float64 { return a.margin }

func (a *Account) HasSyntheticAssets() bool { return a.hasSynthetic }

// Steps is the number of processed steps.
func (a *Account) Steps() int { return a.hist.n }

func (a *Account) Capacity() int { return len(a.hist.dates) }

// Positions returns the open positions ordered by ticker.
func (a *Account) Positions() []PositionInfo {
	out := make([]PositionInfo, 0, len(a.position))
	for _, t := range sortedKeys(a.position) {
		e := a.position[t]
		out = append(out, PositionInfo{Asset: e.Asset, Qty: e.Qty})
	}
	return out
}

// Position returns the position held in ticker.
func (a *Account) Position(ticker string) (PositionInfo, bool) {
	e, ok := a.position[ticker]
	if !ok {
		return PositionInfo{}, false
	}
	return PositionInfo{Asset: e.Asset, Qty: e.Qty}, true
}

// CapitalTransaction adds (or withdraws) cash. Owner capital also counts
// towards CapitalInvested; interest or dividends should pass owner=false.
func (a *Account) CapitalTransaction(amount float64, owner bool) {
	a.equityClose += amount
	a.equityExec += amount
	if owner {
		a.capitalInvested += amount
	}
}

// Annotate attaches ctx to the transactions emitted for ticker by the next
// ProcessStep call.
func (a *Account) Annotate(ticker string, ctx any) {
	if a.annotations == nil {
		a.annotations = make(map[string]any)
	}
	a.annotations[ticker] = ctx
}

// ProcessStep moves the account to the target quantities at date.
//
// It must be called once per date in ascending order. Either the whole step
// is applied or, on error, the account is left unchanged.
func (a *Account) ProcessStep(date time.Time, targets map[*asset.Asset]float64) error {
	if a.hist.n >= len(a.hist.dates) {
		return fmt.Errorf("%w: capacity %d reached at %s", ErrBufferExhausted, len(a.hist.dates), date.Format(time.RFC3339))
	}

	next := make(map[string]Entry, len(targets))
	synthetic := a.hasSynthetic
	for as, qty := range targets {
		if as == nil {
			return fmt.Errorf("%w: nil asset", ErrInvalidInput)
		}
		if math.IsNaN(qty) || math.IsInf(qty, 0) {
			return fmt.Errorf("%w: quantity for %s must be a finite number, got %v", ErrInvalidInput, as, qty)
		}
		if _, dup := next[as.Ticker()]; dup {
			return fmt.Errorf("%w: duplicate ticker %s", ErrInvalidInput, as)
		}
		pxClose, pxExec, err := as.PriceAt(date)
		if err != nil {
			return err
		}
		synthetic = synthetic || as.IsSynthetic()
		next[as.Ticker()] = Entry{Asset: as, Qty: qty, Close: pxClose, Exec: pxExec}
	}

	txs, totals, err := Reconcile(date, next, a.position)
	if err != nil {
		return err
	}

	margin, err := marginOf(date, next)
	if err != nil {
		return err
	}

	for i := range txs {
		if ctx, ok := a.annotations[txs[i].Asset.Ticker()]; ok {
			txs[i].Context = ctx
		}
	}
	a.annotations = nil

	a.transactions = append(a.transactions, txs...)
	a.equityClose += totals.PnLClose
	a.equityExec += totals.PnLExec
	a.position = next
	a.margin = margin
	a.hasSynthetic = synthetic

	a.hist.record(date, totals, a)

	a.log.Debug("step processed",
		zap.Time("date", date),
		zap.Int("transactions", len(txs)),
		zap.Float64("pnl", totals.PnLExec),
		zap.Float64("costs", totals.CostsExec),
		zap.Float64("equity", a.equityExec),
		zap.Float64("margin", a.margin),
	)
	return nil
}

func marginOf(date time.Time, pos map[string]Entry) (float64, error) {
	var total float64
	for _, t := range sortedKeys(pos) {
		e := pos[t]
		m, err := e.Asset.MarginRequirementAt(date, e.Qty)
		if err != nil {
			return 0, err
		}
		total += m
	}
	return total, nil
}

// Transactions returns a copy of the transaction log.
func (a *Account) Transactions() ([]Transaction, error) {
	for i := 1; i < len(a.transactions); i++ {
		if a.transactions[i].Date.Before(a.transactions[i-1].Date) {
			return nil, fmt.Errorf("%w: row %d at %s precedes %s", ErrUnordered, i,
				a.transactions[i].Date.Format(time.RFC3339), a.transactions[i-1].Date.Format(time.RFC3339))
		}
	}
	out := make([]Transaction, len(a.transactions))
	copy(out, a.transactions)
	return out, nil
}

func sortedKeys(m map[string]Entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
