package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const quotesCSV = `date,open,high,low,close,volume,exec
2024-01-02,10,10,10,10,100,10
2024-01-03,11,11,11,11,100,11
2024-01-04,12,12,12,12,100,12
2024-01-05,13,13,13,13,100,13
2024-01-08,14,14,14,14,100,14
`

// writeConfig lays out a data dir and a buy and hold config journaling to journalYAML.
func writeConfig(t *testing.T, journalYAML string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "ABC.csv"), []byte(quotesCSV), 0644))

	yml := `account:
  name: test
  initial_capital: 1000
strategy:
  name: buy-and-hold
  params:
    units: 2
assets:
  - ticker: ABC
    quotes: data/ABC.csv
journal:
` + journalYAML + `
log:
  level: error
`
	path := filepath.Join(dir, "backtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	return dir, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunBacktestCSVJournal(t *testing.T) {
	dir, path := writeConfig(t, "  type: csv\n  dir: journal\n")
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	cfg.Journal.Dir = filepath.Join(dir, "journal")
	cfg.Journal.OrgPath = filepath.Join(dir, "run.org")

	var out bytes.Buffer
	run, err := runBacktest(context.Background(), cfg, zap.NewNop(), &out)
	require.NoError(t, err)

	assert.Equal(t, "buy_and_hold", run.Strategy)
	assert.Equal(t, "test", run.Account)
	assert.Equal(t, 5, run.Steps)
	assert.Equal(t, []string{"ABC"}, run.Assets)
	assert.InDelta(t, 1008.0, run.FinalEquity, 1e-9)

	assert.Contains(t, out.String(), "Strategy:      buy_and_hold")
	assert.Contains(t, out.String(), "Run ID:        "+run.RunID)

	for _, name := range []string{journal.RunsFile, journal.TransactionsFile, journal.EquityFile, journal.TradesFile} {
		_, err := os.Stat(filepath.Join(dir, "journal", name))
		assert.NoError(t, err, name)
	}
	org, err := os.ReadFile(cfg.Journal.OrgPath)
	require.NoError(t, err)
	assert.Contains(t, string(org), run.RunID)
}

func TestRunBacktestUnknownStrategy(t *testing.T) {
	_, path := writeConfig(t, "  type: none\n")
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	cfg.Strategy.Name = "moon_phase"

	_, err = runBacktest(context.Background(), cfg, zap.NewNop(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown strategy "moon_phase"`)
}

func TestRunAndQuerySQLiteJournal(t *testing.T) {
	dir, path := writeConfig(t, "  type: sqlite\n  db_path: runs.sqlite\n")
	db := filepath.Join(dir, "runs.sqlite")

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	cfg.Journal.DBPath = db
	require.NoError(t, cfg.SaveToFile(path))

	out, err := execute(t, "run", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")

	var runID string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Run ID:") {
			runID = strings.TrimSpace(strings.TrimPrefix(line, "Run ID:"))
		}
	}
	require.NotEmpty(t, runID)

	out, err = execute(t, "journal", "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "buy_and_hold")

	out, err = execute(t, "journal", "show", runID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "* BACKTEST: buy_and_hold on test")
	assert.Contains(t, out, "| "+runID)
	assert.Contains(t, out, "open")

	_, err = execute(t, "journal", "show", "missing", "--db", db)
	assert.ErrorIs(t, err, journal.ErrNotFound)
}

func TestConfigInitAndValidate(t *testing.T) {
	dir, path := writeConfig(t, "  type: none\n")

	out, err := execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Asset: ABC (5 quotes, 2024-01-02 -> 2024-01-08")

	generated := filepath.Join(dir, "generated.yaml")
	out, err = execute(t, "config", "init", "-o", generated)
	require.NoError(t, err)
	assert.Contains(t, out, generated)

	cfg, err := config.LoadFromFile(generated)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Strategy, cfg.Strategy)
}

func TestStrategiesCommand(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	assert.Contains(t, out, "ma_cross")
	assert.Contains(t, out, "rsi_band")
}

func TestDayBounds(t *testing.T) {
	start, end, err := dayBounds(time.UTC, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T00:00:00Z", start.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "2024-01-16T00:00:00Z", end.Format("2006-01-02T15:04:05Z07:00"))

	_, _, err = dayBounds(time.UTC, "15/01/2024")
	assert.Error(t, err)
}
