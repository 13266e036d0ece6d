package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/internal/logging"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/rustyeddy/backtester/strategy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a config file",
	Long: `Run a backtest using settings from a configuration file.

The config file names the account, the strategy and its parameters, the
assets with their quotes and cost models, and where to journal the run.

Example:
  backtester run -f configs/spy_ma_cross.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runOrgPath    string
	runNoJournal  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVar(&runOrgPath, "org", "", "write an Org-mode run summary to this file (overrides journal.org_path)")
	runCmd.Flags().BoolVar(&runNoJournal, "no-journal", false, "do not journal the run")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runOrgPath != "" {
		cfg.Journal.OrgPath = runOrgPath
	}
	if runNoJournal {
		cfg.Journal.Type = "none"
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	_, err = runBacktest(ctx, cfg, log, cmd.OutOrStdout())
	return err
}

func newStrategy(cfg *config.Config) (strategy.Strategy, error) {
	return strategies.StrategyByName(cfg.Strategy.Name, strategies.Params(cfg.Strategy.Params))
}

// runBacktest runs cfg, prints the summary to w and journals the run.
func runBacktest(ctx context.Context, cfg *config.Config, log *zap.Logger, w io.Writer) (journal.RunRecord, error) {
	strat, err := newStrategy(cfg)
	if err != nil {
		return journal.RunRecord{}, err
	}
	assets, err := cfg.BuildAssets()
	if err != nil {
		return journal.RunRecord{}, fmt.Errorf("load assets: %w", err)
	}

	runID := id.New()
	log = log.With(zap.String("run_id", runID))

	runner := backtest.Runner{
		Strategy: strat,
		Assets:   assets,
		Options: backtest.RunnerOptions{
			AccountName:    cfg.Account.Name,
			InitialCapital: cfg.Account.InitialCapital,
			Logger:         log,
		},
	}
	res, err := runner.Run(ctx)
	if err != nil {
		return journal.RunRecord{}, err
	}

	rep, err := res.Report()
	if err != nil {
		return journal.RunRecord{}, fmt.Errorf("build report: %w", err)
	}
	result, _ := rep.Result(res.Account.Name())
	backtest.PrintResult(w, res, result.Stats)

	tickers := make([]string, len(res.Universe))
	for i, a := range res.Universe {
		tickers[i] = a.Ticker()
	}
	run, err := journal.NewRun(runID, strat.Name(), cfg.Strategy.Params, res.Account, tickers, result.Stats)
	if err != nil {
		return journal.RunRecord{}, err
	}
	run.OrgPath = cfg.Journal.OrgPath

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return run, fmt.Errorf("create journal: %w", err)
	}
	if j != nil {
		if err := journal.Record(j, run, res.Account, result.Trades); err != nil {
			j.Close()
			return run, fmt.Errorf("journal run: %w", err)
		}
		if err := j.Close(); err != nil {
			return run, fmt.Errorf("close journal: %w", err)
		}
		log.Info("run journaled", zap.String("type", cfg.Journal.Type))
	}

	if run.OrgPath != "" {
		if err := run.WriteOrg(); err != nil {
			return run, fmt.Errorf("write org summary: %w", err)
		}
		log.Info("org summary written", zap.String("path", run.OrgPath))
	}

	fmt.Fprintf(w, "Run ID:        %s\n", runID)
	return run, nil
}

// openJournal returns nil when journaling is off.
func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.Dir)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	}
	return nil, nil
}
