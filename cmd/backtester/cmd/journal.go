package cmd

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/backtester/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the run journal",
	Long: `Query runs and trades recorded in the SQLite journal.

Subcommands:
  runs   - List recorded runs, newest first
  show   - Print the Org-mode summary and trades of a run
  day    - List trades closed on a specific day

Examples:
  backtester journal runs
  backtester journal show 01J0Z3N6Q8X2B3C4D5E6F7G8H9
  backtester journal day 2024-01-15`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./backtester.sqlite", "path to SQLite journal DB")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTRATEGY\tACCOUNT\tPERIOD\tTRADES\tNET PROFIT\tMAX DD")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s -> %s\t%d\t%s\t%s\n",
			r.RunID, r.Strategy, r.Account,
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
			r.Trades, num(r.NetProfit), num(r.MaxDD))
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	run, err := j.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListTrades(cmd.Context(), run.RunID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := run.RenderOrg(out); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n** Trades")
	return writeTrades(out, trades)
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	return writeTrades(cmd.OutOrStdout(), recs)
}

// writeTrades prints trades as an Org table.
func writeTrades(w io.Writer, trades []journal.TradeRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.Debug)
	fmt.Fprintln(tw, "| RUN\t TICKER\t SIDE\t ENTRY\t EXIT\t ENTRY PX\t EXIT PX\t PNL\t PNL %\t")
	for _, t := range trades {
		exit := "open"
		if t.Closed {
			exit = t.ExitDate.Format("2006-01-02")
		}
		side := "long"
		if t.Side < 0 {
			side = "short"
		}
		fmt.Fprintf(tw, "| %s\t %s\t %s\t %s\t %s\t %s\t %s\t %s\t %s\t\n",
			t.RunID, t.Ticker, side, t.EntryDate.Format("2006-01-02"), exit,
			num(t.EntryPrice), num(t.ExitPrice), num(t.PnL), num(t.PnLPct))
	}
	return tw.Flush()
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}

func num(x float64) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", x)
}
