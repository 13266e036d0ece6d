package cmd

import (
	"fmt"

	"github.com/rustyeddy/backtester/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage backtest configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  backtester config init -o spy.yaml
  backtester config validate -f spy.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check that a configuration file loads, names a registered strategy
and that every asset data file can be read.`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "backtest.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  backtester run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if _, err := newStrategy(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	assets, err := cfg.BuildAssets()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Account: %s (Capital: $%.2f)\n", cfg.Account.Name, cfg.Account.InitialCapital)
	fmt.Fprintf(out, "  Strategy: %s\n", cfg.Strategy.Name)
	for _, a := range assets {
		q := a.Quotes()
		if q.Len() == 0 {
			fmt.Fprintf(out, "  Asset: %s (no quotes)\n", a.Ticker())
			continue
		}
		fmt.Fprintf(out, "  Asset: %s (%d quotes, %s -> %s, costs %s)\n", a.Ticker(), q.Len(),
			q.Dates[0].Format("2006-01-02"), q.Dates[q.Len()-1].Format("2006-01-02"), a.Costs().Kind)
	}
	journal := cfg.Journal.Type
	if journal == "" {
		journal = "none"
	}
	fmt.Fprintf(out, "  Journal: %s\n", journal)
	return nil
}
