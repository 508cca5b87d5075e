package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spendly/internal/cli"
	"spendly/internal/config"
	applog "spendly/internal/log"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"

	appCfg *config.Config
	logger *applog.Logger

	rootCmd = &cobra.Command{
		Use:   "spendly",
		Short: "Household expense tracker with AI-assisted entry",
		Long: `spendly records household expenses, keeps per-user categories, accounts
and owners, and turns typed or spoken descriptions into expense drafts.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	l, err := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	appCfg, logger = cfg, l
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spendly %s\n", version)
		},
	}
}
