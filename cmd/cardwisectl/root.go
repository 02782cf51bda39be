package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jpolanco/cardwise/internal/config"
	"github.com/jpolanco/cardwise/internal/infra/sqlite"
)

var flagDBPath string

var rootCmd = &cobra.Command{
	Use:   "cardwisectl",
	Short: "Ledger maintenance CLI",
	Long:  "Seed, export and inspect the local ledger database without going through the HTTP API.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()
	rootCmd.PersistentFlags().StringVarP(&flagDBPath, "db", "d", cfg.SQLitePath, "Path to the SQLite database")
}

// openStore opens the SQLite store used by all subcommands.
func openStore() (*sqlite.Store, error) {
	return sqlite.Open(flagDBPath)
}
