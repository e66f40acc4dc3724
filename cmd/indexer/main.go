package main

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║         DonationIndexor v%s            ║
║   DonationReceived event indexer          ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "DonationIndexor - DonationReceived event indexer",
	Long: `DonationIndexor follows a donation contract, stores every DonationReceived
event exactly once after the configured confirmation depth and streams new
donations to WebSocket subscribers.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runIndexer,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the indexer, API and metrics servers",
	RunE:  runIndexer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(donationsCmd)
	rootCmd.AddCommand(tokenCmd)
}
