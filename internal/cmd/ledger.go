package cmd

import "github.com/spf13/cobra"

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and maintain the abuse ledger",
}

func init() {
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerSweepCmd)
	ledgerCmd.AddCommand(ledgerPurgeCmd)
	rootCmd.AddCommand(ledgerCmd)
}
