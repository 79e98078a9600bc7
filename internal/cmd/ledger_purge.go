package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msgward/msgward/internal/core/store"
	"github.com/msgward/msgward/internal/output"
)

var (
	ledgerPurgeAll     bool
	ledgerPurgeOrg     string
	ledgerPurgeIP      string
	ledgerPurgeChannel string
	ledgerPurgeYes     bool
	ledgerPurgeDryRun  bool
)

var ledgerPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete ledger entries matching a filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := store.LedgerQuery{
			All:            ledgerPurgeAll,
			OrganizationID: strings.TrimSpace(ledgerPurgeOrg),
			IPAddress:      strings.TrimSpace(ledgerPurgeIP),
			Channel:        strings.TrimSpace(ledgerPurgeChannel),
		}
		if err := query.Validate(); err != nil {
			return err
		}

		if query.All && !ledgerPurgeYes && !ledgerPurgeDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.CountEntries(cmd.Context(), query)
		if err != nil {
			return err
		}

		if ledgerPurgeDryRun {
			return writeLedgerPurgeResult(format, matched, 0, true)
		}

		deleted, err := db.PurgeEntries(cmd.Context(), query)
		if err != nil {
			return err
		}

		return writeLedgerPurgeResult(format, matched, deleted, false)
	},
}

func writeLedgerPurgeResult(format output.Format, matched int, deleted int64, dryRun bool) error {
	if format == output.FormatJSON {
		payload, err := output.RenderJSON(map[string]any{
			"matched": matched,
			"deleted": deleted,
			"dry_run": dryRun,
		})
		if err != nil {
			return err
		}
		fmt.Println(payload)
		return nil
	}

	if dryRun {
		fmt.Printf("Would delete %d ledger entr(ies)\n", matched)
		return nil
	}
	fmt.Printf("Deleted %d/%d ledger entr(ies)\n", deleted, matched)
	return nil
}

func init() {
	ledgerPurgeCmd.Flags().BoolVar(&ledgerPurgeAll, "all", false, "Purge all entries")
	ledgerPurgeCmd.Flags().StringVar(&ledgerPurgeOrg, "org", "", "Purge entries for an organization")
	ledgerPurgeCmd.Flags().StringVar(&ledgerPurgeIP, "ip", "", "Purge entries for an IP address")
	ledgerPurgeCmd.Flags().StringVar(&ledgerPurgeChannel, "channel", "", "Restrict purge to a channel")
	ledgerPurgeCmd.Flags().BoolVar(&ledgerPurgeYes, "yes", false, "Confirm destructive purge")
	ledgerPurgeCmd.Flags().BoolVar(&ledgerPurgeDryRun, "dry-run", false, "Show what would be deleted")
	ledgerPurgeCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}
