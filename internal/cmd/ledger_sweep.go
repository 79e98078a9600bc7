package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msgward/msgward/internal/core"
	"github.com/msgward/msgward/internal/metrics"
	"github.com/msgward/msgward/internal/observability"
	"github.com/msgward/msgward/internal/output"
)

var ledgerSweepDryRun bool

var ledgerSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete ledger entries past the retention window",
	Long: `Delete every ledger entry older than the retention window (26 hours).

The serve path sweeps stale entries for each sender key as new entries are
recorded; this command is the catch-all for keys that went quiet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		cutoff := time.Now().UTC().Add(-core.LedgerRetention)

		if ledgerSweepDryRun {
			// CountEntries has no age filter so a dry run reports the cutoff only.
			fmt.Printf("Would delete entries created before %s\n", cutoff.Format(time.RFC3339))
			return nil
		}

		deleted, err := db.SweepExpired(cmd.Context(), cutoff)
		if err != nil {
			return err
		}

		metrics.RecordLedgerSweep(deleted)
		observability.CLILogger.Debug("Ledger sweep completed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))

		if format == output.FormatJSON {
			payload, err := output.RenderJSON(map[string]any{
				"deleted": deleted,
				"cutoff":  cutoff.Format(time.RFC3339),
			})
			if err != nil {
				return err
			}
			fmt.Println(payload)
			return nil
		}

		fmt.Printf("Deleted %d entr(ies) created before %s\n", deleted, cutoff.Format(time.RFC3339))
		return nil
	},
}

func init() {
	ledgerSweepCmd.Flags().BoolVar(&ledgerSweepDryRun, "dry-run", false, "Show the cutoff without deleting")
	ledgerSweepCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}
