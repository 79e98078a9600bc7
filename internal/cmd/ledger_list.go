package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msgward/msgward/internal/core/store"
	"github.com/msgward/msgward/internal/output"
)

var (
	ledgerListAll     bool
	ledgerListOrg     string
	ledgerListIP      string
	ledgerListChannel string
	ledgerListLimit   int
	ledgerListOut     string
)

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List abuse ledger entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := store.LedgerQuery{
			All:            ledgerListAll,
			OrganizationID: strings.TrimSpace(ledgerListOrg),
			IPAddress:      strings.TrimSpace(ledgerListIP),
			Channel:        strings.TrimSpace(ledgerListChannel),
			Limit:          ledgerListLimit,
		}
		if err := query.Validate(); err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		entries, err := db.ListEntries(cmd.Context(), query)
		if err != nil {
			return err
		}

		sink, err := openSink(ledgerListOut)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if format == output.FormatJSON {
			payload, err := output.RenderJSON(entries)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(sink.writer, payload)
			return err
		}

		_, err = fmt.Fprintln(sink.writer, output.FormatEntries(entries))
		return err
	},
}

func init() {
	ledgerListCmd.Flags().BoolVar(&ledgerListAll, "all", false, "List entries for all organizations")
	ledgerListCmd.Flags().StringVar(&ledgerListOrg, "org", "", "Filter by organization ID")
	ledgerListCmd.Flags().StringVar(&ledgerListIP, "ip", "", "Filter by IP address")
	ledgerListCmd.Flags().StringVar(&ledgerListChannel, "channel", "", "Filter by channel (webchat|native_guest|telegram)")
	ledgerListCmd.Flags().IntVar(&ledgerListLimit, "limit", 100, "Maximum number of entries")
	ledgerListCmd.Flags().StringVar(&ledgerListOut, "out", "", "Write output to a file (default stdout)")
	ledgerListCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}
