package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msgward/msgward/internal/output"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect organization-scoped abuse audit records",
	RunE:  runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().String("org", "", "Organization ID (required)")
	auditCmd.Flags().Int("limit", 100, "Maximum records to return")
	auditCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}

func runAudit(cmd *cobra.Command, args []string) error {
	orgID, err := cmd.Flags().GetString("org")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	if strings.TrimSpace(orgID) == "" {
		return errors.New("--org is required")
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	entries, err := db.ListAudit(ctx, strings.TrimSpace(orgID), limit)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		payload, err := output.RenderJSON(entries)
		if err != nil {
			return err
		}
		fmt.Println(payload)
		return nil
	}

	fmt.Println(output.FormatAudit(entries))
	return nil
}
