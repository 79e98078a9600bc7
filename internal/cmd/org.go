package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msgward/msgward/internal/core"
	"github.com/msgward/msgward/internal/output"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Organization management commands",
}

var orgListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered organizations",
	RunE:  runOrgList,
}

var orgSetCmd = &cobra.Command{
	Use:   "set <org-id>",
	Short: "Create or update an organization",
	Long: `Create or update an organization record. The tier controls quota
scaling: paid organizations get double the per-channel limits.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrgSet,
}

var orgShowCmd = &cobra.Command{
	Use:   "show <org-id>",
	Short: "Show one organization",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrgShow,
}

func init() {
	rootCmd.AddCommand(orgCmd)
	orgCmd.AddCommand(orgListCmd)
	orgCmd.AddCommand(orgSetCmd)
	orgCmd.AddCommand(orgShowCmd)

	orgListCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
	orgShowCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")

	orgSetCmd.Flags().String("name", "", "Organization display name")
	orgSetCmd.Flags().String("tier", string(core.TierFree), "Tier: free or paid")
}

func runOrgList(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	orgs, err := db.ListOrganizations(ctx)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		payload, err := output.RenderJSON(orgs)
		if err != nil {
			return err
		}
		fmt.Println(payload)
		return nil
	}

	fmt.Println(output.FormatOrganizations(orgs))
	return nil
}

func runOrgSet(cmd *cobra.Command, args []string) error {
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	tierValue, err := cmd.Flags().GetString("tier")
	if err != nil {
		return err
	}

	tier, err := parseTier(tierValue)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(args[0])
	if id == "" {
		return errors.New("organization id is required")
	}
	if name == "" {
		name = id
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	if err := db.UpsertOrganization(ctx, core.Organization{
		ID:   id,
		Name: name,
		Tier: tier,
	}); err != nil {
		return err
	}

	fmt.Printf("Organization %s saved (tier: %s).\n", id, tier)
	return nil
}

func runOrgShow(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	org, err := db.GetOrganization(ctx, args[0])
	if err != nil {
		return err
	}
	if org == nil {
		return fmt.Errorf("organization not found: %s", args[0])
	}

	if format == output.FormatJSON {
		payload, err := output.RenderJSON(org)
		if err != nil {
			return err
		}
		fmt.Println(payload)
		return nil
	}

	fmt.Println(output.FormatOrganizations([]core.Organization{*org}))
	return nil
}

func parseTier(value string) (core.Tier, error) {
	switch core.Tier(strings.ToLower(strings.TrimSpace(value))) {
	case core.TierFree:
		return core.TierFree, nil
	case core.TierPaid:
		return core.TierPaid, nil
	default:
		return "", fmt.Errorf("invalid tier: %s (expected free or paid)", value)
	}
}
