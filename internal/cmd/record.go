package cmd

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msgward/msgward/internal/config"
	"github.com/msgward/msgward/internal/core"
	"github.com/msgward/msgward/internal/core/engine"
	"github.com/msgward/msgward/internal/observability"
	"github.com/msgward/msgward/internal/output"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append one inbound-message entry to the abuse ledger",
	Long: `Append a single entry to the abuse ledger without running the
decision engine. Useful for backfilling entries from an external gateway
or for seeding test data.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().String("ip", "", "Sender IP address (required)")
	recordCmd.Flags().String("org", "", "Organization ID")
	recordCmd.Flags().String("channel", "webchat", "Channel: webchat, native_guest, telegram")
	recordCmd.Flags().String("device", "", "Device fingerprint")
	recordCmd.Flags().String("session", "", "Session token")
	recordCmd.Flags().String("user-agent", "", "Sender user agent")
	recordCmd.Flags().String("message", "", "Message text (hashed, never stored raw)")
	recordCmd.Flags().String("outcome", string(core.OutcomeAllowed), "Outcome: allowed, throttled, blocked")
	recordCmd.Flags().String("reason", "", "Decision reason")
	recordCmd.Flags().Int("risk-score", 0, "Risk score recorded with the entry")
	recordCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ipAddress, err := cmd.Flags().GetString("ip")
	if err != nil {
		return err
	}
	orgID, err := cmd.Flags().GetString("org")
	if err != nil {
		return err
	}
	channelValue, err := cmd.Flags().GetString("channel")
	if err != nil {
		return err
	}
	device, err := cmd.Flags().GetString("device")
	if err != nil {
		return err
	}
	session, err := cmd.Flags().GetString("session")
	if err != nil {
		return err
	}
	userAgent, err := cmd.Flags().GetString("user-agent")
	if err != nil {
		return err
	}
	message, err := cmd.Flags().GetString("message")
	if err != nil {
		return err
	}
	outcomeValue, err := cmd.Flags().GetString("outcome")
	if err != nil {
		return err
	}
	reason, err := cmd.Flags().GetString("reason")
	if err != nil {
		return err
	}
	riskScore, err := cmd.Flags().GetInt("risk-score")
	if err != nil {
		return err
	}

	ipAddress = strings.TrimSpace(ipAddress)
	if ipAddress == "" {
		return errors.New("--ip is required")
	}
	if net.ParseIP(ipAddress) == nil {
		return fmt.Errorf("invalid IP address: %s", ipAddress)
	}

	outcome, err := parseOutcome(outcomeValue)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	cfg := config.GetConfig()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	recorder := buildRecorder(cfg, db, observability.CLILogger)
	if err := recorder.Record(ctx, engine.RecordRequest{
		IPAddress:         ipAddress,
		OrganizationID:    strings.TrimSpace(orgID),
		Channel:           core.ParseChannel(strings.TrimSpace(channelValue)),
		DeviceFingerprint: device,
		SessionToken:      session,
		UserAgent:         userAgent,
		Message:           message,
		Outcome:           outcome,
		Reason:            reason,
		RiskScore:         riskScore,
	}); err != nil {
		return err
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		payload, jsonErr := output.RenderJSON(map[string]string{"status": "recorded"})
		if jsonErr != nil {
			return jsonErr
		}
		fmt.Println(payload)
		return nil
	}

	fmt.Println("Entry recorded.")
	return nil
}

func parseOutcome(value string) (core.Outcome, error) {
	switch core.Outcome(strings.ToLower(strings.TrimSpace(value))) {
	case core.OutcomeAllowed:
		return core.OutcomeAllowed, nil
	case core.OutcomeThrottled:
		return core.OutcomeThrottled, nil
	case core.OutcomeBlocked:
		return core.OutcomeBlocked, nil
	default:
		return "", fmt.Errorf("invalid outcome: %s (expected allowed, throttled, or blocked)", value)
	}
}
