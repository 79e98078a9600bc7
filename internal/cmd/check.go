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

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate an inbound message against the abuse ledger",
	Long: `Evaluate one inbound message and print the allow/challenge/block
decision. Read-only: use --record to also append the outcome to the ledger
as the serve path would.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("ip", "", "Sender IP address (required)")
	checkCmd.Flags().String("org", "", "Organization ID (required)")
	checkCmd.Flags().String("channel", "webchat", "Channel: webchat, native_guest, telegram")
	checkCmd.Flags().String("device", "", "Device fingerprint")
	checkCmd.Flags().String("session", "", "Session token")
	checkCmd.Flags().String("user-agent", "", "Sender user agent")
	checkCmd.Flags().String("message", "", "Message text (hashed, never stored raw)")
	checkCmd.Flags().Bool("record", false, "Append the decision to the ledger")
	checkCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	record, err := cmd.Flags().GetBool("record")
	if err != nil {
		return err
	}
	format, err := resolveOutputFormat(cmd)
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
	if strings.TrimSpace(orgID) == "" {
		return errors.New("--org is required")
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

	evaluator, err := buildEvaluator(cfg, db)
	if err != nil {
		return err
	}

	channel := core.ParseChannel(strings.TrimSpace(channelValue))
	decision, err := evaluator.CheckRateLimit(ctx, engine.CheckRequest{
		IPAddress:         ipAddress,
		OrganizationID:    strings.TrimSpace(orgID),
		Channel:           channel,
		DeviceFingerprint: device,
		SessionToken:      session,
		UserAgent:         userAgent,
		Message:           message,
	})
	if err != nil {
		return err
	}

	if record {
		recorder := buildRecorder(cfg, db, observability.CLILogger)
		outcome := core.OutcomeAllowed
		state := core.ChallengeNotRequired
		if !decision.Allowed {
			outcome = core.OutcomeBlocked
		} else if decision.RequiresChallenge {
			outcome = core.OutcomeThrottled
			state = core.ChallengeRequired
		}

		if err := recorder.Record(ctx, engine.RecordRequest{
			IPAddress:         ipAddress,
			OrganizationID:    strings.TrimSpace(orgID),
			Channel:           channel,
			DeviceFingerprint: device,
			SessionToken:      session,
			UserAgent:         userAgent,
			Message:           message,
			Outcome:           outcome,
			ChallengeState:    state,
			Reason:            decision.Reason,
			RiskScore:         decision.RiskScore,
		}); err != nil {
			return err
		}
	}

	if format == output.FormatJSON {
		payload, err := output.RenderJSON(decision)
		if err != nil {
			return err
		}
		fmt.Println(payload)
		return nil
	}

	fmt.Println(output.FormatDecision(decision))
	return nil
}
