package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msgward/msgward/internal/config"
	"github.com/msgward/msgward/internal/core/engine"
	"github.com/msgward/msgward/internal/output"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Challenge verification commands",
}

var challengeVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a challenge token against the configured provider",
	Long: `Verify a human-proof challenge token. Uses the configured bypass
token or external webhook; verification fails closed when neither is
configured or the hook is unreachable.`,
	RunE: runChallengeVerify,
}

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.AddCommand(challengeVerifyCmd)

	challengeVerifyCmd.Flags().String("token", "", "Challenge token (required)")
	challengeVerifyCmd.Flags().String("ip", "", "Sender IP address")
	challengeVerifyCmd.Flags().String("channel", "webchat", "Channel: webchat, native_guest, telegram")
	challengeVerifyCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
}

func runChallengeVerify(cmd *cobra.Command, args []string) error {
	token, err := cmd.Flags().GetString("token")
	if err != nil {
		return err
	}
	ipAddress, err := cmd.Flags().GetString("ip")
	if err != nil {
		return err
	}
	channel, err := cmd.Flags().GetString("channel")
	if err != nil {
		return err
	}
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	if strings.TrimSpace(token) == "" {
		return errors.New("--token is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	verifier := buildVerifier(cfg)
	result := verifier.Verify(cmd.Context(), engine.VerifyRequest{
		Channel:   strings.TrimSpace(channel),
		IPAddress: strings.TrimSpace(ipAddress),
		Token:     token,
	})

	if format == output.FormatJSON {
		payload, err := output.RenderJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(payload)
	} else {
		status := "FAILED"
		if result.Verified {
			status = "VERIFIED"
		}
		fmt.Printf("%s (provider: %s)\n", status, result.Provider)
		if result.Reason != "" {
			fmt.Printf("Reason: %s\n", result.Reason)
		}
	}

	if !result.Verified {
		return errors.New("challenge verification failed")
	}
	return nil
}
