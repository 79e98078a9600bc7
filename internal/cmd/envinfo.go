package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/msgward/msgward/internal/config"
	"github.com/msgward/msgward/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()

		observability.CLILogger.Info("=== Msgward Environment Information ===")
		observability.CLILogger.Info("")

		// Application Info
		observability.CLILogger.Info("Application:")
		observability.CLILogger.Info("  Name:       " + appName)
		observability.CLILogger.Info("  Version:    " + versionInfo.Version)
		observability.CLILogger.Info("  Commit:     " + versionInfo.Commit)
		observability.CLILogger.Info("  Built:      " + versionInfo.BuildDate)
		observability.CLILogger.Info("")

		// SSOT Info
		observability.CLILogger.Info("SSOT:")
		observability.CLILogger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		observability.CLILogger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		observability.CLILogger.Info("")

		// Runtime Info
		observability.CLILogger.Info("Runtime:")
		observability.CLILogger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		observability.CLILogger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		observability.CLILogger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		observability.CLILogger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		observability.CLILogger.Info("")

		cfg, err := config.Load()
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return
		}

		// Configuration
		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		observability.CLILogger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		observability.CLILogger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		observability.CLILogger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		observability.CLILogger.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			observability.CLILogger.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			observability.CLILogger.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		observability.CLILogger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		observability.CLILogger.Info("  Config File:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		observability.CLILogger.Info("")

		// Abuse Engine Configuration
		observability.CLILogger.Info("Abuse Engine:")
		observability.CLILogger.Info(fmt.Sprintf("  Paid Multiplier:      %d", cfg.Abuse.PaidTierMultiplier), zap.Int("paid_tier_multiplier", cfg.Abuse.PaidTierMultiplier))
		observability.CLILogger.Info(fmt.Sprintf("  Audit Risk Threshold: %d", cfg.Abuse.AuditRiskThreshold), zap.Int("audit_risk_threshold", cfg.Abuse.AuditRiskThreshold))
		if strings.TrimSpace(cfg.Abuse.QuotasFile) != "" {
			observability.CLILogger.Info("  Quota Overrides:      " + cfg.Abuse.QuotasFile)
		} else {
			observability.CLILogger.Info("  Quota Overrides:      (built-in)")
		}
		observability.CLILogger.Info("")

		// Challenge Verification Configuration
		observability.CLILogger.Info("Challenge:")
		if strings.TrimSpace(cfg.Challenge.BypassToken) != "" {
			observability.CLILogger.Info("  Bypass Token:   (set)")
		} else {
			observability.CLILogger.Info("  Bypass Token:   (not set)")
		}
		if strings.TrimSpace(cfg.Challenge.VerifyURL) != "" {
			observability.CLILogger.Info("  Verify URL:     " + cfg.Challenge.VerifyURL)
		} else {
			observability.CLILogger.Info("  Verify URL:     (not configured)")
		}
		if strings.TrimSpace(cfg.Challenge.VerifySecret) != "" {
			observability.CLILogger.Info("  Verify Secret:  (set)")
		} else {
			observability.CLILogger.Info("  Verify Secret:  (not set)")
		}
		observability.CLILogger.Info("  Timeout:        " + cfg.Challenge.Timeout.String())
		observability.CLILogger.Info("")

		observability.CLILogger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
