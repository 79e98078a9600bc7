package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/msgward/msgward/internal/config"
	"github.com/msgward/msgward/internal/core/engine"
	"github.com/msgward/msgward/internal/core/store"
)

// buildEvaluator wires the decision engine from config. Quota overrides are
// merged over the built-in tables when a quotas file is configured.
func buildEvaluator(cfg *config.Config, db *store.Store) (*engine.Evaluator, error) {
	evaluator := engine.NewEvaluator(db)

	if cfg.Abuse.PaidTierMultiplier > 0 {
		evaluator.PaidMultiplier = cfg.Abuse.PaidTierMultiplier
	}

	if cfg.Abuse.QuotasFile != "" {
		quotas, err := engine.LoadQuotasFile(cfg.Abuse.QuotasFile)
		if err != nil {
			return nil, fmt.Errorf("load quota overrides: %w", err)
		}
		evaluator.Quotas = quotas
	}

	return evaluator, nil
}

func buildRecorder(cfg *config.Config, db *store.Store, logger *logging.Logger) *engine.Recorder {
	recorder := engine.NewRecorder(db)
	recorder.Logger = logger
	if cfg.Abuse.AuditRiskThreshold > 0 {
		recorder.AuditRiskThreshold = cfg.Abuse.AuditRiskThreshold
	}
	return recorder
}

func buildVerifier(cfg *config.Config) *engine.Verifier {
	return engine.NewVerifier(engine.ChallengeConfig{
		BypassToken:  cfg.Challenge.BypassToken,
		VerifyURL:    cfg.Challenge.VerifyURL,
		VerifySecret: cfg.Challenge.VerifySecret,
		Timeout:      cfg.Challenge.Timeout,
	})
}
