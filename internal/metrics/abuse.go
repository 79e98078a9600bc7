package metrics

import (
	"github.com/msgward/msgward/internal/observability"
)

// Abuse-control metrics following Prometheus conventions
var (
	DecisionsTotal       = "abuse_decisions_total"
	ChallengesTotal      = "abuse_challenges_total"
	RiskScoreDistributed = "abuse_risk_score"
	LedgerSweepDeleted   = "abuse_ledger_sweep_deleted_total"
)

// RecordDecision records the outcome of a rate-limit check.
func RecordDecision(channel string, outcome string, reason string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			DecisionsTotal,
			1,
			map[string]string{
				"channel": channel,
				"outcome": outcome,
				"reason":  reason,
			},
		)
	}
}

// RecordChallengeVerification records a challenge verification attempt.
func RecordChallengeVerification(provider string, verified bool) {
	status := "passed"
	if !verified {
		status = "failed"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ChallengesTotal,
			1,
			map[string]string{
				"provider": provider,
				"status":   status,
			},
		)
	}
}

// RecordRiskScore records a computed risk score.
func RecordRiskScore(channel string, score int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			RiskScoreDistributed,
			float64(score),
			map[string]string{
				"channel": channel,
			},
		)
	}
}

// RecordLedgerSweep records entries deleted by a retention sweep.
func RecordLedgerSweep(deleted int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			LedgerSweepDeleted,
			float64(deleted),
			nil,
		)
	}
}
