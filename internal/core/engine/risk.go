package engine

import "github.com/msgward/msgward/internal/core"

// Risk weights. These are empirically chosen heuristics, not calibrated
// thresholds; treat them as configuration defaults when tuning.
const (
	riskMissingUserAgent = 5
	riskRepeatedMessage  = 30
	riskBurstExceeded    = 35
	riskIPSoftExceeded   = 20
	riskDeviceExceeded   = 15
	riskSessionExceeded  = 10
	riskDailyExceeded    = 20

	// repeatedMessageFloor is the repeat count within the minute window at
	// which identical message content starts contributing risk.
	repeatedMessageFloor = 4

	// ChallengeRiskThreshold is the score at or above which a challenge is
	// required even when no soft quota has been breached.
	ChallengeRiskThreshold = 45
)

// ComputeRiskScore combines window counts and request signals into an
// additive score. Purely functional: no storage access, unbounded above,
// no normalization.
func ComputeRiskScore(signals core.RiskSignals, quota ChannelQuota) int {
	score := 0
	counts := signals.Counts

	if !signals.UserAgentPresent {
		score += riskMissingUserAgent
	}
	if counts.MessageRepeats >= repeatedMessageFloor {
		score += riskRepeatedMessage
	}
	if counts.Burst >= quota.BurstPer10s {
		score += riskBurstExceeded
	}
	if counts.IPMinute >= quota.SoftPerMinute {
		score += riskIPSoftExceeded
	}
	if counts.DeviceMinute >= quota.DevicePerMinute {
		score += riskDeviceExceeded
	}
	if counts.SessionMinute >= quota.SessionPerMinute {
		score += riskSessionExceeded
	}
	if counts.Daily >= quota.PerDay {
		score += riskDailyExceeded
	}

	return score
}
