package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/msgward/msgward/internal/core"
)

type memoryLedger struct {
	org    *core.Organization
	orgErr error
	counts core.WindowCounts
	oldest map[core.WindowDimension]time.Time

	lastQuery core.WindowQuery
}

func (m *memoryLedger) GetOrganization(ctx context.Context, id string) (*core.Organization, error) {
	return m.org, m.orgErr
}

func (m *memoryLedger) CountWindows(ctx context.Context, q core.WindowQuery) (core.WindowCounts, error) {
	m.lastQuery = q
	return m.counts, nil
}

func (m *memoryLedger) OldestInWindow(ctx context.Context, q core.WindowQuery, dim core.WindowDimension) (*time.Time, error) {
	if m.oldest == nil {
		return nil, nil
	}
	if ts, ok := m.oldest[dim]; ok {
		return &ts, nil
	}
	return nil, nil
}

func freeOrg() *core.Organization {
	return &core.Organization{ID: "org-1", Name: "Acme", Tier: core.TierFree}
}

func testEvaluator(ledger *memoryLedger, now time.Time) *Evaluator {
	eval := NewEvaluator(ledger)
	eval.Clock = func() time.Time { return now }
	return eval
}

func TestCheckRateLimitFreshClientAllowed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{org: freeOrg()}
	eval := testEvaluator(ledger, now)

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "org-1",
		Channel:        core.ChannelWebchat,
		UserAgent:      "Mozilla/5.0",
		Message:        "hello there",
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.False(t, decision.RequiresChallenge)
	require.Equal(t, 0, decision.RiskScore)
	require.Equal(t, ReasonAllowed, decision.Reason)
}

func TestCheckRateLimitMissingOrganizationDenied(t *testing.T) {
	ledger := &memoryLedger{}
	eval := testEvaluator(ledger, time.Now().UTC())

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "nope",
		Channel:        core.ChannelWebchat,
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonOrgNotFound, decision.Reason)
}

func TestCheckRateLimitSoftQuotaRequiresChallenge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{
		org:    freeOrg(),
		counts: core.WindowCounts{IPMinute: 30}, // webchat free soft quota
	}
	eval := testEvaluator(ledger, now)

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "org-1",
		Channel:        core.ChannelWebchat,
		UserAgent:      "Mozilla/5.0",
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.True(t, decision.RequiresChallenge)
	require.Equal(t, ChallengeTypeProofOfHuman, decision.ChallengeType)
	require.Equal(t, ReasonAdaptiveThrottle, decision.ChallengeReason)
}

func TestCheckRateLimitHardQuotaBlocks(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{
		org:    freeOrg(),
		counts: core.WindowCounts{IPMinute: 180}, // 2x webchat hard quota
		oldest: map[core.WindowDimension]time.Time{
			core.DimensionIPMinute: now.Add(-45 * time.Second),
		},
	}
	eval := testEvaluator(ledger, now)

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "org-1",
		Channel:        core.ChannelWebchat,
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonIPRateExceeded, decision.Reason)
	// Oldest minute-window entry is 45s old; it leaves the window in 15s.
	require.Equal(t, 15*time.Second, decision.RetryAfter)
}

func TestCheckRateLimitBlockPrecedesChallenge(t *testing.T) {
	// Both the hard IP threshold and the soft session threshold are
	// breached; the block must win.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{
		org: freeOrg(),
		counts: core.WindowCounts{
			IPMinute:      200,
			SessionMinute: 16,
		},
	}
	eval := testEvaluator(ledger, now)

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "org-1",
		Channel:        core.ChannelWebchat,
		SessionToken:   "sess-1",
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.False(t, decision.RequiresChallenge)
	require.Equal(t, ReasonIPRateExceeded, decision.Reason)
}

func TestCheckRateLimitRepeatedMessagePriority(t *testing.T) {
	// Repeated-message pattern outranks burst velocity and the adaptive
	// fallback when choosing the challenge reason.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{
		org: freeOrg(),
		counts: core.WindowCounts{
			MessageRepeats: 4,
			Burst:          10, // burst quota also breached
			IPMinute:       30,
		},
	}
	eval := testEvaluator(ledger, now)

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "org-1",
		Channel:        core.ChannelWebchat,
		Message:        "buy cheap stuff now",
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.True(t, decision.RequiresChallenge)
	require.Equal(t, ReasonRepeatedMessagePattern, decision.ChallengeReason)
}

func TestCheckRateLimitRiskThresholdChallenge(t *testing.T) {
	// No soft minute quota breached, but burst + repeats push the risk
	// score past the adaptive threshold (35 + 30 = 65).
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{
		org: freeOrg(),
		counts: core.WindowCounts{
			Burst:          10,
			MessageRepeats: 4,
		},
	}
	eval := testEvaluator(ledger, now)

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "org-1",
		Channel:        core.ChannelWebchat,
		UserAgent:      "Mozilla/5.0",
		Message:        "same message",
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.True(t, decision.RequiresChallenge)
	require.GreaterOrEqual(t, decision.RiskScore, ChallengeRiskThreshold)
}

func TestCheckRateLimitPaidTierScalesQuota(t *testing.T) {
	// 30 in the IP minute window challenges a free org but not a paid one.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{
		org:    &core.Organization{ID: "org-1", Tier: core.TierPaid},
		counts: core.WindowCounts{IPMinute: 30},
	}
	eval := testEvaluator(ledger, now)

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "org-1",
		Channel:        core.ChannelWebchat,
		UserAgent:      "Mozilla/5.0",
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.False(t, decision.RequiresChallenge)
}

func TestCheckRateLimitHashesBeforeLookup(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{org: freeOrg()}
	eval := testEvaluator(ledger, now)

	_, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:         "203.0.113.10",
		OrganizationID:    "org-1",
		Channel:           core.ChannelWebchat,
		DeviceFingerprint: "raw-device-id",
		Message:           "  Hello   WORLD ",
	})
	require.NoError(t, err)
	require.Equal(t, core.HashDeviceFingerprint("raw-device-id"), ledger.lastQuery.DeviceHash)
	require.Equal(t, core.HashMessage("hello world"), ledger.lastQuery.MessageHash)
	require.NotContains(t, ledger.lastQuery.DeviceHash, "raw-device-id")
}

func TestCheckRateLimitRetryAfterFallsBackToWindow(t *testing.T) {
	// With no oldest-entry data the hint degrades to the full window.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{
		org:    freeOrg(),
		counts: core.WindowCounts{Burst: 20}, // 2x webchat burst quota
	}
	eval := testEvaluator(ledger, now)

	decision, err := eval.CheckRateLimit(context.Background(), CheckRequest{
		IPAddress:      "203.0.113.10",
		OrganizationID: "org-1",
		Channel:        core.ChannelWebchat,
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonBurstExceeded, decision.Reason)
	require.Equal(t, core.WindowBurst, decision.RetryAfter)
}
