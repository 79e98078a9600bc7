package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/msgward/msgward/internal/core"
)

// Challenge reasons, in priority order.
const (
	ReasonRepeatedMessagePattern = "repeated_message_pattern"
	ReasonBurstVelocity          = "burst_velocity"
	ReasonAdaptiveThrottle       = "adaptive_throttle"

	// ChallengeTypeProofOfHuman is the only challenge type issued today.
	ChallengeTypeProofOfHuman = "proof_of_human"
)

// Decision reasons.
const (
	ReasonAllowed          = "allowed"
	ReasonOrgNotFound      = "organization_not_found"
	ReasonIPRateExceeded   = "ip_rate_exceeded"
	ReasonBurstExceeded    = "burst_velocity_exceeded"
	ReasonDeviceExceeded   = "device_rate_exceeded"
	ReasonDailyExceeded    = "daily_quota_exceeded"
)

// LedgerStore is the persistence surface the evaluator reads from. Every
// evaluation re-reads the ledger; there is no in-process counter cache, so
// concurrent check-then-act races are possible and accepted.
type LedgerStore interface {
	GetOrganization(ctx context.Context, id string) (*core.Organization, error)
	CountWindows(ctx context.Context, q core.WindowQuery) (core.WindowCounts, error)
	OldestInWindow(ctx context.Context, q core.WindowQuery, dim core.WindowDimension) (*time.Time, error)
}

// CheckRequest carries the raw inbound-message attributes for one evaluation.
// Fingerprint, user agent, and message text are hashed before any storage
// lookup; raw values never leave this struct.
type CheckRequest struct {
	IPAddress         string
	OrganizationID    string
	Channel           core.Channel
	DeviceFingerprint string
	SessionToken      string
	UserAgent         string
	Message           string
	RequestID         string
}

// Evaluator maps ledger state and request signals to an abuse decision.
type Evaluator struct {
	Store          LedgerStore
	Quotas         map[core.Channel]ChannelQuota
	Clock          func() time.Time
	PaidMultiplier int
}

// NewEvaluator builds an evaluator with default quotas and clock.
func NewEvaluator(store LedgerStore) *Evaluator {
	return &Evaluator{
		Store:          store,
		Quotas:         DefaultQuotas,
		PaidMultiplier: DefaultPaidMultiplier,
	}
}

// CheckRateLimit evaluates one inbound message. Read-only: recording the
// outcome is the caller's responsibility via the recorder.
//
// Hard-threshold block checks run before soft-threshold challenge checks,
// so a 2x breach always blocks even when a challenge would also apply.
func (e *Evaluator) CheckRateLimit(ctx context.Context, req CheckRequest) (core.AbuseDecision, error) {
	if strings.TrimSpace(req.IPAddress) == "" {
		return core.AbuseDecision{Allowed: false}, fmt.Errorf("ip address is required")
	}

	org, err := e.Store.GetOrganization(ctx, req.OrganizationID)
	if err != nil {
		return core.AbuseDecision{Allowed: false}, fmt.Errorf("load organization: %w", err)
	}
	if org == nil {
		// Hard deny: unknown tenants get no quota and no detail.
		return core.AbuseDecision{Allowed: false, Reason: ReasonOrgNotFound}, nil
	}

	now := e.now()
	query := core.WindowQuery{
		IPAddress:      req.IPAddress,
		OrganizationID: req.OrganizationID,
		Channel:        req.Channel,
		DeviceHash:     core.HashDeviceFingerprint(req.DeviceFingerprint),
		SessionToken:   strings.TrimSpace(req.SessionToken),
		MessageHash:    core.HashMessage(req.Message),
		Now:            now,
	}

	counts, err := e.Store.CountWindows(ctx, query)
	if err != nil {
		return core.AbuseDecision{Allowed: false}, fmt.Errorf("count windows: %w", err)
	}

	quota := ResolveQuota(e.Quotas, req.Channel, org.Tier, e.PaidMultiplier)
	risk := ComputeRiskScore(core.RiskSignals{
		Counts:           counts,
		UserAgentPresent: strings.TrimSpace(req.UserAgent) != "",
	}, quota)

	if decision, blocked := e.blockDecision(ctx, query, counts, quota, risk, now); blocked {
		return decision, nil
	}

	if decision, challenged := challengeDecision(counts, quota, risk); challenged {
		return decision, nil
	}

	return core.AbuseDecision{
		Allowed:   true,
		RiskScore: risk,
		Reason:    ReasonAllowed,
	}, nil
}

// blockDecision applies the hard (2x) thresholds. The retry-after hint is
// the time until the oldest entry of the breached window expires; the
// minute window is preferred, then burst, then daily.
func (e *Evaluator) blockDecision(ctx context.Context, q core.WindowQuery, counts core.WindowCounts, quota ChannelQuota, risk int, now time.Time) (core.AbuseDecision, bool) {
	var reason string
	var dim core.WindowDimension

	switch {
	case counts.IPMinute >= 2*quota.HardPerMinute:
		reason, dim = ReasonIPRateExceeded, core.DimensionIPMinute
	case counts.DeviceMinute >= 2*quota.DevicePerMinute:
		reason, dim = ReasonDeviceExceeded, core.DimensionIPMinute
	case counts.Burst >= 2*quota.BurstPer10s:
		reason, dim = ReasonBurstExceeded, core.DimensionIPBurst
	case counts.Daily >= 2*quota.PerDay:
		reason, dim = ReasonDailyExceeded, core.DimensionDaily
	default:
		return core.AbuseDecision{}, false
	}

	return core.AbuseDecision{
		Allowed:    false,
		RetryAfter: e.retryAfter(ctx, q, dim, now),
		RiskScore:  risk,
		Reason:     reason,
	}, true
}

func (e *Evaluator) retryAfter(ctx context.Context, q core.WindowQuery, dim core.WindowDimension, now time.Time) time.Duration {
	window := dim.Window()

	oldest, err := e.Store.OldestInWindow(ctx, q, dim)
	if err != nil || oldest == nil {
		return window
	}

	remaining := oldest.Add(window).Sub(now)
	if remaining <= 0 {
		return window
	}
	return remaining
}

// challengeDecision applies the soft thresholds and the adaptive risk
// threshold. The challenge reason follows a fixed priority:
// repeated message pattern, then burst velocity, then adaptive throttle.
func challengeDecision(counts core.WindowCounts, quota ChannelQuota, risk int) (core.AbuseDecision, bool) {
	softBreach := counts.IPMinute >= quota.SoftPerMinute ||
		counts.DeviceMinute >= quota.DevicePerMinute ||
		counts.SessionMinute >= quota.SessionPerMinute

	if !softBreach && risk < ChallengeRiskThreshold {
		return core.AbuseDecision{}, false
	}

	reason := ReasonAdaptiveThrottle
	switch {
	case counts.MessageRepeats >= repeatedMessageFloor:
		reason = ReasonRepeatedMessagePattern
	case counts.Burst >= quota.BurstPer10s:
		reason = ReasonBurstVelocity
	}

	return core.AbuseDecision{
		Allowed:           true,
		RequiresChallenge: true,
		ChallengeReason:   reason,
		ChallengeType:     ChallengeTypeProofOfHuman,
		RiskScore:         risk,
		Reason:            reason,
	}, true
}

func (e *Evaluator) now() time.Time {
	if e != nil && e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}
