package core

import (
	"encoding/json"
	"time"
)

// Channel identifies the inbound transport a message arrived on.
type Channel string

const (
	ChannelWebchat     Channel = "webchat"
	ChannelNativeGuest Channel = "native_guest"
	ChannelTelegram    Channel = "telegram"
)

// ParseChannel normalizes a channel string, defaulting to webchat.
func ParseChannel(raw string) Channel {
	switch Channel(raw) {
	case ChannelNativeGuest:
		return ChannelNativeGuest
	case ChannelTelegram:
		return ChannelTelegram
	default:
		return ChannelWebchat
	}
}

// Tier is the billing tier of an organization.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Outcome records what was decided for an inbound message.
type Outcome string

const (
	OutcomeAllowed   Outcome = "allowed"
	OutcomeThrottled Outcome = "throttled"
	OutcomeBlocked   Outcome = "blocked"
)

// ChallengeState records where a message stands in the human-proof flow.
type ChallengeState string

const (
	ChallengeNotRequired ChallengeState = "not_required"
	ChallengeRequired    ChallengeState = "required"
	ChallengePassed      ChallengeState = "passed"
	ChallengeFailed      ChallengeState = "failed"
)

// RateLimitEntry is one row of the append-only abuse ledger. Entries are
// never updated in place; they leave the ledger only via the cleanup sweep
// or an explicit admin purge.
type RateLimitEntry struct {
	ID             int64          `json:"id"`
	IPAddress      string         `json:"ip_address"`
	OrganizationID string         `json:"organization_id"`
	Channel        Channel        `json:"channel"`
	DeviceHash     string         `json:"device_hash,omitempty"`
	SessionToken   string         `json:"session_token,omitempty"`
	MessageHash    string         `json:"message_hash,omitempty"`
	UserAgentHash  string         `json:"user_agent_hash,omitempty"`
	Outcome        Outcome        `json:"outcome"`
	ChallengeState ChallengeState `json:"challenge_state"`
	Reason         string         `json:"reason,omitempty"`
	RiskScore      int            `json:"risk_score"`
	RequestID      string         `json:"request_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// AbuseDecision is the synchronous verdict for a single inbound message.
// It is never persisted; the inputs that produced it are, via RateLimitEntry.
type AbuseDecision struct {
	Allowed           bool          `json:"allowed"`
	RetryAfter        time.Duration `json:"-"`
	RequiresChallenge bool          `json:"requires_challenge,omitempty"`
	ChallengeReason   string        `json:"challenge_reason,omitempty"`
	ChallengeType     string        `json:"challenge_type,omitempty"`
	RiskScore         int           `json:"risk_score"`
	Reason            string        `json:"reason,omitempty"`
}

// MarshalJSON renders the retry hint in milliseconds. time.Duration would
// otherwise serialize as nanoseconds under a field named retry_after_ms.
func (d AbuseDecision) MarshalJSON() ([]byte, error) {
	type alias AbuseDecision
	return json.Marshal(struct {
		alias
		RetryAfterMS int64 `json:"retry_after_ms,omitempty"`
	}{
		alias:        alias(d),
		RetryAfterMS: d.RetryAfter.Milliseconds(),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (d *AbuseDecision) UnmarshalJSON(data []byte) error {
	type alias AbuseDecision
	wire := struct {
		*alias
		RetryAfterMS int64 `json:"retry_after_ms,omitempty"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	d.RetryAfter = time.Duration(wire.RetryAfterMS) * time.Millisecond
	return nil
}

// WindowCounts holds ledger counts over the three sliding windows used by
// the decision engine. All counts are scoped to the organization's channel
// except the per-IP/device/session minute counts, which are global per key.
type WindowCounts struct {
	Burst          int // same IP, 10s window
	IPMinute       int // same IP, 60s window
	DeviceMinute   int // same device hash, 60s window
	SessionMinute  int // same session token, 60s window
	MessageRepeats int // same message hash on the channel, 60s window
	Daily          int // org+channel, 24h window
}

// RiskSignals is the plain input to the risk scorer.
type RiskSignals struct {
	Counts           WindowCounts
	UserAgentPresent bool
}

// Organization is a tenant record. Tier drives quota scaling.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tier      Tier      `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditEntry is an organization-scoped audit record written for notable
// abuse-control events (blocks, challenges, high risk scores).
type AuditEntry struct {
	ID             int64     `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Channel        Channel   `json:"channel"`
	IPAddress      string    `json:"ip_address"`
	Outcome        Outcome   `json:"outcome"`
	Reason         string    `json:"reason,omitempty"`
	RiskScore      int       `json:"risk_score"`
	RequestID      string    `json:"request_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
