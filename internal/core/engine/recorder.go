package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/msgward/msgward/internal/core"
)

// RecordRequest carries the raw attributes of a decided inbound message.
type RecordRequest struct {
	IPAddress         string
	OrganizationID    string
	Channel           core.Channel
	DeviceFingerprint string
	SessionToken      string
	UserAgent         string
	Message           string
	Outcome           core.Outcome
	ChallengeState    core.ChallengeState
	Reason            string
	RiskScore         int
	RequestID         string
}

// RecorderStore is the write surface of the ledger.
type RecorderStore interface {
	InsertEntry(ctx context.Context, entry core.RateLimitEntry) (int64, error)
	InsertAudit(ctx context.Context, entry core.AuditEntry) error
	Cleanup(ctx context.Context, ipAddress, deviceHash, sessionToken string, before time.Time) (int64, error)
}

// Recorder appends ledger entries and runs the retention sweep. Every
// accepted inbound message must pass through Record exactly once.
type Recorder struct {
	Store              RecorderStore
	Logger             *logging.Logger
	Clock              func() time.Time
	AuditRiskThreshold int
}

// NewRecorder builds a recorder with the default audit threshold.
func NewRecorder(store RecorderStore) *Recorder {
	return &Recorder{
		Store:              store,
		AuditRiskThreshold: ChallengeRiskThreshold,
	}
}

// Record appends one ledger entry, writes an audit record for notable
// signals, and sweeps entries past retention for the entry's IP, device,
// and session keys. Ledger and sweep failures propagate; the audit write
// never blocks the caller.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) error {
	if strings.TrimSpace(req.IPAddress) == "" {
		return fmt.Errorf("ip address is required")
	}

	now := r.now()
	outcome := req.Outcome
	if outcome == "" {
		outcome = core.OutcomeAllowed
	}
	challengeState := req.ChallengeState
	if challengeState == "" {
		challengeState = core.ChallengeNotRequired
	}

	entry := core.RateLimitEntry{
		IPAddress:      strings.TrimSpace(req.IPAddress),
		OrganizationID: req.OrganizationID,
		Channel:        req.Channel,
		DeviceHash:     core.HashDeviceFingerprint(req.DeviceFingerprint),
		SessionToken:   strings.TrimSpace(req.SessionToken),
		MessageHash:    core.HashMessage(req.Message),
		UserAgentHash:  core.HashUserAgent(req.UserAgent),
		Outcome:        outcome,
		ChallengeState: challengeState,
		Reason:         req.Reason,
		RiskScore:      req.RiskScore,
		RequestID:      req.RequestID,
		CreatedAt:      now,
	}

	if _, err := r.Store.InsertEntry(ctx, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	if r.shouldAudit(entry) {
		audit := core.AuditEntry{
			OrganizationID: entry.OrganizationID,
			Channel:        entry.Channel,
			IPAddress:      entry.IPAddress,
			Outcome:        entry.Outcome,
			Reason:         entry.Reason,
			RiskScore:      entry.RiskScore,
			RequestID:      entry.RequestID,
			CreatedAt:      now,
		}
		if err := r.Store.InsertAudit(ctx, audit); err != nil && r.Logger != nil {
			r.Logger.Warn("audit write failed",
				zap.String("organization_id", entry.OrganizationID),
				zap.String("ip_address", entry.IPAddress),
				zap.Error(err))
		}
	}

	deleted, err := r.Store.Cleanup(ctx, entry.IPAddress, entry.DeviceHash, entry.SessionToken, now.Add(-core.LedgerRetention))
	if err != nil {
		return fmt.Errorf("ledger cleanup sweep: %w", err)
	}
	if deleted > 0 && r.Logger != nil {
		r.Logger.Debug("ledger cleanup sweep",
			zap.String("ip_address", entry.IPAddress),
			zap.Int64("deleted", deleted))
	}

	return nil
}

// shouldAudit reports whether an entry carries signals worth an
// organization-scoped audit record.
func (r *Recorder) shouldAudit(entry core.RateLimitEntry) bool {
	threshold := r.AuditRiskThreshold
	if threshold <= 0 {
		threshold = ChallengeRiskThreshold
	}

	switch {
	case entry.Outcome == core.OutcomeBlocked:
		return true
	case entry.ChallengeState == core.ChallengeRequired, entry.ChallengeState == core.ChallengeFailed:
		return true
	case entry.RiskScore >= threshold:
		return true
	}

	reason := strings.ToLower(entry.Reason)
	return strings.Contains(reason, "pattern") || strings.Contains(reason, "velocity")
}

func (r *Recorder) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
