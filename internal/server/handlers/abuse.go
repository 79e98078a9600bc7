package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/msgward/msgward/internal/core"
	"github.com/msgward/msgward/internal/core/engine"
	apperrors "github.com/msgward/msgward/internal/errors"
	"github.com/msgward/msgward/internal/metrics"
	servermw "github.com/msgward/msgward/internal/server/middleware"
)

// AbuseHandler serves the abuse-control API: rate-limit checks, ledger
// recording, and challenge verification.
type AbuseHandler struct {
	Evaluator *engine.Evaluator
	Recorder  *engine.Recorder
	Verifier  *engine.Verifier
}

// CheckRequestBody is the JSON body for POST /v1/abuse/check.
type CheckRequestBody struct {
	IPAddress         string `json:"ip_address"`
	OrganizationID    string `json:"organization_id"`
	Channel           string `json:"channel"`
	DeviceFingerprint string `json:"device_fingerprint,omitempty"`
	SessionToken      string `json:"session_token,omitempty"`
	UserAgent         string `json:"user_agent,omitempty"`
	Message           string `json:"message,omitempty"`
}

// RecordRequestBody is the JSON body for POST /v1/abuse/record.
type RecordRequestBody struct {
	CheckRequestBody
	Outcome        string `json:"outcome,omitempty"`
	ChallengeState string `json:"challenge_state,omitempty"`
	Reason         string `json:"reason,omitempty"`
	RiskScore      int    `json:"risk_score,omitempty"`
}

// Check evaluates one inbound message and returns the decision. A blocked
// sender gets 429 with a Retry-After header; challenge and allow outcomes
// return 200 with the decision body.
func (h *AbuseHandler) Check(w http.ResponseWriter, r *http.Request) {
	var body CheckRequestBody
	if err := decodeJSONBody(r, &body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid request body"))
		return
	}

	if strings.TrimSpace(body.IPAddress) == "" {
		respondWithError(w, r, apperrors.NewValidationError("ip_address is required"))
		return
	}
	if strings.TrimSpace(body.OrganizationID) == "" {
		respondWithError(w, r, apperrors.NewValidationError("organization_id is required"))
		return
	}

	channel := core.ParseChannel(body.Channel)
	decision, err := h.Evaluator.CheckRateLimit(r.Context(), engine.CheckRequest{
		IPAddress:         body.IPAddress,
		OrganizationID:    body.OrganizationID,
		Channel:           channel,
		DeviceFingerprint: body.DeviceFingerprint,
		SessionToken:      body.SessionToken,
		UserAgent:         body.UserAgent,
		Message:           body.Message,
		RequestID:         servermw.GetRequestID(r.Context()),
	})
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "rate limit check failed"))
		return
	}

	metrics.RecordDecision(string(channel), decisionOutcome(decision), decision.Reason)
	metrics.RecordRiskScore(string(channel), decision.RiskScore)

	if !decision.Allowed {
		retrySeconds := int(decision.RetryAfter / time.Second)
		if retrySeconds < 1 {
			retrySeconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retrySeconds))

		envelope := apperrors.NewRateLimitedError("sender is rate limited")
		envelope = envelope.WithDetails(map[string]interface{}{
			"reason":              decision.Reason,
			"risk_score":          decision.RiskScore,
			"retry_after_seconds": retrySeconds,
		})
		respondWithError(w, r, envelope)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// Record appends a decided message to the abuse ledger.
func (h *AbuseHandler) Record(w http.ResponseWriter, r *http.Request) {
	var body RecordRequestBody
	if err := decodeJSONBody(r, &body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid request body"))
		return
	}

	if strings.TrimSpace(body.IPAddress) == "" {
		respondWithError(w, r, apperrors.NewValidationError("ip_address is required"))
		return
	}

	err := h.Recorder.Record(r.Context(), engine.RecordRequest{
		IPAddress:         body.IPAddress,
		OrganizationID:    body.OrganizationID,
		Channel:           core.ParseChannel(body.Channel),
		DeviceFingerprint: body.DeviceFingerprint,
		SessionToken:      body.SessionToken,
		UserAgent:         body.UserAgent,
		Message:           body.Message,
		Outcome:           core.Outcome(body.Outcome),
		ChallengeState:    core.ChallengeState(body.ChallengeState),
		Reason:            body.Reason,
		RiskScore:         body.RiskScore,
		RequestID:         servermw.GetRequestID(r.Context()),
	})
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "ledger append failed"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyChallenge verifies a challenge token. Verification never errors;
// failures show up as verified=false with a reason.
func (h *AbuseHandler) VerifyChallenge(w http.ResponseWriter, r *http.Request) {
	var body engine.VerifyRequest
	if err := decodeJSONBody(r, &body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid request body"))
		return
	}

	if strings.TrimSpace(body.Token) == "" {
		respondWithError(w, r, apperrors.NewValidationError("token is required"))
		return
	}

	if body.RequestID == "" {
		body.RequestID = servermw.GetRequestID(r.Context())
	}

	result := h.Verifier.Verify(r.Context(), body)
	metrics.RecordChallengeVerification(result.Provider, result.Verified)

	writeJSON(w, http.StatusOK, result)
}

func decisionOutcome(decision core.AbuseDecision) string {
	switch {
	case !decision.Allowed:
		return string(core.OutcomeBlocked)
	case decision.RequiresChallenge:
		return string(core.OutcomeThrottled)
	default:
		return string(core.OutcomeAllowed)
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
