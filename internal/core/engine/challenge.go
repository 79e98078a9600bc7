package engine

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// Challenge verification providers.
const (
	ProviderLocalBypass = "local_bypass"
	ProviderWebhook     = "webhook"
	ProviderNone        = "none"
)

// Challenge verification failure reasons.
const (
	ReasonHookNotConfigured = "challenge_hook_not_configured"
	ReasonHookError         = "challenge_hook_error"
	ReasonTokenRejected     = "challenge_token_rejected"
)

// ChallengeConfig is injected at construction; the verifier never reads
// ambient process state. The bypass token exists for internal testing and
// must not be set on deployments taking real traffic.
type ChallengeConfig struct {
	BypassToken  string
	VerifyURL    string
	VerifySecret string
	Timeout      time.Duration
}

const defaultVerifyTimeout = 5 * time.Second

// Verifier validates human-proof challenge tokens.
type Verifier struct {
	Config ChallengeConfig
	Client *http.Client
}

// NewVerifier builds a verifier with a timeout-bounded HTTP client.
func NewVerifier(cfg ChallengeConfig) *Verifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	return &Verifier{
		Config: cfg,
		Client: &http.Client{Timeout: timeout},
	}
}

// VerifyRequest carries a caller-supplied opaque token plus request context.
type VerifyRequest struct {
	Channel   string `json:"channel"`
	IPAddress string `json:"ipAddress"`
	Token     string `json:"token"`
	RequestID string `json:"requestId,omitempty"`
}

// VerifyResult reports the outcome of a challenge verification.
type VerifyResult struct {
	Verified bool     `json:"verified"`
	Provider string   `json:"provider"`
	Reason   string   `json:"reason,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// webhookPayload is the body POSTed to the external verification hook.
type webhookPayload struct {
	Token     string `json:"token"`
	Channel   string `json:"channel"`
	IPAddress string `json:"ipAddress"`
	RequestID string `json:"requestId,omitempty"`
}

// webhookResponse accepts either of the field names hooks commonly return.
type webhookResponse struct {
	Success  *bool    `json:"success"`
	Verified *bool    `json:"verified"`
	Score    *float64 `json:"score"`
}

// Verify checks a challenge token. It fails closed: any transport, parse,
// or configuration failure yields Verified=false, never an error.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) VerifyResult {
	token := strings.TrimSpace(req.Token)

	if bypass := strings.TrimSpace(v.Config.BypassToken); bypass != "" {
		if subtle.ConstantTimeCompare([]byte(token), []byte(bypass)) == 1 {
			return VerifyResult{Verified: true, Provider: ProviderLocalBypass}
		}
	}

	verifyURL := strings.TrimSpace(v.Config.VerifyURL)
	if verifyURL == "" {
		return VerifyResult{Verified: false, Provider: ProviderNone, Reason: ReasonHookNotConfigured}
	}

	return v.verifyViaWebhook(ctx, verifyURL, webhookPayload{
		Token:     token,
		Channel:   req.Channel,
		IPAddress: req.IPAddress,
		RequestID: req.RequestID,
	})
}

func (v *Verifier) verifyViaWebhook(ctx context.Context, verifyURL string, payload webhookPayload) VerifyResult {
	failed := VerifyResult{Verified: false, Provider: ProviderWebhook, Reason: ReasonHookError}

	body, err := json.Marshal(payload)
	if err != nil {
		return failed
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, bytes.NewReader(body))
	if err != nil {
		return failed
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if secret := strings.TrimSpace(v.Config.VerifySecret); secret != "" {
		httpReq.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := v.client().Do(httpReq)
	if err != nil {
		return failed
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed
	}

	var parsed webhookResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&parsed); err != nil {
		return failed
	}

	verified := false
	switch {
	case parsed.Success != nil:
		verified = *parsed.Success
	case parsed.Verified != nil:
		verified = *parsed.Verified
	}

	result := VerifyResult{Verified: verified, Provider: ProviderWebhook, Score: parsed.Score}
	if !verified {
		result.Reason = ReasonTokenRejected
	}
	return result
}

func (v *Verifier) client() *http.Client {
	if v.Client != nil {
		return v.Client
	}
	return &http.Client{Timeout: defaultVerifyTimeout}
}
