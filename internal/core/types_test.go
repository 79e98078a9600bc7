package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAbuseDecisionMarshalsRetryAfterAsMilliseconds(t *testing.T) {
	data, err := json.Marshal(AbuseDecision{
		Allowed:    false,
		RetryAfter: 15 * time.Second,
		RiskScore:  70,
		Reason:     "ip_rate_exceeded",
	})
	require.NoError(t, err)
	require.Contains(t, string(data), `"retry_after_ms":15000`)
	require.NotContains(t, string(data), "15000000000")
}

func TestAbuseDecisionRetryAfterRoundTrip(t *testing.T) {
	original := AbuseDecision{
		Allowed:    false,
		RetryAfter: 45 * time.Second,
		RiskScore:  55,
		Reason:     "burst_velocity_exceeded",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded AbuseDecision
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, original, decoded)
}

func TestAbuseDecisionOmitsZeroRetryAfter(t *testing.T) {
	data, err := json.Marshal(AbuseDecision{Allowed: true, Reason: "allowed"})
	require.NoError(t, err)
	require.NotContains(t, string(data), "retry_after_ms")
}
