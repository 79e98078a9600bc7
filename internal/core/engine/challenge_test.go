package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyBypassToken(t *testing.T) {
	verifier := NewVerifier(ChallengeConfig{BypassToken: "let-me-in"})

	result := verifier.Verify(context.Background(), VerifyRequest{
		Channel:   "webchat",
		IPAddress: "203.0.113.10",
		Token:     "let-me-in",
	})
	require.True(t, result.Verified)
	require.Equal(t, ProviderLocalBypass, result.Provider)
}

func TestVerifyNotConfigured(t *testing.T) {
	verifier := NewVerifier(ChallengeConfig{})

	result := verifier.Verify(context.Background(), VerifyRequest{
		Channel: "webchat",
		Token:   "anything",
	})
	require.False(t, result.Verified)
	require.Equal(t, ProviderNone, result.Provider)
	require.Equal(t, ReasonHookNotConfigured, result.Reason)
}

func TestVerifyWebhookSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "score": 0.93}`))
	}))
	defer hook.Close()

	verifier := NewVerifier(ChallengeConfig{
		VerifyURL:    hook.URL,
		VerifySecret: "hook-secret",
	})

	result := verifier.Verify(context.Background(), VerifyRequest{
		Channel:   "webchat",
		IPAddress: "203.0.113.10",
		Token:     "proof-token",
		RequestID: "req-42",
	})
	require.True(t, result.Verified)
	require.Equal(t, ProviderWebhook, result.Provider)
	require.NotNil(t, result.Score)
	require.InDelta(t, 0.93, *result.Score, 0.001)

	require.Equal(t, "Bearer hook-secret", gotAuth)
	require.Equal(t, "proof-token", gotBody["token"])
	require.Equal(t, "webchat", gotBody["channel"])
	require.Equal(t, "203.0.113.10", gotBody["ipAddress"])
	require.Equal(t, "req-42", gotBody["requestId"])
}

func TestVerifyWebhookVerifiedField(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"verified": true}`))
	}))
	defer hook.Close()

	verifier := NewVerifier(ChallengeConfig{VerifyURL: hook.URL})

	result := verifier.Verify(context.Background(), VerifyRequest{Token: "t"})
	require.True(t, result.Verified)
}

func TestVerifyWebhookRejection(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false}`))
	}))
	defer hook.Close()

	verifier := NewVerifier(ChallengeConfig{VerifyURL: hook.URL})

	result := verifier.Verify(context.Background(), VerifyRequest{Token: "bad"})
	require.False(t, result.Verified)
	require.Equal(t, ReasonTokenRejected, result.Reason)
}

func TestVerifyWebhookFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := httptest.NewServer(tt.handler)
			defer hook.Close()

			verifier := NewVerifier(ChallengeConfig{VerifyURL: hook.URL})
			result := verifier.Verify(context.Background(), VerifyRequest{Token: "t"})
			require.False(t, result.Verified)
			require.Equal(t, ReasonHookError, result.Reason)
		})
	}
}

func TestVerifyWebhookTimeoutFailsClosed(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer hook.Close()

	verifier := NewVerifier(ChallengeConfig{
		VerifyURL: hook.URL,
		Timeout:   20 * time.Millisecond,
	})

	result := verifier.Verify(context.Background(), VerifyRequest{Token: "t"})
	require.False(t, result.Verified)
	require.Equal(t, ReasonHookError, result.Reason)
}

func TestVerifyBypassIgnoresOtherConfig(t *testing.T) {
	// Bypass wins before the webhook is ever consulted.
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("webhook must not be called for a bypass token")
	}))
	defer hook.Close()

	verifier := NewVerifier(ChallengeConfig{
		BypassToken: "bypass",
		VerifyURL:   hook.URL,
	})

	result := verifier.Verify(context.Background(), VerifyRequest{Token: "bypass"})
	require.True(t, result.Verified)
	require.Equal(t, ProviderLocalBypass, result.Provider)
}
