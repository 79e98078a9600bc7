package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msgward/msgward/internal/core"
)

func TestResolveQuotaFreeTier(t *testing.T) {
	quota := ResolveQuota(nil, core.ChannelWebchat, core.TierFree, DefaultPaidMultiplier)
	require.Equal(t, 30, quota.SoftPerMinute)
	require.Equal(t, 90, quota.HardPerMinute)
	require.Equal(t, 10, quota.BurstPer10s)
}

func TestResolveQuotaPaidTierDoubles(t *testing.T) {
	quota := ResolveQuota(nil, core.ChannelWebchat, core.TierPaid, DefaultPaidMultiplier)
	require.Equal(t, 60, quota.SoftPerMinute)
	require.Equal(t, 180, quota.HardPerMinute)
	require.Equal(t, 20, quota.BurstPer10s)
	require.Equal(t, 1000, quota.PerDay)
}

func TestResolveQuotaUnknownChannelFallsBack(t *testing.T) {
	quota := ResolveQuota(nil, core.Channel("sms"), core.TierFree, DefaultPaidMultiplier)
	require.Equal(t, DefaultQuotas[core.ChannelWebchat], quota)
}

func TestResolveQuotaChannelShape(t *testing.T) {
	webchat := DefaultQuotas[core.ChannelWebchat]
	native := DefaultQuotas[core.ChannelNativeGuest]
	telegram := DefaultQuotas[core.ChannelTelegram]

	// native_guest has the highest throughput allowance, telegram the
	// lowest burst allowance.
	require.Greater(t, native.SoftPerMinute, webchat.SoftPerMinute)
	require.Less(t, telegram.BurstPer10s, webchat.BurstPer10s)
	require.Less(t, telegram.BurstPer10s, native.BurstPer10s)
}

func TestLoadQuotasFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
webchat:
  soft_per_minute: 10
  hard_per_minute: 40
  burst_per_10s: 4
  device_per_minute: 8
  session_per_minute: 6
  per_day: 200
`), 0o600))

	quotas, err := LoadQuotasFile(path)
	require.NoError(t, err)
	require.Equal(t, 10, quotas[core.ChannelWebchat].SoftPerMinute)
	// Untouched channels keep the defaults.
	require.Equal(t, DefaultQuotas[core.ChannelTelegram], quotas[core.ChannelTelegram])
}

func TestLoadQuotasFileRejectsUnknownChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sms:
  soft_per_minute: 10
  hard_per_minute: 40
  burst_per_10s: 4
  device_per_minute: 8
  session_per_minute: 6
  per_day: 200
`), 0o600))

	_, err := LoadQuotasFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown channel")
}

func TestLoadQuotasFileRejectsPartialStanza(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
webchat:
  soft_per_minute: 10
`), 0o600))

	_, err := LoadQuotasFile(path)
	require.Error(t, err)
}
