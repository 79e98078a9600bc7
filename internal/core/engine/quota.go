package engine

import "github.com/msgward/msgward/internal/core"

// ChannelQuota holds the six thresholds enforced per channel. Soft breaches
// trigger a challenge; 2x hard (or 2x the dimension quota) triggers a block.
type ChannelQuota struct {
	SoftPerMinute    int `yaml:"soft_per_minute"`
	HardPerMinute    int `yaml:"hard_per_minute"`
	BurstPer10s      int `yaml:"burst_per_10s"`
	DevicePerMinute  int `yaml:"device_per_minute"`
	SessionPerMinute int `yaml:"session_per_minute"`
	PerDay           int `yaml:"per_day"`
}

// DefaultQuotas provides the base per-channel thresholds for free-tier
// organizations. native_guest carries the highest throughput allowance,
// telegram the lowest burst allowance.
var DefaultQuotas = map[core.Channel]ChannelQuota{
	core.ChannelWebchat: {
		SoftPerMinute:    30,
		HardPerMinute:    90,
		BurstPer10s:      10,
		DevicePerMinute:  20,
		SessionPerMinute: 15,
		PerDay:           500,
	},
	core.ChannelNativeGuest: {
		SoftPerMinute:    60,
		HardPerMinute:    150,
		BurstPer10s:      20,
		DevicePerMinute:  40,
		SessionPerMinute: 30,
		PerDay:           1000,
	},
	core.ChannelTelegram: {
		SoftPerMinute:    20,
		HardPerMinute:    60,
		BurstPer10s:      5,
		DevicePerMinute:  15,
		SessionPerMinute: 10,
		PerDay:           400,
	},
}

// DefaultPaidMultiplier scales quotas for paid-tier organizations.
const DefaultPaidMultiplier = 2

// ResolveQuota returns the quota for a channel scaled by organization tier.
// Unknown channels fall back to the webchat quota.
func ResolveQuota(quotas map[core.Channel]ChannelQuota, channel core.Channel, tier core.Tier, paidMultiplier int) ChannelQuota {
	if quotas == nil {
		quotas = DefaultQuotas
	}

	quota, ok := quotas[channel]
	if !ok {
		quota = quotas[core.ChannelWebchat]
	}

	if tier != core.TierPaid {
		return quota
	}

	if paidMultiplier <= 0 {
		paidMultiplier = DefaultPaidMultiplier
	}

	return ChannelQuota{
		SoftPerMinute:    quota.SoftPerMinute * paidMultiplier,
		HardPerMinute:    quota.HardPerMinute * paidMultiplier,
		BurstPer10s:      quota.BurstPer10s * paidMultiplier,
		DevicePerMinute:  quota.DevicePerMinute * paidMultiplier,
		SessionPerMinute: quota.SessionPerMinute * paidMultiplier,
		PerDay:           quota.PerDay * paidMultiplier,
	}
}
