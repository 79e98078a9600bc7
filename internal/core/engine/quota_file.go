package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/msgward/msgward/internal/core"
)

// LoadQuotasFile reads per-channel quota overrides from a YAML file and
// merges them over the defaults. Channels absent from the file keep their
// built-in thresholds; zero-valued fields in an override are rejected so a
// partial stanza cannot silently disable a limit.
func LoadQuotasFile(path string) (map[core.Channel]ChannelQuota, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read quotas file: %w", err)
	}

	overrides := map[string]ChannelQuota{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse quotas file: %w", err)
	}

	merged := make(map[core.Channel]ChannelQuota, len(DefaultQuotas))
	for channel, quota := range DefaultQuotas {
		merged[channel] = quota
	}

	for name, quota := range overrides {
		channel := core.Channel(name)
		if _, ok := DefaultQuotas[channel]; !ok {
			return nil, fmt.Errorf("unknown channel in quotas file: %s", name)
		}
		if err := validateQuota(quota); err != nil {
			return nil, fmt.Errorf("channel %s: %w", name, err)
		}
		merged[channel] = quota
	}

	return merged, nil
}

func validateQuota(q ChannelQuota) error {
	switch {
	case q.SoftPerMinute <= 0:
		return fmt.Errorf("soft_per_minute must be positive")
	case q.HardPerMinute < q.SoftPerMinute:
		return fmt.Errorf("hard_per_minute must be >= soft_per_minute")
	case q.BurstPer10s <= 0:
		return fmt.Errorf("burst_per_10s must be positive")
	case q.DevicePerMinute <= 0:
		return fmt.Errorf("device_per_minute must be positive")
	case q.SessionPerMinute <= 0:
		return fmt.Errorf("session_per_minute must be positive")
	case q.PerDay <= 0:
		return fmt.Errorf("per_day must be positive")
	}
	return nil
}
