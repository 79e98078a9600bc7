package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msgward/msgward/internal/core"
)

func TestComputeRiskScoreAdditive(t *testing.T) {
	quota := DefaultQuotas[core.ChannelWebchat]

	tests := []struct {
		name    string
		signals core.RiskSignals
		want    int
	}{
		{
			name:    "clean request",
			signals: core.RiskSignals{UserAgentPresent: true},
			want:    0,
		},
		{
			name:    "missing user agent",
			signals: core.RiskSignals{},
			want:    5,
		},
		{
			name: "repeated message",
			signals: core.RiskSignals{
				UserAgentPresent: true,
				Counts:           core.WindowCounts{MessageRepeats: 4},
			},
			want: 30,
		},
		{
			name: "three repeats below floor",
			signals: core.RiskSignals{
				UserAgentPresent: true,
				Counts:           core.WindowCounts{MessageRepeats: 3},
			},
			want: 0,
		},
		{
			name: "burst quota reached",
			signals: core.RiskSignals{
				UserAgentPresent: true,
				Counts:           core.WindowCounts{Burst: 10},
			},
			want: 35,
		},
		{
			name: "ip soft quota reached",
			signals: core.RiskSignals{
				UserAgentPresent: true,
				Counts:           core.WindowCounts{IPMinute: 30},
			},
			want: 20,
		},
		{
			name: "device quota reached",
			signals: core.RiskSignals{
				UserAgentPresent: true,
				Counts:           core.WindowCounts{DeviceMinute: 20},
			},
			want: 15,
		},
		{
			name: "session quota reached",
			signals: core.RiskSignals{
				UserAgentPresent: true,
				Counts:           core.WindowCounts{SessionMinute: 15},
			},
			want: 10,
		},
		{
			name: "daily quota reached",
			signals: core.RiskSignals{
				UserAgentPresent: true,
				Counts:           core.WindowCounts{Daily: 500},
			},
			want: 20,
		},
		{
			name: "everything at once",
			signals: core.RiskSignals{
				Counts: core.WindowCounts{
					Burst:          10,
					IPMinute:       30,
					DeviceMinute:   20,
					SessionMinute:  15,
					MessageRepeats: 4,
					Daily:          500,
				},
			},
			want: 5 + 30 + 35 + 20 + 15 + 10 + 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeRiskScore(tt.signals, quota))
		})
	}
}
