package core

import "time"

// Sliding window durations shared by the decision engine and the ledger.
const (
	WindowBurst  = 10 * time.Second
	WindowMinute = time.Minute
	WindowDay    = 24 * time.Hour

	// LedgerRetention is how long ledger entries survive before the
	// cleanup sweep removes them. Slightly over a day so daily-window
	// counts never lose entries mid-evaluation.
	LedgerRetention = 26 * time.Hour
)

// WindowDimension selects which sliding window a ledger lookup targets.
type WindowDimension string

const (
	DimensionIPMinute WindowDimension = "ip_minute"
	DimensionIPBurst  WindowDimension = "ip_burst"
	DimensionDaily    WindowDimension = "daily"
)

// Window returns the duration of the dimension's sliding window.
func (d WindowDimension) Window() time.Duration {
	switch d {
	case DimensionIPBurst:
		return WindowBurst
	case DimensionDaily:
		return WindowDay
	default:
		return WindowMinute
	}
}

// WindowQuery identifies the ledger slices consulted for one evaluation.
// Empty DeviceHash/SessionToken/MessageHash skip their dimensions.
type WindowQuery struct {
	IPAddress      string
	OrganizationID string
	Channel        Channel
	DeviceHash     string
	SessionToken   string
	MessageHash    string
	Now            time.Time
}
