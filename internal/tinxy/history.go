package tinxy

import (
	"context"
	"time"
)

// State history source values.
const (
	StateHistorySourcePoll    = "poll"
	StateHistorySourceCommand = "command"
)

// StateHistoryEntry is a single recorded state change for a logical device.
//
// Each entry stores the full observed state at the time of the change, so
// the local trail stays useful even when the time-series database is
// disabled or unavailable.
type StateHistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceKey is the logical device key ("{unit}-{relay}").
	DeviceKey string `json:"device_key"`

	// State is the snapshot of the observed dynamic fields.
	State DeviceState `json:"state"`

	// Source identifies how the change was recorded (poll, command).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the state change (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// StateHistoryRepository stores and retrieves device state change history.
//
// Implementations must be thread-safe and use UTC timestamps.
type StateHistoryRepository interface {
	// RecordStateChange records an observed state change for a device.
	RecordStateChange(ctx context.Context, deviceKey string, state DeviceState, source string) error

	// GetHistory returns recent entries for the device, newest first.
	// Implementations may clamp the limit.
	GetHistory(ctx context.Context, deviceKey string, limit int) ([]StateHistoryEntry, error)
}
