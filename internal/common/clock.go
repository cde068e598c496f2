package common

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }

// NowMillis returns the clock reading as milliseconds since the Unix epoch,
// the timestamp unit used by entries and watermarks.
func NowMillis(c Clock) int64 {
	return c.Now().UnixMilli()
}

// FromMillis converts an epoch-milliseconds timestamp back to time.Time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
