package syncer

import (
	"time"

	"github.com/dmitrijs2005/threeline/internal/client/models"
)

// State is the sync lifecycle: idle -> syncing -> idle | error.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateError   State = "error"
)

// Stats is per-engine sync telemetry.
type Stats struct {
	Attempts      int
	Failures      int
	LastPushed    int
	LastPulled    int
	LastDuration  time.Duration
	LastAttemptAt time.Time
}

// Status is a point-in-time copy of the observable engine state.
type Status struct {
	State State

	// Ready is set once Bootstrap has finished, successfully or not.
	Ready bool

	// LastSyncedAt is the watermark of the last successful pull, 0 if none.
	LastSyncedAt int64
	PendingCount int
	LastError    string

	Session *models.AuthSession
	Guest   bool

	Stats Stats
}
