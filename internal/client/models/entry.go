// Package models defines the client-side journal data model: entries, the
// pending-push queue, the auth session and the pure projections over them.
package models

import "slices"

// LineCount is the fixed number of lines a journal entry holds.
const LineCount = 3

// MaxLineLength is the per-line limit, counted in runes after trimming.
const MaxLineLength = 120

// Entry is one day's journal record. It is persisted locally and
// synchronised with the remote store by id.
type Entry struct {
	// ID is a globally unique, immutable identifier and the merge key.
	ID string `json:"id"`

	// Date is the calendar day in YYYY-MM-DD form.
	Date string `json:"date"`

	// Lines holds exactly three free-text lines; empty slots are "".
	Lines [LineCount]string `json:"lines"`

	// ImageURI is an opaque reference to a locally stored image.
	ImageURI *string `json:"imageUri,omitempty"`

	// CreatedAt and UpdatedAt are epoch milliseconds. UpdatedAt strictly
	// increases with every mutation of the same id.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`

	// DeletedAt marks the entry as a tombstone. Tombstones are kept so the
	// deletion propagates through sync.
	DeletedAt *int64 `json:"deletedAt"`
}

// IsDeleted reports whether the entry is a tombstone.
func (e Entry) IsDeleted() bool {
	return e.DeletedAt != nil
}

// Clone returns a deep copy, so pointer fields are not shared.
func (e Entry) Clone() Entry {
	out := e
	if e.ImageURI != nil {
		v := *e.ImageURI
		out.ImageURI = &v
	}
	if e.DeletedAt != nil {
		v := *e.DeletedAt
		out.DeletedAt = &v
	}
	return out
}

// NextStamp returns the UpdatedAt value for a new mutation of an entry whose
// current stamp is prev. It never goes backwards, even when the wall clock
// does.
func NextStamp(now, prev int64) int64 {
	if now <= prev {
		return prev + 1
	}
	return now
}

// CloneAll deep-copies a slice of entries.
func CloneAll(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

// SortForDisplay orders entries by date descending, then by UpdatedAt
// descending, then by id descending.
func SortForDisplay(entries []Entry) {
	slices.SortStableFunc(entries, compareForDisplay)
}

func compareForDisplay(a, b Entry) int {
	switch {
	case a.Date != b.Date:
		if a.Date > b.Date {
			return -1
		}
		return 1
	case a.UpdatedAt != b.UpdatedAt:
		if a.UpdatedAt > b.UpdatedAt {
			return -1
		}
		return 1
	case a.ID != b.ID:
		if a.ID > b.ID {
			return -1
		}
		return 1
	}
	return 0
}
