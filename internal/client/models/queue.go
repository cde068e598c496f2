package models

// SyncQueueItem records that the local copy of an entry has not yet been
// confirmed pushed. There is at most one item per entry id.
type SyncQueueItem struct {
	EntryID string

	// UpdatedAt is the entry version that was enqueued.
	UpdatedAt int64

	RetryCount int
	LastError  *string
}

// QueueIDs returns the entry ids of the given queue items.
func QueueIDs(items []SyncQueueItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.EntryID
	}
	return ids
}
