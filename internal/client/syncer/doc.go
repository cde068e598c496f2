// Package syncer owns the in-memory journal state and reconciles it with the
// remote backend.
//
// An Engine holds the entry cache, the signed-in session and the observable
// sync status. Local mutations go through Mutate or Restore, which write to
// the store first and then update the cache. A sync attempt pushes the
// pending queue, pulls everything changed since the watermark, merges it
// last-write-wins and commits the result together with the new watermark.
//
// Store access is serialised by one mutex covering the queue read at the
// start of an attempt, the post-push bookkeeping, the merge commit, local
// mutations and backup restore. Network calls run outside it. Concurrent
// SyncNow calls share a single in-flight attempt; Trigger requests a
// background attempt and coalesces with any request already waiting.
package syncer
