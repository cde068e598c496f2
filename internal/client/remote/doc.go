// Package remote talks to the backend that stores the journal off-device.
//
// Three providers implement Client: a custom REST API, Firebase (Identity
// Toolkit + Realtime Database) and Supabase (GoTrue + PostgREST). New picks
// one from configuration at construction time; callers only see Client.
//
// Every call makes a single HTTP request and performs no retries. Failures
// are returned as *Error, which matches exactly one of ErrAuthFailed,
// ErrPullFailed or ErrPushFailed with errors.Is, plus ErrUnauthorized for
// rejected credentials and ErrUnavailable when the backend could not be
// reached or is overloaded.
package remote
