// Package cli provides the threeline command-line client.
//
// Every command opens the local journal, runs against it and exits. Local
// changes are queued and, with a signed-in session, pushed by a background
// sync that is allowed to finish before the process exits. Nothing needs the
// network except sync and sign-in.
//
//	threeline today "coffee with Ann" "finished the draft"
//	threeline list
//	threeline login email --email me@example.com
//	threeline sync
//	threeline backup save weekly --encrypt
package cli
