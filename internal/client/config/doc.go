// Package config loads runtime configuration for the threeline CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see Default).
//  2. Optional config file given by --config; the format follows the
//     extension (.json, .toml, .yaml, .yml).
//  3. Environment variables prefixed with THREELINE_.
//  4. Command-line flags registered by RegisterFlags, when explicitly set.
//
// Durations accept strings like "15s" or integer nanoseconds in every source.
//
// # Example (YAML)
//
//	provider: supabase
//	database_path: /home/me/.config/threeline/journal.db
//	request_timeout: 15s
//	supabase:
//	  url: https://abc.supabase.co
//	  anon_key: eyJ...
//	backup:
//	  type: s3
//	  s3_bucket: my-journal
//	  s3_prefix: threeline
package config
