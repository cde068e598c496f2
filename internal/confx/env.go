package confx

import (
	"fmt"
	"os"
)

// Env overlays configuration from environment variables sharing a prefix.
// The first failure is kept and reported by Err.
type Env struct {
	prefix string
	lookup func(string) (string, bool)
	err    error
}

// NewEnv reads variables named prefix + key from the process environment.
func NewEnv(prefix string) *Env {
	return &Env{prefix: prefix, lookup: os.LookupEnv}
}

// String sets *dst when the variable is present.
func (e *Env) String(dst *string, key string) {
	if v, ok := e.lookup(e.prefix + key); ok {
		*dst = v
	}
}

// Duration sets *dst when the variable is present and parses.
func (e *Env) Duration(dst *Duration, key string) {
	v, ok := e.lookup(e.prefix + key)
	if !ok {
		return
	}
	var d Duration
	if err := d.UnmarshalText([]byte(v)); err != nil {
		e.fail(key, err)
		return
	}
	*dst = d
}

func (e *Env) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("env %s%s: %w", e.prefix, key, err)
	}
}

// Err returns the first parse failure.
func (e *Env) Err() error { return e.err }
