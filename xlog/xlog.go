// Package xlog is a thin structured-logging wrapper over logr, used to
// report protocol phase transitions, party ids, and error classes the
// way the teacher's CLI reports progress under a verbose flag. It never
// logs secret material: shares, seeds, hyperball float buffers, or any
// derived key material never appear in a log call's arguments.
package xlog

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// New returns a logr.Logger writing one JSON object per line to
// stderr, verbose enough to show Info-level phase transitions when v
// is 0 and progressively more detail as v increases.
func New(name string, verbosity int) logr.Logger {
	sink := funcr.NewJSON(func(obj string) {
		_, _ = os.Stderr.WriteString(obj + "\n")
	}, funcr.Options{Verbosity: verbosity})
	return logr.New(sink).WithName(name)
}

// Phase logs a protocol phase transition: the phase name, this party's
// id, and any extra non-secret key/value pairs (active-set size,
// iteration count, and the like — never float buffers or share data).
func Phase(log logr.Logger, phase string, selfID uint8, kv ...any) {
	args := append([]any{"party", selfID}, kv...)
	log.Info(phase, args...)
}

// Abort logs a fatal protocol error: its sentinel class (via
// errors.Is-friendly %v formatting upstream) and the offending party,
// if known. The error's message — never any payload it might wrap — is
// what reaches the log.
func Abort(log logr.Logger, phase string, selfID uint8, err error) {
	log.Error(err, phase, "party", selfID)
}
