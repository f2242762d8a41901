package xlog

import (
	"errors"
	"testing"
)

// These tests only confirm the wrapper doesn't panic across its
// verbosity range and call shapes; logr/funcr's own test suite covers
// sink correctness.

func TestNewAndPhaseDoNotPanic(t *testing.T) {
	log := New("test", 1)
	Phase(log, "round1", 0, "active", 2)
	Phase(log, "round2", 1)
}

func TestAbortDoesNotPanic(t *testing.T) {
	log := New("test", 0)
	Abort(log, "combine", 2, errors.New("no valid iteration"))
}
