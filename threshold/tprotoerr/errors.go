// Package tprotoerr centralizes the sentinel errors threshold/sign and
// threshold/dkg return, so callers can use errors.Is instead of
// matching on message text, grouped by the error taxonomy spec.md
// section 7 describes (Configuration / Input validation / Protocol
// binding / Probabilistic rejection / State misuse / Verification).
// threshold/params, threshold/state, and pkg/encode keep their own
// sentinels (params.ErrInvalidThreshold, params.ErrUnsupportedLevel,
// state.ErrDestroyed, encode.ErrHintDecode); the similarly named values
// declared here are distinct and do not match those under errors.Is.
package tprotoerr

import "errors"

// Configuration errors: raised at construction, fatal to the call.
var (
	ErrThresholdRange   = errors.New("tprotoerr: threshold out of range, require 2<=T<=N<=6")
	ErrUnsupportedLevel = errors.New("tprotoerr: unsupported security level")
	ErrBadSeedLength    = errors.New("tprotoerr: seed must be exactly 32 bytes")
	ErrBadSessionID     = errors.New("tprotoerr: session id must be exactly 32 bytes")
)

// Input validation errors: fatal, caused by a malformed or inconsistent
// caller-supplied value.
var (
	ErrTooFewActiveParties = errors.New("tprotoerr: active party set smaller than threshold")
	ErrDuplicateParty      = errors.New("tprotoerr: duplicate party id in active set")
	ErrWrongBroadcastCount = errors.New("tprotoerr: wrong number of broadcasts received")
	ErrMissingShare        = errors.New("tprotoerr: party holds no share for required bitmask")
	ErrUnknownParty        = errors.New("tprotoerr: unrecognized party id")
)

// Protocol binding errors: a commitment the protocol is supposed to
// open did not match what was committed earlier. The caller must abort
// rather than continue with the suspect data.
var (
	ErrCommitmentMismatch   = errors.New("tprotoerr: commitment hash mismatch")
	ErrRhoCommitmentMismatch = errors.New("tprotoerr: rho commitment mismatch")
	ErrSeedCommitmentMismatch = errors.New("tprotoerr: bitmask seed commitment mismatch")
	ErrUnexpectedRecipient  = errors.New("tprotoerr: private message delivered to non-holder")
)

// Probabilistic rejection: not really errors, but a caller-visible
// signal to retry with fresh randomness. combine returns ErrNoValidIter
// rather than panicking when every K_iter transcript failed its norm
// checks.
var ErrNoValidIter = errors.New("tprotoerr: no iteration passed norm checks, retry with a fresh nonce")

// State misuse: accessing a destroyed Round/Phase state.
var ErrDestroyed = errors.New("tprotoerr: accessed after destroy")

// Verification-adjacent decode errors. Verify itself never returns an
// error (spec.md section 7): it returns false. These are for the wire
// decoders that sit below it.
var (
	ErrInvalidCoefficient = errors.New("tprotoerr: unpacked coefficient out of range")
	ErrHintDecode         = errors.New("tprotoerr: invalid hint encoding")
)
