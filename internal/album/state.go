// Package album implements the public-album access and sync state machine:
// credential lifecycle, password verification, metadata and file listing
// pulls reconciled against the local cache, and classification of remote
// failures into terminal versus transient outcomes.
package album

import "errors"

// State is the externally visible state of the sync engine.
type State int

const (
	// StateUninitialized means no pull has been attempted yet. Cached data
	// may already be available for display.
	StateUninitialized State = iota

	// StateLoading means a pull is in flight.
	StateLoading

	// StatePasswordRequired means the link is password protected and no
	// valid authorization token is held. Re-enterable: a stale token drops
	// the engine back here.
	StatePasswordRequired

	// StateReady means collection and file listing reflect the latest
	// successful pull.
	StateReady

	// StateExpired means the server reported the link invalid or revoked.
	// Terminal for the session; all cached state has been purged.
	StateExpired

	// StateRateLimited means the server rejected the link for exceeding
	// its request limit. Cached state has been purged.
	StateRateLimited

	// StateTransientFailure means the last pull failed for a reason that
	// does not implicate the link itself (network flake, server error).
	// Cached state is untouched and a retry may succeed.
	StateTransientFailure
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StatePasswordRequired:
		return "password-required"
	case StateReady:
		return "ready"
	case StateExpired:
		return "expired"
	case StateRateLimited:
		return "rate-limited"
	case StateTransientFailure:
		return "transient-failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session cannot recover from this state
// without obtaining a new link.
func (s State) Terminal() bool {
	return s == StateExpired
}

// ErrInvalidPassword is returned by SubmitPassword when the server rejects
// the supplied password. Field-level and non-fatal: the caller re-prompts.
var ErrInvalidPassword = errors.New("album: invalid password")

// Human-readable reasons attached to terminal states. The rate limit
// message is deliberately distinct from the expiry message.
const (
	msgLinkExpired = "This link has expired, or the album owner has stopped sharing it."
	msgRateLimited = "This link has received too many requests. Please try again later."
)
