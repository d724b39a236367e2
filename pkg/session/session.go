// Package session coordinates the single CTB modal: its open/close/error
// lifecycle, the purchase-URL resolution that feeds the frame, and the one
// analytics event recorded per open attempt.
package session

import (
	"github.com/google/uuid"

	"github.com/ctbkit/ctbkit/pkg/host"
)

// State is the lifecycle state of a modal session.
type State int

const (
	// StateOpening means the shell is up and the frame URL is unresolved.
	StateOpening State = iota
	// StateReady means the purchase frame is mounted.
	StateReady
	// StateError means both the token path and the fallback fetch failed.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session represents the single allowed open modal instance. A new open
// attempt supersedes any prior session; asynchronous completions of a
// superseded session must not touch the shared surface.
type Session struct {
	// ID identifies the session.
	ID uuid.UUID
	// CTBID is the trigger's CTB identifier.
	CTBID string
	// State is the current lifecycle state.
	State State
	// Trigger is the clicked element.
	Trigger host.Element
	// Destination is the plain-link fallback target.
	Destination string

	// generation orders open attempts; only the newest may mutate the
	// shared surface.
	generation uint64
}
