package i

import (
	"github.com/beka-birhanu/vinom-arena/game"
	"github.com/beka-birhanu/vinom-arena/roster"
)

// Arena is the operator-facing view of a running relay server.
type Arena interface {
	// Start moves the arena from waiting to running. It reports false if already running.
	Start() bool

	// Phase returns the server lifecycle phase.
	Phase() game.Phase

	// Snapshot copies the roster.
	Snapshot() []roster.Slot
}
