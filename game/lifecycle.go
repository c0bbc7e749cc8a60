package game

import (
	"sync"
	"sync/atomic"
)

// Phase is a lifecycle state.
type Phase uint8

const (
	Waiting Phase = iota
	Running
	Won
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Won:
		return "won"
	default:
		return "waiting"
	}
}

// ServerLifecycle is the server-global WAITING -> RUNNING flag.
// It is written by the operator and read on every relay.
type ServerLifecycle struct {
	started atomic.Bool
}

// Start moves the arena to RUNNING. It reports false if it was already running.
func (s *ServerLifecycle) Start() bool {
	return s.started.CompareAndSwap(false, true)
}

// Started reports whether the arena is running.
func (s *ServerLifecycle) Started() bool {
	return s.started.Load()
}

// Phase returns the current server phase.
func (s *ServerLifecycle) Phase() Phase {
	if s.Started() {
		return Running
	}
	return Waiting
}

// ClientLifecycle is a client's local view: the relayed started flag plus its own win judgment.
// Neither flag ever reverts.
type ClientLifecycle struct {
	started bool
	winner  bool
	sync.Mutex
}

// ObserveStarted records the flag carried by a downlink.
func (c *ClientLifecycle) ObserveStarted(flag bool) {
	if !flag {
		return
	}
	c.Lock()
	c.started = true
	c.Unlock()
}

// Started reports whether any downlink has carried the started flag.
func (c *ClientLifecycle) Started() bool {
	c.Lock()
	defer c.Unlock()
	return c.started
}

// Judge declares a win when the game is running, the local avatar is alive and no other
// active player is alive. It returns the (sticky) winner flag.
func (c *ClientLifecycle) Judge(selfAlive bool, othersAlive int) bool {
	c.Lock()
	defer c.Unlock()
	if c.started && selfAlive && othersAlive == 0 {
		c.winner = true
	}
	return c.winner
}

// Winner reports whether this client has judged itself the winner.
func (c *ClientLifecycle) Winner() bool {
	c.Lock()
	defer c.Unlock()
	return c.winner
}

// Phase returns the current client phase.
func (c *ClientLifecycle) Phase() Phase {
	c.Lock()
	defer c.Unlock()
	switch {
	case c.winner:
		return Won
	case c.started:
		return Running
	default:
		return Waiting
	}
}
