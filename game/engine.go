package game

import (
	"github.com/beka-birhanu/vinom-arena/wire"
)

// Bounds describes the arena in pixels and the segment edge length.
type Bounds struct {
	Width   int32
	Height  int32
	Segment int32
}

// Contains reports whether a segment lies fully inside the arena.
func (b Bounds) Contains(s wire.Segment) bool {
	return s.X >= 0 && s.X <= b.Width-b.Segment &&
		s.Y >= 0 && s.Y <= b.Height-b.Segment
}

// Advance moves an avatar one tick in direction d and evaluates death against
// the other players' last known avatars.
//
// The body follows the head, each segment taking its predecessor's place.
// Every check can only clear Alive; nothing here revives an avatar.
func Advance(a wire.Avatar, d wire.Direction, others []wire.Avatar, b Bounds) wire.Avatar {
	n := a.Len()
	for idx := n - 1; idx >= 1; idx-- {
		a.Body[idx] = a.Body[idx-1]
	}

	previousHead := a.Head
	a.Head = a.Head.Add(d)

	if !b.Contains(a.Head) {
		a.Alive = false
	}

	// body[0] still holds its pre-move value here.
	for _, s := range a.Body[:n] {
		if s == a.Head {
			a.Alive = false
			break
		}
	}

	for _, other := range others {
		if other.Drawable() && other.Occupies(a.Head) {
			a.Alive = false
			break
		}
	}

	if n > 0 {
		a.Body[0] = previousHead
	}
	return a
}

// Steer applies a newly pressed direction unless it reverses the last accepted one.
func Steer(last, pressed wire.Direction) wire.Direction {
	if pressed == (wire.Direction{}) {
		return last
	}
	if pressed == last.Opposite() {
		return last
	}
	return pressed
}

// Key is one edge-triggered input event.
type Key uint8

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyQuit
)

// String returns the key name.
func (k Key) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyQuit:
		return "quit"
	default:
		return "none"
	}
}

// DirectionFor maps a directional key to a unit move scaled by the segment size.
// Non-directional keys map to the zero direction.
func DirectionFor(k Key, segment int32) wire.Direction {
	switch k {
	case KeyUp:
		return wire.Direction{DY: -segment}
	case KeyDown:
		return wire.Direction{DY: segment}
	case KeyLeft:
		return wire.Direction{DX: -segment}
	case KeyRight:
		return wire.Direction{DX: segment}
	default:
		return wire.Direction{}
	}
}
