package game

import (
	"errors"

	"github.com/beka-birhanu/vinom-arena/wire"
)

var ErrNoSpawn = errors.New("no spawn corner for player")

const (
	// InitialBodyLength is the body length every player starts with.
	InitialBodyLength = 5

	// spawnInset is the distance, in segments, between a spawn head and the arena edges.
	spawnInset = 6
)

// InitPlayer returns the starting avatar and direction for a player id.
// Ids 1..4 map to the top-left, top-right, bottom-left and bottom-right corners.
// Every avatar starts heading down with its body trailing above the head.
func InitPlayer(id int32, b Bounds) (wire.Avatar, wire.Direction, error) {
	inset := spawnInset * b.Segment
	left := inset
	right := alignDown(b.Width-b.Segment-inset, b.Segment)
	top := inset
	bottom := alignDown(b.Height-b.Segment-inset, b.Segment)

	var head wire.Segment
	switch id {
	case 1:
		head = wire.Segment{X: left, Y: top}
	case 2:
		head = wire.Segment{X: right, Y: top}
	case 3:
		head = wire.Segment{X: left, Y: bottom}
	case 4:
		head = wire.Segment{X: right, Y: bottom}
	default:
		return wire.Avatar{}, wire.Direction{}, ErrNoSpawn
	}

	a := wire.Avatar{
		Head:       head,
		BodyLength: InitialBodyLength,
		Alive:      true,
	}
	for idx := range InitialBodyLength {
		a.Body[idx] = wire.Segment{X: head.X, Y: head.Y - int32(idx+1)*b.Segment}
	}
	return a, wire.Direction{DY: b.Segment}, nil
}

func alignDown(v, step int32) int32 {
	if step <= 0 {
		return v
	}
	return v - v%step
}
