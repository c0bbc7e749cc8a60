// Package arenaapi exposes the arena to the operator over HTTP.
package arenaapi

import (
	"github.com/beka-birhanu/vinom-arena/game"
	"github.com/beka-birhanu/vinom-arena/roster"
)

// SegmentResponse is one cell in arena pixels.
type SegmentResponse struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// PlayerResponse is one roster slot.
type PlayerResponse struct {
	ID     int32             `json:"id"`
	Active bool              `json:"active"`
	Alive  bool              `json:"alive"`
	Head   *SegmentResponse  `json:"head,omitempty"`
	Body   []SegmentResponse `json:"body,omitempty"`
}

// ArenaResponse is the arena state returned by GET and pushed by the watch socket.
type ArenaResponse struct {
	Phase   string           `json:"phase"`
	Players []PlayerResponse `json:"players"`
}

// StartResponse reports whether the start request changed the phase.
type StartResponse struct {
	Started bool   `json:"started"`
	Phase   string `json:"phase"`
}

func newArenaResponse(phase game.Phase, slots []roster.Slot) *ArenaResponse {
	res := &ArenaResponse{
		Phase:   phase.String(),
		Players: make([]PlayerResponse, 0, len(slots)),
	}
	for _, slot := range slots {
		p := PlayerResponse{
			ID:     slot.PlayerID,
			Active: slot.Active,
			Alive:  slot.Avatar.Alive,
		}
		if slot.Avatar.Drawable() {
			segments := slot.Avatar.Segments()
			p.Head = &SegmentResponse{X: segments[0].X, Y: segments[0].Y}
			for _, s := range segments[1:] {
				p.Body = append(p.Body, SegmentResponse{X: s.X, Y: s.Y})
			}
		}
		res.Players = append(res.Players, p)
	}
	return res
}
