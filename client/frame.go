package client

import (
	"github.com/beka-birhanu/vinom-arena/game"
	"github.com/beka-birhanu/vinom-arena/roster"
	"github.com/beka-birhanu/vinom-arena/service/i"
)

// BuildFrame turns a roster snapshot into fill commands plus the overlay for the local player.
// Inactive and sentinel slots are not drawn.
func BuildFrame(slots []roster.Slot, selfID int32, phase game.Phase, segment int32) i.Frame {
	frame := i.Frame{Overlay: i.OverlayNone}
	selfAlive := false

	for _, slot := range slots {
		if !slot.Active || !slot.Avatar.Drawable() {
			continue
		}

		color := i.ColorOther
		switch {
		case !slot.Avatar.Alive:
			color = i.ColorDead
		case slot.PlayerID == selfID:
			color = i.ColorSelf
		}
		if slot.PlayerID == selfID {
			selfAlive = slot.Avatar.Alive
		}

		for _, s := range slot.Avatar.Segments() {
			frame.Fills = append(frame.Fills, i.FillCommand{X: s.X, Y: s.Y, W: segment, H: segment, Color: color})
		}
	}

	switch {
	case phase == game.Won:
		frame.Overlay = i.OverlayWon
	case phase == game.Waiting:
		frame.Overlay = i.OverlayWaiting
	case !selfAlive:
		frame.Overlay = i.OverlayDead
	}
	return frame
}
