package i

import "github.com/beka-birhanu/vinom-arena/game"

// Color tags a fill command.
type Color uint8

const (
	ColorSelf Color = iota
	ColorOther
	ColorDead
)

// Overlay is a named text request drawn at a fixed anchor.
type Overlay string

const (
	OverlayNone    Overlay = ""
	OverlayWaiting Overlay = "waiting"
	OverlayDead    Overlay = "dead"
	OverlayWon     Overlay = "won"
)

// FillCommand is one axis-aligned filled cell, in arena pixels.
type FillCommand struct {
	X, Y, W, H int32
	Color      Color
}

// Frame is everything drawn for one tick.
type Frame struct {
	Fills   []FillCommand
	Overlay Overlay
}

// RenderSink draws frames.
type RenderSink interface {
	Draw(Frame) error
}

// InputSource yields the key presses since the last poll without blocking.
type InputSource interface {
	Poll() []game.Key
}
