// Package terminal draws the arena in a terminal and reads the keyboard, one cell per segment.
package terminal

import (
	"sync"

	"github.com/beka-birhanu/vinom-arena/game"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/gdamore/tcell/v2"
)

const keyBuffer = 32

var (
	_ i.RenderSink  = &Screen{}
	_ i.InputSource = &Screen{}
)

var overlayText = map[i.Overlay]string{
	i.OverlayWaiting: "waiting for the operator to start",
	i.OverlayDead:    "you died",
	i.OverlayWon:     "you won!",
}

var colorStyle = map[i.Color]tcell.Style{
	i.ColorSelf:  tcell.StyleDefault.Background(tcell.ColorGreen),
	i.ColorOther: tcell.StyleDefault.Background(tcell.ColorBlue),
	i.ColorDead:  tcell.StyleDefault.Background(tcell.ColorGray),
}

// Screen is both the render sink and the input source of the client.
type Screen struct {
	screen  tcell.Screen
	segment int32
	width   int
	height  int
	keys    chan game.Key
	done    chan struct{}
	once    sync.Once
}

// New initializes s and starts reading its events. The arena is width x height pixels.
func New(s tcell.Screen, width, height, segment int32) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.HideCursor()

	t := &Screen{
		screen:  s,
		segment: segment,
		width:   int(width / segment),
		height:  int(height / segment),
		keys:    make(chan game.Key, keyBuffer),
		done:    make(chan struct{}),
	}
	go t.readEvents()
	return t, nil
}

func (t *Screen) readEvents() {
	defer close(t.done)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		k := keyFor(key)
		if k == game.KeyNone {
			continue
		}
		select {
		case t.keys <- k:
		default:
		}
	}
}

func keyFor(ev *tcell.EventKey) game.Key {
	switch ev.Key() {
	case tcell.KeyUp:
		return game.KeyUp
	case tcell.KeyDown:
		return game.KeyDown
	case tcell.KeyLeft:
		return game.KeyLeft
	case tcell.KeyRight:
		return game.KeyRight
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return game.KeyQuit
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			return game.KeyUp
		case 's', 'S':
			return game.KeyDown
		case 'a', 'A':
			return game.KeyLeft
		case 'd', 'D':
			return game.KeyRight
		case 'q', 'Q':
			return game.KeyQuit
		}
	}
	return game.KeyNone
}

// Poll returns the keys pressed since the last call without blocking.
func (t *Screen) Poll() []game.Key {
	var out []game.Key
	for {
		select {
		case k := <-t.keys:
			out = append(out, k)
		default:
			return out
		}
	}
}

// Draw renders one frame: a border, every fill command and the overlay text.
func (t *Screen) Draw(f i.Frame) error {
	t.screen.Clear()
	t.drawBorder()

	for _, fill := range f.Fills {
		style, ok := colorStyle[fill.Color]
		if !ok {
			style = tcell.StyleDefault
		}
		t.screen.SetContent(int(fill.X/t.segment)+1, int(fill.Y/t.segment)+1, ' ', nil, style)
	}

	if text, ok := overlayText[f.Overlay]; ok {
		style := tcell.StyleDefault.Bold(true)
		for idx, r := range text {
			t.screen.SetContent(2+idx, 0, r, nil, style)
		}
	}

	t.screen.Show()
	return nil
}

func (t *Screen) drawBorder() {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	right, bottom := t.width+1, t.height+1
	for x := 0; x <= right; x++ {
		t.screen.SetContent(x, 0, tcell.RuneHLine, nil, style)
		t.screen.SetContent(x, bottom, tcell.RuneHLine, nil, style)
	}
	for y := 0; y <= bottom; y++ {
		t.screen.SetContent(0, y, tcell.RuneVLine, nil, style)
		t.screen.SetContent(right, y, tcell.RuneVLine, nil, style)
	}
	t.screen.SetContent(0, 0, tcell.RuneULCorner, nil, style)
	t.screen.SetContent(right, 0, tcell.RuneURCorner, nil, style)
	t.screen.SetContent(0, bottom, tcell.RuneLLCorner, nil, style)
	t.screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, style)
}

// Close restores the terminal and waits for the event reader to stop.
func (t *Screen) Close() {
	t.once.Do(func() {
		t.screen.Fini()
		<-t.done
	})
}
