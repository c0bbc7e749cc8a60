// Package client is the player side of the arena: it simulates the local
// avatar, mirrors every other avatar and keeps the server informed each tick.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/beka-birhanu/vinom-arena/game"
	logger "github.com/beka-birhanu/vinom-arena/infrastruture/log"
	"github.com/beka-birhanu/vinom-arena/roster"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/beka-birhanu/vinom-arena/wire"
)

// Custom error types
var (
	ErrInvalidPlayerID = errors.New("server assigned a player id outside the roster")
	ErrInvalidTick     = errors.New("tick period must be positive")
	ErrInvalidCapacity = errors.New("roster capacity must be positive")
)

// Config holds what a session needs beyond the server address.
type Config struct {
	Bounds     game.Bounds   // Arena geometry, must match the server's.
	TickPeriod time.Duration // Fixed simulate/render/send period.
	Capacity   int           // Roster size, must match the server's.
}

type Option func(*Session)

// Session is one player's connection to the arena.
//
// The tick loop is the only writer of the local avatar and direction. The
// receiver goroutine only writes mirror slots, through the roster lock.
type Session struct {
	conn      net.Conn
	id        int32
	self      wire.Avatar
	direction wire.Direction
	roster    *roster.Store
	lifecycle game.ClientLifecycle
	bounds    game.Bounds
	tick      time.Duration
	logger    i.Logger
}

// Dial connects to addr, reads the handshake and seeds the local roster with the spawn avatar.
func Dial(ctx context.Context, addr string, c Config, options ...Option) (*Session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp4", addr)
	if err != nil {
		return nil, err
	}

	s, err := newSession(conn, c, options...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func newSession(conn net.Conn, c Config, options ...Option) (*Session, error) {
	if c.TickPeriod <= 0 {
		return nil, ErrInvalidTick
	}
	if c.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	s := &Session{
		conn:   conn,
		roster: roster.New(c.Capacity),
		bounds: c.Bounds,
		tick:   c.TickPeriod,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			s.logger.Warning(fmt.Sprintf("error while disabling delay: %s", err))
		}
	}

	hs, err := wire.ReadHandshake(conn)
	if err != nil {
		return nil, err
	}
	if err := s.roster.Set(hs.PlayerID, hs.Avatar, true); err != nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayerID, hs.PlayerID)
	}

	s.id = hs.PlayerID
	s.self = hs.Avatar
	s.direction = hs.Direction
	s.logger.Info(fmt.Sprintf("joined as player %d at (%d,%d)", s.id, s.self.Head.X, s.self.Head.Y))
	return s, nil
}

// PlayerID returns the id assigned by the server.
func (s *Session) PlayerID() int32 {
	return s.id
}

// Phase returns the local lifecycle phase.
func (s *Session) Phase() game.Phase {
	return s.lifecycle.Phase()
}

// Roster returns the local mirror.
func (s *Session) Roster() *roster.Store {
	return s.roster
}

// Run starts the receiver and drives the tick loop until the player quits,
// ctx is cancelled or the server goes away. Only the last case is an error.
func (s *Session) Run(ctx context.Context, input i.InputSource, sink i.RenderSink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// The connection is closed on every exit, which also stops the receiver.
	context.AfterFunc(ctx, func() {
		_ = s.conn.Close()
	})

	received := make(chan error, 1)
	go func() {
		received <- s.receive()
	}()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		if quit := s.step(input.Poll()); quit {
			s.logger.Info("quit requested")
			return nil
		}

		if err := sink.Draw(s.Frame()); err != nil {
			s.logger.Warning(fmt.Sprintf("error while drawing frame: %s", err))
		}

		err := wire.WriteUplink(s.conn, wire.Uplink{PlayerID: s.id, Avatar: s.self})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error(fmt.Sprintf("error while sending uplink: %s", err))
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case err := <-received:
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error(fmt.Sprintf("lost server: %s", err))
			return err
		case <-ticker.C:
		}
	}
}

// step applies one tick of input and movement and reports whether quit was pressed.
func (s *Session) step(keys []game.Key) bool {
	for _, k := range keys {
		if k == game.KeyQuit {
			return true
		}
		s.direction = game.Steer(s.direction, game.DirectionFor(k, s.bounds.Segment))
	}

	if s.lifecycle.Started() && s.self.Alive {
		s.self = game.Advance(s.self, s.direction, s.roster.Others(s.id), s.bounds)
		if !s.self.Alive {
			s.logger.Info(fmt.Sprintf("player %d died at (%d,%d)", s.id, s.self.Head.X, s.self.Head.Y))
		}
		wasWinner := s.lifecycle.Winner()
		if s.lifecycle.Judge(s.self.Alive, s.roster.CountAliveExcept(s.id)) && !wasWinner {
			s.logger.Info(fmt.Sprintf("player %d is the last one alive", s.id))
		}
	}

	if err := s.roster.Set(s.id, s.self, true); err != nil {
		s.logger.Error(fmt.Sprintf("error while storing own avatar: %s", err))
	}
	return false
}

// Frame builds the current frame from the local mirror.
func (s *Session) Frame() i.Frame {
	return BuildFrame(s.roster.Snapshot(), s.id, s.lifecycle.Phase(), s.bounds.Segment)
}

// receive mirrors downlinks into the roster until the connection fails.
func (s *Session) receive() error {
	for {
		d, err := wire.ReadDownlink(s.conn)
		if err != nil {
			return err
		}
		s.apply(d)
	}
}

func (s *Session) apply(d wire.Downlink) {
	s.lifecycle.ObserveStarted(d.Started)
	if d.SenderID == s.id {
		return
	}

	if !d.Avatar.Drawable() {
		if err := s.roster.Retire(d.SenderID); err != nil {
			s.logger.Warning(fmt.Sprintf("ignoring disconnect of unknown player %d", d.SenderID))
		}
		return
	}
	if err := s.roster.Set(d.SenderID, d.Avatar, true); err != nil {
		s.logger.Warning(fmt.Sprintf("ignoring downlink from unknown player %d", d.SenderID))
	}
}

// WithLogger sets the logger
func WithLogger(l i.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}
