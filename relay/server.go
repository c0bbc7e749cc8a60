// Package relay is the arena's TCP server: it admits players, hands out spawn
// positions and fans every player's avatar out to everyone else.
package relay

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
	"golang.org/x/sync/errgroup"
)

// EventHandler is called synchronously for every arena event; it must not block.
type EventHandler func(i.ArenaEvent)

// Lifecycle supplies the started flag stamped on every downlink.
type Lifecycle interface {
	Started() bool
}

type ServerOption func(*Server)

// Accept failures other than a closed listener are retried with a doubling delay.
const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Custom error types
var (
	ErrMissingRoster    = errors.New("roster is required")
	ErrMissingLifecycle = errors.New("lifecycle is required")
)

// Server accepts players, runs one handler per admitted connection and relays uplinks.
type Server struct {
	listener  net.Listener  // IPv4 TCP listener.
	roster    *roster.Store // Player table; its capacity is the arena's capacity.
	lifecycle Lifecycle     // Source of the started flag.
	bounds    game.Bounds   // Arena geometry used for spawns.
	nextID    int32         // Next player ID to hand out; only the acceptor touches it.
	noDelay   bool          // Disable Nagle on admitted connections.
	onEvent   EventHandler  // Optional observer.
	logger    i.Logger      // Logger.
}

// ServerConfig is a struct used to pass the required parameters to initialize a new Server
type ServerConfig struct {
	ListenAddr string        // host:port to listen on.
	Roster     *roster.Store // Shared player table.
	Lifecycle  Lifecycle     // Server lifecycle.
	Bounds     game.Bounds   // Arena geometry.
}

// NewServer binds the listener. A bind failure is a setup failure and is returned as is.
func NewServer(c ServerConfig, options ...ServerOption) (*Server, error) {
	if c.Roster == nil {
		return nil, ErrMissingRoster
	}
	if c.Lifecycle == nil {
		return nil, ErrMissingLifecycle
	}

	ln, err := net.Listen("tcp4", c.ListenAddr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener:  ln,
		roster:    c.Roster,
		lifecycle: c.Lifecycle,
		bounds:    c.Bounds,
		nextID:    1,
		noDelay:   true,
	}

	for _, opt := range options {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Discard()
	}

	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the acceptor and every connection handler as one supervised group.
// It returns once ctx is cancelled and all handlers have exited.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() {
		_ = s.listener.Close()
	})
	defer stop()

	s.logger.Info(fmt.Sprintf("relay listening on tcp address: %s", s.listener.Addr()))
	g.Go(func() error {
		return s.acceptLoop(gctx, g)
	})

	err := g.Wait()
	s.logger.Info("relay stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context, g *errgroup.Group) error {
	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			backoff = min(max(2*backoff, minAcceptBackoff), maxAcceptBackoff)
			s.logger.Error(fmt.Sprintf("error while accepting connection: %s; retrying in %v", err, backoff))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		if int(s.nextID) > s.roster.Capacity() {
			s.logger.Warning(fmt.Sprintf("arena full, rejecting %s", conn.RemoteAddr()))
			_ = conn.Close()
			s.emit(i.ArenaEvent{Type: i.EventRejected})
			continue
		}

		id := s.nextID
		s.nextID++
		g.Go(func() error {
			s.handle(ctx, id, conn)
			return nil
		})
	}
}

// handle owns one connection from handshake to disconnect.
func (s *Server) handle(ctx context.Context, id int32, conn net.Conn) {
	p := newPeer(id, conn)
	stop := context.AfterFunc(ctx, func() {
		_ = p.Close()
	})
	defer stop()
	defer p.Close()

	if tcp, ok := conn.(*net.TCPConn); ok && s.noDelay {
		if err := tcp.SetNoDelay(true); err != nil {
			s.logger.Warning(fmt.Sprintf("player %d [%s]: error while disabling delay: %s", id, p.session, err))
		}
	}

	avatar, direction, err := game.InitPlayer(id, s.bounds)
	if err != nil {
		s.logger.Error(fmt.Sprintf("player %d [%s]: error while spawning: %s", id, p.session, err))
		return
	}

	// The slot goes live before the handshake is flushed but no relay can reach
	// the socket until the handshake has been written.
	err = p.admit(wire.Handshake{PlayerID: id, Avatar: avatar, Direction: direction}, func() error {
		return s.roster.Attach(id, p, avatar)
	})
	if err != nil {
		s.logger.Error(fmt.Sprintf("player %d [%s]: error while admitting: %s", id, p.session, err))
		if _, err := s.roster.Deactivate(id); err != nil {
			s.logger.Error(fmt.Sprintf("player %d [%s]: error while deactivating slot: %s", id, p.session, err))
		}
		return
	}
	s.logger.Info(fmt.Sprintf("accepted player %d [%s] from %s", id, p.session, conn.RemoteAddr()))
	s.emit(i.ArenaEvent{Type: i.EventJoined, PlayerID: id, Started: s.lifecycle.Started(), Avatar: avatar})

	warnedTag := false
	for {
		up, err := p.readUplink()
		if err != nil {
			s.leave(p, err)
			return
		}

		// The sender tag is always the connection's own ID.
		if up.PlayerID != id && !warnedTag {
			s.logger.Warning(fmt.Sprintf("player %d [%s]: uplink tagged %d, rewriting", id, p.session, up.PlayerID))
			warnedTag = true
		}

		if err := s.roster.Set(id, up.Avatar, true); err != nil {
			s.logger.Error(fmt.Sprintf("player %d [%s]: error while storing avatar: %s", id, p.session, err))
			continue
		}
		started := s.broadcast(id, up.Avatar)
		s.emit(i.ArenaEvent{Type: i.EventRelayed, PlayerID: id, Started: started, Avatar: up.Avatar})
	}
}

// leave deactivates the slot and tells every other player the avatar is gone.
func (s *Server) leave(p *peer, cause error) {
	if _, err := s.roster.Deactivate(p.id); err != nil {
		s.logger.Error(fmt.Sprintf("player %d [%s]: error while deactivating slot: %s", p.id, p.session, err))
	}
	s.logger.Info(fmt.Sprintf("player %d [%s] left: %s", p.id, p.session, cause))

	started := s.broadcast(p.id, wire.SentinelAvatar())
	s.emit(i.ArenaEvent{Type: i.EventLeft, PlayerID: p.id, Started: started, Avatar: wire.SentinelAvatar()})
}

// broadcast relays one avatar to every other active player and returns the flag it carried.
// A failed send is only logged; the receiving handler notices the broken socket on its own.
func (s *Server) broadcast(senderID int32, a wire.Avatar) bool {
	d := wire.Downlink{
		Started:  s.lifecycle.Started(),
		SenderID: senderID,
		Avatar:   a,
	}
	s.roster.ForEachActiveExcept(senderID, func(slot roster.Slot) {
		if slot.Conn == nil {
			return
		}
		if err := slot.Conn.Send(d); err != nil {
			s.logger.Warning(fmt.Sprintf("error while relaying player %d to player %d: %s", senderID, slot.PlayerID, err))
		}
	})
	return d.Started
}

func (s *Server) emit(e i.ArenaEvent) {
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

// ServerWithLogger sets the logger
func ServerWithLogger(l i.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// ServerWithEventHandler sets a callback for joined, relayed, left and rejected events
func ServerWithEventHandler(f EventHandler) ServerOption {
	return func(s *Server) {
		s.onEvent = f
	}
}

// ServerWithNoDelay toggles TCP_NODELAY on admitted connections (enabled by default)
func ServerWithNoDelay(enabled bool) ServerOption {
	return func(s *Server) {
		s.noDelay = enabled
	}
}
