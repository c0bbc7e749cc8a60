package service

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/beka-birhanu/vinom-arena/game"
	logger "github.com/beka-birhanu/vinom-arena/infrastruture/log"
	"github.com/beka-birhanu/vinom-arena/relay"
	"github.com/beka-birhanu/vinom-arena/roster"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxClients is the default arena capacity.
	MaxClients = 4

	eventBufferSize = 256
	publishTimeout  = time.Second
)

var _ i.Arena = &Arena{}

// Arena owns the server lifecycle, the relay server and the optional event and lock backends.
type Arena struct {
	lifecycle *game.ServerLifecycle
	roster    *roster.Store
	server    *relay.Server
	publisher i.EventPublisher
	locker    i.ArenaLocker
	events    chan i.ArenaEvent
	logger    i.Logger
}

// ArenaConfig is a struct used to pass the required parameters to initialize a new Arena
type ArenaConfig struct {
	ListenAddr string
	Capacity   int // Zero means MaxClients.
	Bounds     game.Bounds
}

type ArenaOption func(*Arena)

// NewArena binds the relay listener. Nothing is served until Serve is called.
func NewArena(c ArenaConfig, options ...ArenaOption) (*Arena, error) {
	capacity := c.Capacity
	if capacity <= 0 {
		capacity = MaxClients
	}

	a := &Arena{
		lifecycle: &game.ServerLifecycle{},
		roster:    roster.New(capacity),
		events:    make(chan i.ArenaEvent, eventBufferSize),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Discard()
	}

	server, err := relay.NewServer(relay.ServerConfig{
		ListenAddr: c.ListenAddr,
		Roster:     a.roster,
		Lifecycle:  a.lifecycle,
		Bounds:     c.Bounds,
	}, relay.ServerWithLogger(a.logger), relay.ServerWithEventHandler(a.record))
	if err != nil {
		return nil, err
	}
	a.server = server
	return a, nil
}

// Addr returns the relay's bound address.
func (a *Arena) Addr() net.Addr {
	return a.server.Addr()
}

// Start moves the arena to running. Only the first call has an effect.
func (a *Arena) Start() bool {
	if !a.lifecycle.Start() {
		a.logger.Warning("arena already started")
		return false
	}
	a.logger.Info("arena started")
	a.record(i.ArenaEvent{Type: i.EventStarted, Started: true})
	return true
}

func (a *Arena) Phase() game.Phase {
	return a.lifecycle.Phase()
}

func (a *Arena) Snapshot() []roster.Slot {
	return a.roster.Snapshot()
}

// Serve takes the arena lock when one is configured, then relays and publishes
// events until ctx is cancelled.
func (a *Arena) Serve(ctx context.Context) error {
	if a.locker != nil {
		if err := a.locker.Acquire(ctx); err != nil {
			return fmt.Errorf("arena is owned by another server: %w", err)
		}
		defer func() {
			if err := a.locker.Release(context.Background()); err != nil {
				a.logger.Warning(fmt.Sprintf("error while releasing arena lock: %s", err))
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Serve(gctx)
	})
	g.Go(func() error {
		a.publishLoop(gctx)
		return nil
	})
	return g.Wait()
}

// record queues an event for the publisher. It never blocks the relay.
func (a *Arena) record(e i.ArenaEvent) {
	if a.publisher == nil {
		return
	}
	select {
	case a.events <- e:
	default:
		a.logger.Warning(fmt.Sprintf("event queue full, dropping %s event", e.Type))
	}
}

func (a *Arena) publishLoop(ctx context.Context) {
	if a.publisher == nil {
		return
	}
	defer func() {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warning(fmt.Sprintf("error while closing publisher: %s", err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-a.events:
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := a.publisher.Publish(pctx, e); err != nil {
				a.logger.Warning(fmt.Sprintf("error while publishing %s event: %s", e.Type, err))
			}
			cancel()
		}
	}
}

// ArenaWithLogger sets the logger shared by the arena and its relay
func ArenaWithLogger(l i.Logger) ArenaOption {
	return func(a *Arena) {
		a.logger = l
	}
}

// ArenaWithPublisher forwards arena events to p
func ArenaWithPublisher(p i.EventPublisher) ArenaOption {
	return func(a *Arena) {
		a.publisher = p
	}
}

// ArenaWithLocker makes Serve hold l for as long as it runs
func ArenaWithLocker(l i.ArenaLocker) ArenaOption {
	return func(a *Arena) {
		a.locker = l
	}
}
