package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-arena/game"
	logger "github.com/beka-birhanu/vinom-arena/infrastruture/log"
	"github.com/beka-birhanu/vinom-arena/roster"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/beka-birhanu/vinom-arena/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bounds = game.Bounds{Width: 1500, Height: 900, Segment: 20}

type recorder struct {
	events []i.ArenaEvent
	sync.Mutex
}

func (r *recorder) handle(e i.ArenaEvent) {
	r.Lock()
	defer r.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(eventType string) int {
	r.Lock()
	defer r.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type harness struct {
	server    *Server
	roster    *roster.Store
	lifecycle *game.ServerLifecycle
	events    *recorder
	done      chan error
}

func startServer(t *testing.T, capacity int) *harness {
	t.Helper()
	h := &harness{
		roster:    roster.New(capacity),
		lifecycle: &game.ServerLifecycle{},
		events:    &recorder{},
		done:      make(chan error, 1),
	}

	server, err := NewServer(ServerConfig{
		ListenAddr: "127.0.0.1:0",
		Roster:     h.roster,
		Lifecycle:  h.lifecycle,
		Bounds:     bounds,
	}, ServerWithEventHandler(h.events.handle))
	require.NoError(t, err)
	h.server = server

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		h.done <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-h.done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return h
}

func (h *harness) join(t *testing.T) (net.Conn, wire.Handshake) {
	t.Helper()
	conn, err := net.Dial("tcp4", h.server.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	hs, err := wire.ReadHandshake(conn)
	require.NoError(t, err)
	return conn, hs
}

func readDownlink(t *testing.T, conn net.Conn) wire.Downlink {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	d, err := wire.ReadDownlink(conn)
	require.NoError(t, err)
	return d
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(ServerConfig{ListenAddr: "127.0.0.1:0", Lifecycle: &game.ServerLifecycle{}})
	assert.ErrorIs(t, err, ErrMissingRoster)

	_, err = NewServer(ServerConfig{ListenAddr: "127.0.0.1:0", Roster: roster.New(1)})
	assert.ErrorIs(t, err, ErrMissingLifecycle)
}

func TestNewServerBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = NewServer(ServerConfig{
		ListenAddr: ln.Addr().String(),
		Roster:     roster.New(1),
		Lifecycle:  &game.ServerLifecycle{},
	})
	assert.Error(t, err)
}

func TestHandshakeAssignsCorners(t *testing.T) {
	h := startServer(t, 4)

	for id := int32(1); id <= 4; id++ {
		_, hs := h.join(t)
		want, dir, err := game.InitPlayer(id, bounds)
		require.NoError(t, err)

		assert.Equal(t, id, hs.PlayerID)
		assert.Equal(t, want, hs.Avatar)
		assert.Equal(t, dir, hs.Direction)

		slot, err := h.roster.Get(id)
		require.NoError(t, err)
		assert.True(t, slot.Active)
	}
	assert.Eventually(t, func() bool {
		return h.events.count(i.EventJoined) == 4
	}, time.Second, 10*time.Millisecond)
}

func TestRelayCarriesStartedFlagAndSender(t *testing.T) {
	h := startServer(t, 4)
	c1, hs1 := h.join(t)
	c2, hs2 := h.join(t)

	require.NoError(t, wire.WriteUplink(c1, wire.Uplink{PlayerID: hs1.PlayerID, Avatar: hs1.Avatar}))
	d := readDownlink(t, c2)
	assert.False(t, d.Started)
	assert.Equal(t, int32(1), d.SenderID)
	assert.Equal(t, hs1.Avatar, d.Avatar)

	require.True(t, h.lifecycle.Start())

	dead := hs2.Avatar
	dead.Alive = false
	require.NoError(t, wire.WriteUplink(c2, wire.Uplink{PlayerID: hs2.PlayerID, Avatar: dead}))
	d = readDownlink(t, c1)
	assert.True(t, d.Started)
	assert.Equal(t, int32(2), d.SenderID)
	assert.False(t, d.Avatar.Alive, "dead avatars are relayed like any other")

	slot, err := h.roster.Get(2)
	require.NoError(t, err)
	assert.False(t, slot.Avatar.Alive)
}

func TestSenderTagIsRewritten(t *testing.T) {
	h := startServer(t, 4)
	c1, hs1 := h.join(t)
	c2, _ := h.join(t)

	require.NoError(t, wire.WriteUplink(c1, wire.Uplink{PlayerID: 3, Avatar: hs1.Avatar}))
	d := readDownlink(t, c2)
	assert.Equal(t, int32(1), d.SenderID)
}

func TestCapacityRejectsExtraConnections(t *testing.T) {
	h := startServer(t, 1)
	h.join(t)

	conn, err := net.Dial("tcp4", h.server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	_, err = wire.ReadHandshake(conn)
	require.ErrorIs(t, err, wire.ErrDisconnected)
	assert.ErrorIs(t, err, io.EOF)
	assert.Eventually(t, func() bool {
		return h.events.count(i.EventRejected) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDisconnectIsBroadcast(t *testing.T) {
	h := startServer(t, 4)
	c1, hs1 := h.join(t)
	c2, _ := h.join(t)

	require.NoError(t, wire.WriteUplink(c1, wire.Uplink{PlayerID: hs1.PlayerID, Avatar: hs1.Avatar}))
	readDownlink(t, c2)
	require.NoError(t, c1.Close())

	d := readDownlink(t, c2)
	assert.Equal(t, int32(1), d.SenderID)
	assert.False(t, d.Avatar.Drawable())
	assert.False(t, d.Avatar.Alive)

	assert.Eventually(t, func() bool {
		slot, err := h.roster.Get(1)
		return err == nil && !slot.Active
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return h.events.count(i.EventLeft) == 1
	}, time.Second, 10*time.Millisecond)

	t.Run("ids are never reused", func(t *testing.T) {
		_, hs := h.join(t)
		assert.Equal(t, int32(3), hs.PlayerID)
	})
}

// failingListener fails the first failures accepts, then behaves like a closed
// listener. A negative failures count fails until Close.
type failingListener struct {
	failures int
	accepts  int
	closed   bool
	sync.Mutex
}

func (l *failingListener) Accept() (net.Conn, error) {
	l.Lock()
	defer l.Unlock()
	l.accepts++
	if l.closed || l.failures == 0 {
		return nil, net.ErrClosed
	}
	l.failures--
	return nil, errors.New("accept: too many open files")
}

func (l *failingListener) Close() error {
	l.Lock()
	defer l.Unlock()
	l.closed = true
	return nil
}

func (l *failingListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func (l *failingListener) acceptCount() int {
	l.Lock()
	defer l.Unlock()
	return l.accepts
}

func serverOn(ln net.Listener) *Server {
	return &Server{
		listener:  ln,
		roster:    roster.New(1),
		lifecycle: &game.ServerLifecycle{},
		bounds:    bounds,
		nextID:    1,
		logger:    logger.Discard(),
	}
}

func TestAcceptErrorsBackOff(t *testing.T) {
	t.Run("delay doubles between retries", func(t *testing.T) {
		ln := &failingListener{failures: 4}
		begin := time.Now()
		require.NoError(t, serverOn(ln).Serve(context.Background()))

		assert.Equal(t, 5, ln.acceptCount())
		assert.GreaterOrEqual(t, time.Since(begin), 75*time.Millisecond)
	})

	t.Run("cancel interrupts the retries", func(t *testing.T) {
		ln := &failingListener{failures: -1}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- serverOn(ln).Serve(ctx) }()

		time.Sleep(50 * time.Millisecond)
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("server did not stop")
		}
		assert.Less(t, ln.acceptCount(), 10, "retries are not a busy loop")
	})
}
