package relay

import (
	"net"
	"sync"

	"github.com/beka-birhanu/vinom-arena/roster"
	"github.com/beka-birhanu/vinom-arena/wire"
	"github.com/google/uuid"
)

var _ roster.Conn = &peer{}

// peer is one admitted connection.
// Several handlers may relay to the same peer at once, so writes are serialized
// to keep records from interleaving on the stream.
type peer struct {
	id        int32
	session   uuid.UUID // Correlates log lines for one connection.
	conn      net.Conn
	writeLock sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newPeer(id int32, conn net.Conn) *peer {
	return &peer{
		id:      id,
		session: uuid.New(),
		conn:    conn,
	}
}

// Send implements roster.Conn.
func (p *peer) Send(d wire.Downlink) error {
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	return wire.WriteDownlink(p.conn, d)
}

// admit runs attach and writes the handshake while holding the write lock,
// so the handshake is always the first record on the stream.
func (p *peer) admit(h wire.Handshake, attach func() error) error {
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	if err := attach(); err != nil {
		return err
	}
	return wire.WriteHandshake(p.conn, h)
}

func (p *peer) readUplink() (wire.Uplink, error) {
	return wire.ReadUplink(p.conn)
}

// Close implements roster.Conn. It is safe to call more than once.
func (p *peer) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.conn.Close()
	})
	return p.closeErr
}
