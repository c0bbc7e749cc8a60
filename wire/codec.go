package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Wire errors.
var (
	ErrShortRecord  = errors.New("record has wrong size")
	ErrDisconnected = errors.New("peer disconnected")
)

// Record sizes in bytes.
const (
	int32Size     = 4
	SegmentSize   = 2 * int32Size
	AvatarSize    = SegmentSize + BodyCapacity*SegmentSize + int32Size + 4 // bool + 3 bytes padding
	DirectionSize = 2 * int32Size
	HandshakeSize = int32Size + AvatarSize + DirectionSize
	UplinkSize    = int32Size + AvatarSize
	DownlinkSize  = 2*int32Size + AvatarSize
)

var order = binary.LittleEndian

func putSegment(b []byte, s Segment) {
	order.PutUint32(b[0:], uint32(s.X))
	order.PutUint32(b[4:], uint32(s.Y))
}

func segmentFrom(b []byte) Segment {
	return Segment{
		X: int32(order.Uint32(b[0:])),
		Y: int32(order.Uint32(b[4:])),
	}
}

func putAvatar(b []byte, a Avatar) {
	putSegment(b, a.Head)
	off := SegmentSize
	for _, s := range a.Body {
		putSegment(b[off:], s)
		off += SegmentSize
	}
	order.PutUint32(b[off:], uint32(a.BodyLength))
	off += int32Size
	b[off] = 0
	if a.Alive {
		b[off] = 1
	}
	b[off+1], b[off+2], b[off+3] = 0, 0, 0
}

func avatarFrom(b []byte) Avatar {
	var a Avatar
	a.Head = segmentFrom(b)
	off := SegmentSize
	for i := range a.Body {
		a.Body[i] = segmentFrom(b[off:])
		off += SegmentSize
	}
	a.BodyLength = int32(order.Uint32(b[off:]))
	a.Alive = b[off+int32Size] != 0
	return a
}

func putDirection(b []byte, d Direction) {
	order.PutUint32(b[0:], uint32(d.DX))
	order.PutUint32(b[4:], uint32(d.DY))
}

func directionFrom(b []byte) Direction {
	return Direction{
		DX: int32(order.Uint32(b[0:])),
		DY: int32(order.Uint32(b[4:])),
	}
}

// MarshalAvatar encodes a bare avatar.
func MarshalAvatar(a Avatar) []byte {
	b := make([]byte, AvatarSize)
	putAvatar(b, a)
	return b
}

// UnmarshalAvatar decodes a bare avatar.
func UnmarshalAvatar(b []byte) (Avatar, error) {
	if len(b) != AvatarSize {
		return Avatar{}, fmt.Errorf("avatar: %w: got %d want %d", ErrShortRecord, len(b), AvatarSize)
	}
	return avatarFrom(b), nil
}

// MarshalHandshake encodes playerID | avatar | direction.
func MarshalHandshake(h Handshake) []byte {
	b := make([]byte, HandshakeSize)
	order.PutUint32(b, uint32(h.PlayerID))
	putAvatar(b[int32Size:], h.Avatar)
	putDirection(b[int32Size+AvatarSize:], h.Direction)
	return b
}

// UnmarshalHandshake decodes a handshake record.
func UnmarshalHandshake(b []byte) (Handshake, error) {
	if len(b) != HandshakeSize {
		return Handshake{}, fmt.Errorf("handshake: %w: got %d want %d", ErrShortRecord, len(b), HandshakeSize)
	}
	return Handshake{
		PlayerID:  int32(order.Uint32(b)),
		Avatar:    avatarFrom(b[int32Size:]),
		Direction: directionFrom(b[int32Size+AvatarSize:]),
	}, nil
}

// MarshalUplink encodes playerID | avatar.
func MarshalUplink(u Uplink) []byte {
	b := make([]byte, UplinkSize)
	order.PutUint32(b, uint32(u.PlayerID))
	putAvatar(b[int32Size:], u.Avatar)
	return b
}

// UnmarshalUplink decodes an uplink record.
func UnmarshalUplink(b []byte) (Uplink, error) {
	if len(b) != UplinkSize {
		return Uplink{}, fmt.Errorf("uplink: %w: got %d want %d", ErrShortRecord, len(b), UplinkSize)
	}
	return Uplink{
		PlayerID: int32(order.Uint32(b)),
		Avatar:   avatarFrom(b[int32Size:]),
	}, nil
}

// MarshalDownlink encodes startedFlag | senderID | avatar.
func MarshalDownlink(d Downlink) []byte {
	b := make([]byte, DownlinkSize)
	var started uint32
	if d.Started {
		started = 1
	}
	order.PutUint32(b, started)
	order.PutUint32(b[int32Size:], uint32(d.SenderID))
	putAvatar(b[2*int32Size:], d.Avatar)
	return b
}

// UnmarshalDownlink decodes a downlink record. Any non-zero flag means started.
func UnmarshalDownlink(b []byte) (Downlink, error) {
	if len(b) != DownlinkSize {
		return Downlink{}, fmt.Errorf("downlink: %w: got %d want %d", ErrShortRecord, len(b), DownlinkSize)
	}
	return Downlink{
		Started:  order.Uint32(b) != 0,
		SenderID: int32(order.Uint32(b[int32Size:])),
		Avatar:   avatarFrom(b[2*int32Size:]),
	}, nil
}

// readRecord reads exactly size bytes. EOF, a short record and any transport
// error all mean the peer is gone.
func readRecord(r io.Reader, size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return b, nil
}

func writeRecord(w io.Writer, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return nil
}

// ReadHandshake reads one handshake record.
func ReadHandshake(r io.Reader) (Handshake, error) {
	b, err := readRecord(r, HandshakeSize)
	if err != nil {
		return Handshake{}, err
	}
	return UnmarshalHandshake(b)
}

// WriteHandshake writes one handshake record.
func WriteHandshake(w io.Writer, h Handshake) error {
	return writeRecord(w, MarshalHandshake(h))
}

// ReadUplink reads one uplink record.
func ReadUplink(r io.Reader) (Uplink, error) {
	b, err := readRecord(r, UplinkSize)
	if err != nil {
		return Uplink{}, err
	}
	return UnmarshalUplink(b)
}

// WriteUplink writes one uplink record.
func WriteUplink(w io.Writer, u Uplink) error {
	return writeRecord(w, MarshalUplink(u))
}

// ReadDownlink reads one downlink record.
func ReadDownlink(r io.Reader) (Downlink, error) {
	b, err := readRecord(r, DownlinkSize)
	if err != nil {
		return Downlink{}, err
	}
	return UnmarshalDownlink(b)
}

// WriteDownlink writes one downlink record.
func WriteDownlink(w io.Writer, d Downlink) error {
	return writeRecord(w, MarshalDownlink(d))
}
