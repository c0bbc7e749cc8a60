// Package wire defines the fixed-width binary records exchanged between the
// relay server and its clients.
//
// Records are sent back to back with no length prefix, delimiter or checksum.
// Every field is little-endian and laid out as the equivalent C struct would be
// on a 32/64-bit little-endian ABI, so both ends must be built with the same
// MaxLength.
package wire

// MaxLength is the maximum snake length, head included.
const MaxLength = 50

// BodyCapacity is the number of body segments an Avatar can carry.
const BodyCapacity = MaxLength - 1

// SentinelCoord marks an avatar as not drawable.
const SentinelCoord int32 = -1

// Segment is one grid cell in pixel coordinates.
type Segment struct {
	X int32
	Y int32
}

// Add returns s moved by d.
func (s Segment) Add(d Direction) Segment {
	return Segment{X: s.X + d.DX, Y: s.Y + d.DY}
}

// IsSentinel reports whether s is the (-1,-1) "not drawable" marker.
func (s Segment) IsSentinel() bool {
	return s.X == SentinelCoord && s.Y == SentinelCoord
}

// Avatar is one player's snake.
// Only Body[:BodyLength] is meaningful.
type Avatar struct {
	Head       Segment
	Body       [BodyCapacity]Segment
	BodyLength int32
	Alive      bool
}

// SentinelAvatar returns the avatar used for disconnected or never-seen players.
func SentinelAvatar() Avatar {
	return Avatar{
		Head: Segment{X: SentinelCoord, Y: SentinelCoord},
	}
}

// Drawable reports whether the avatar has real coordinates.
func (a Avatar) Drawable() bool {
	return !a.Head.IsSentinel()
}

// Segments returns the head followed by the meaningful body segments.
func (a Avatar) Segments() []Segment {
	n := a.Len()
	out := make([]Segment, 0, n+1)
	out = append(out, a.Head)
	return append(out, a.Body[:n]...)
}

// Occupies reports whether s is the head or one of the meaningful body segments.
func (a Avatar) Occupies(s Segment) bool {
	if a.Head == s {
		return true
	}
	for _, b := range a.Body[:a.Len()] {
		if b == s {
			return true
		}
	}
	return false
}

// Len clamps BodyLength into [0, BodyCapacity]; received records are not validated.
func (a Avatar) Len() int {
	switch {
	case a.BodyLength < 0:
		return 0
	case a.BodyLength > BodyCapacity:
		return BodyCapacity
	default:
		return int(a.BodyLength)
	}
}

// Direction is the per-tick head displacement.
type Direction struct {
	DX int32
	DY int32
}

// Opposite returns the reversed direction.
func (d Direction) Opposite() Direction {
	return Direction{DX: -d.DX, DY: -d.DY}
}

// Handshake is sent once by the server right after a connection is admitted.
type Handshake struct {
	PlayerID  int32
	Avatar    Avatar
	Direction Direction
}

// Uplink is the client's per-tick report of its own avatar.
type Uplink struct {
	PlayerID int32
	Avatar   Avatar
}

// Downlink is one relayed avatar plus the server's lifecycle flag.
type Downlink struct {
	Started  bool
	SenderID int32
	Avatar   Avatar
}
