// Package roster holds the shared per-player table used by the relay server
// (source of truth for relaying) and by the client (mirror of remote avatars).
package roster

import (
	"errors"
	"sync"

	"github.com/beka-birhanu/vinom-arena/wire"
)

var ErrUnknownPlayer = errors.New("player id out of range")

// Conn is the connection handle kept with a server-side slot.
// It is nil on the client.
type Conn interface {
	Send(wire.Downlink) error
	Close() error
}

// Slot is one roster entry. Slots are always handed out as copies.
type Slot struct {
	PlayerID int32
	Avatar   wire.Avatar
	Active   bool
	Conn     Conn
}

// Store is a fixed-size player table behind a single lock.
// The lock is only held to copy slots in or out, never across I/O.
type Store struct {
	slots []Slot
	sync.Mutex
}

// New creates capacity inactive slots whose avatars carry sentinel coordinates.
func New(capacity int) *Store {
	slots := make([]Slot, capacity)
	for idx := range slots {
		slots[idx] = Slot{
			PlayerID: int32(idx + 1),
			Avatar:   wire.SentinelAvatar(),
		}
	}
	return &Store{slots: slots}
}

// Capacity returns the number of slots.
func (s *Store) Capacity() int {
	return len(s.slots)
}

func (s *Store) index(id int32) (int, error) {
	if id < 1 || int(id) > len(s.slots) {
		return 0, ErrUnknownPlayer
	}
	return int(id - 1), nil
}

// Get returns a copy of the slot for id.
func (s *Store) Get(id int32) (Slot, error) {
	idx, err := s.index(id)
	if err != nil {
		return Slot{}, err
	}

	s.Lock()
	defer s.Unlock()
	return s.slots[idx], nil
}

// Set replaces the avatar and active flag of a slot in one step.
func (s *Store) Set(id int32, a wire.Avatar, active bool) error {
	idx, err := s.index(id)
	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()
	s.slots[idx].Avatar = a
	s.slots[idx].Active = active
	return nil
}

// Attach activates a slot for a freshly admitted connection.
func (s *Store) Attach(id int32, c Conn, a wire.Avatar) error {
	idx, err := s.index(id)
	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()
	s.slots[idx].Conn = c
	s.slots[idx].Avatar = a
	s.slots[idx].Active = true
	return nil
}

// Deactivate marks a slot inactive and returns its connection handle, if any.
// The last known avatar is kept.
func (s *Store) Deactivate(id int32) (Conn, error) {
	idx, err := s.index(id)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	c := s.slots[idx].Conn
	s.slots[idx].Active = false
	s.slots[idx].Conn = nil
	return c, nil
}

// Retire deactivates a slot and forces its avatar to the sentinel so it is no longer drawn.
func (s *Store) Retire(id int32) error {
	idx, err := s.index(id)
	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()
	s.slots[idx].Avatar = wire.SentinelAvatar()
	s.slots[idx].Active = false
	s.slots[idx].Conn = nil
	return nil
}

// ForEachActiveExcept calls fn for every active slot other than id.
// The slots are copied under the lock and fn runs after it is released.
func (s *Store) ForEachActiveExcept(id int32, fn func(Slot)) {
	for _, slot := range s.activeExcept(id) {
		fn(slot)
	}
}

func (s *Store) activeExcept(id int32) []Slot {
	s.Lock()
	defer s.Unlock()

	out := make([]Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		if slot.Active && slot.PlayerID != id {
			out = append(out, slot)
		}
	}
	return out
}

// Others returns the avatars of every active slot other than id.
func (s *Store) Others(id int32) []wire.Avatar {
	slots := s.activeExcept(id)
	out := make([]wire.Avatar, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.Avatar)
	}
	return out
}

// CountAliveExcept counts active slots other than id whose avatar is alive.
func (s *Store) CountAliveExcept(id int32) int {
	n := 0
	for _, slot := range s.activeExcept(id) {
		if slot.Avatar.Alive {
			n++
		}
	}
	return n
}

// Snapshot copies the whole table.
func (s *Store) Snapshot() []Slot {
	s.Lock()
	defer s.Unlock()

	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}
