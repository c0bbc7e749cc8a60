package i

import "context"

// ArenaLocker guarantees a single relay server per arena name.
type ArenaLocker interface {
	// Acquire takes ownership or fails if another server holds the arena.
	Acquire(ctx context.Context) error

	// Release gives ownership up.
	Release(ctx context.Context) error
}
