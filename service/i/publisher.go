package i

import (
	"context"

	"github.com/beka-birhanu/vinom-arena/wire"
)

// Arena event types.
const (
	EventJoined   = "joined"
	EventRelayed  = "relayed"
	EventLeft     = "left"
	EventRejected = "rejected"
	EventStarted  = "started"
)

// ArenaEvent is one observable change in the arena.
type ArenaEvent struct {
	Type     string      `json:"type"`
	PlayerID int32       `json:"player_id,omitempty"`
	Started  bool        `json:"started"`
	Avatar   wire.Avatar `json:"avatar"`
}

// EventPublisher forwards arena events to an external channel.
type EventPublisher interface {
	Publish(ctx context.Context, e ArenaEvent) error
	Close() error
}
