// Package pubsub publishes arena events on a Redis channel.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/redis/go-redis/v9"
)

const channelFmt = "arena:%s:events"

var _ i.EventPublisher = &RedisPublisher{}

// RedisPublisher publishes every event as one JSON message.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher for the arena's event channel.
// The publisher owns client and closes it on Close.
func NewRedisPublisher(client *redis.Client, arenaName string) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: Channel(arenaName),
	}
}

// Channel returns the event channel name for an arena.
func Channel(arenaName string) string {
	return fmt.Sprintf(channelFmt, arenaName)
}

// Publish sends e to the arena channel.
func (p *RedisPublisher) Publish(ctx context.Context, e i.ArenaEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Close closes the underlying client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
