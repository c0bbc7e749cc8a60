package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitConfig(t *testing.T) {
	t.Run("defaults match the wire constants", func(t *testing.T) {
		t.Setenv("ARENA_PORT", "58920")
		c := initConfig()

		assert.Equal(t, DefaultArenaPort, c.ArenaPort)
		assert.Equal(t, "127.0.0.1:58920", c.ServerAddr)
		assert.Equal(t, DefaultMaxClients, c.MaxClients)
		assert.Equal(t, int32(DefaultWindowWidth), c.WindowWidth)
		assert.Equal(t, int32(DefaultWindowHeight), c.WindowHeight)
		assert.Equal(t, int32(DefaultSegmentSize), c.SegmentSize)
		assert.Equal(t, 100*time.Millisecond, c.TickPeriod)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("ARENA_PORT", "6000")
		t.Setenv("SERVER_ADDR", "10.0.0.2:6000")
		t.Setenv("TICK_MS", "50")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		c := initConfig()

		assert.Equal(t, 6000, c.ArenaPort)
		assert.Equal(t, "10.0.0.2:6000", c.ServerAddr)
		assert.Equal(t, 50*time.Millisecond, c.TickPeriod)
		assert.Equal(t, "localhost:6379", c.RedisAddr)
	})
}
