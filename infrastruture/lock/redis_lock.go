// Package lock keeps a single relay server per arena name across hosts.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logger "github.com/beka-birhanu/vinom-arena/infrastruture/log"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const (
	ownerKeyFmt   = "arena:%s:owner"
	DefaultExpiry = 8 * time.Second
)

var ErrNotHeld = errors.New("arena lock is not held")

var _ i.ArenaLocker = &RedisLock{}

// RedisLock is a redsync mutex that is extended in the background while held.
type RedisLock struct {
	mutex  *redsync.Mutex
	expiry time.Duration
	stop   chan struct{}
	wg     sync.WaitGroup
	logger i.Logger
	sync.Mutex
}

// NewRedisLock creates the ownership lock for arenaName. A non-positive expiry means DefaultExpiry.
func NewRedisLock(client *redis.Client, arenaName string, expiry time.Duration, l i.Logger) *RedisLock {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if l == nil {
		l = logger.Discard()
	}

	pool := goredis.NewPool(client)
	rs := redsync.New(pool)
	return &RedisLock{
		mutex:  rs.NewMutex(OwnerKey(arenaName), redsync.WithExpiry(expiry), redsync.WithTries(1)),
		expiry: expiry,
		logger: l,
	}
}

// OwnerKey returns the Redis key guarding an arena.
func OwnerKey(arenaName string) string {
	return fmt.Sprintf(ownerKeyFmt, arenaName)
}

// Acquire takes the lock once, without retrying, and keeps extending it until Release.
func (l *RedisLock) Acquire(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()
	if err := l.mutex.LockContext(ctx); err != nil {
		return err
	}

	l.stop = make(chan struct{})
	l.wg.Add(1)
	go l.extendLoop(l.stop)
	l.logger.Info(fmt.Sprintf("acquired %s", l.mutex.Name()))
	return nil
}

func (l *RedisLock) extendLoop(stop <-chan struct{}) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.expiry / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.expiry/2)
			ok, err := l.mutex.ExtendContext(ctx)
			cancel()
			if err != nil || !ok {
				l.logger.Error(fmt.Sprintf("error while extending %s: %v", l.mutex.Name(), err))
			}
		}
	}
}

// Release stops extending and unlocks.
func (l *RedisLock) Release(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()
	if l.stop == nil {
		return ErrNotHeld
	}
	close(l.stop)
	l.wg.Wait()
	l.stop = nil

	ok, err := l.mutex.UnlockContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotHeld
	}
	l.logger.Info(fmt.Sprintf("released %s", l.mutex.Name()))
	return nil
}
