package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Incrementer is the part of the redis client the counter needs.
type Incrementer interface {
	Incr(ctx context.Context, key string) *goredis.IntCmd
}

// HitCounter counts page hits in redis.
type HitCounter struct {
	rdb     Incrementer
	key     string
	retries int
	backoff time.Duration
}

func NewHitCounter(rdb Incrementer) *HitCounter {
	return &HitCounter{
		rdb:     rdb,
		key:     "hits",
		retries: 5,
		backoff: 500 * time.Millisecond,
	}
}

// NewRedisClient builds a client for addr. Connectivity is not checked
// here; the counter retries connection errors on every hit.
func NewRedisClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
}

// Hit increments the counter and returns the new count. Connection errors
// are retried up to the configured number of times; any other error is
// returned immediately.
func (h *HitCounter) Hit(ctx context.Context) (int64, error) {
	retries := h.retries
	for {
		n, err := h.rdb.Incr(ctx, h.key).Result()
		if err == nil {
			return n, nil
		}
		if !isConnectionError(err) || retries == 0 {
			return 0, fmt.Errorf("incr %s: %w", h.key, err)
		}
		retries--
		log.Warnf("[REDIS] incr %s: %v (retries left %d)", h.key, err, retries)

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(h.backoff):
		}
	}
}

func isConnectionError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET)
}
