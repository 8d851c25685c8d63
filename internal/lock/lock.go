// Package lock serializes work on a single key across server instances.
package lock

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

const keyPrefix = "electrotrack:lock"

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock: not acquired")

// ReleaseFunc gives the lock back. Releasing an expired lock is a no-op.
type ReleaseFunc func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// Key joins parts under the application prefix, skipping empty parts.
func Key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(keyPrefix)
	for _, part := range parts {
		if part == "" {
			continue
		}
		sb.WriteString(":")
		sb.WriteString(part)
	}
	return sb.String()
}

// UserKey is the per-user key guarding attendance changes.
func UserKey(scope string, userID int64) string {
	return Key(scope, "user", strconv.FormatInt(userID, 10))
}

// Noop always succeeds. It is used when Redis is disabled.
type Noop struct{}

func (Noop) Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}
