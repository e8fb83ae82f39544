package lockout

import (
	"context"
	"time"
)

// Store persists per-user failure counters and lockout windows. Counter
// mutations must be atomic on the backend (SQL expression update, redis INCR)
// so concurrent failed attempts both count instead of clobbering each other.
type Store interface {
	// IncrementFailures atomically bumps the failure counter and returns the
	// post-increment value.
	IncrementFailures(ctx context.Context, userID uint) (int, error)
	Lock(ctx context.Context, userID uint, until time.Time) error
	Reset(ctx context.Context, userID uint) error
	// LockedUntil returns the end of the current lockout window, or nil when
	// no window has been set. Callers decide whether an elapsed window still
	// counts as locked.
	LockedUntil(ctx context.Context, userID uint) (*time.Time, error)
}
