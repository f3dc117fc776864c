package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultLockTTL bounds how long a crashed holder can block a session close
const DefaultLockTTL = 30 * time.Second

// SessionLocker implements domain.SessionLocker with a Redis lock per session
type SessionLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewSessionLocker creates a new SessionLocker
func NewSessionLocker(client redis.UniversalClient, ttl time.Duration) *SessionLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &SessionLocker{
		locker: redislock.New(client),
		ttl:    ttl,
	}
}

func sessionLockKey(sessionID int32) string {
	return fmt.Sprintf("lock:cash_session:%d", sessionID)
}

// Lock obtains the session's lock without waiting. A held lock yields domain.ErrSessionBusy.
func (l *SessionLocker) Lock(ctx context.Context, sessionID int32) (func(), error) {
	lock, err := l.locker.Obtain(ctx, sessionLockKey(sessionID), l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrSessionBusy
	}
	if err != nil {
		return nil, fmt.Errorf("obtain session lock: %w", err)
	}

	return func() {
		// release with a fresh context so a cancelled request still frees the lock
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Int32("session_id", sessionID).Msg("Failed to release session lock")
		}
	}, nil
}
