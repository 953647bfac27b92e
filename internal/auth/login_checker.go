package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionState gates write access: only SessionAuthenticated may record entries.
type SessionState int

const (
	// SessionPending - no token presented yet
	SessionPending SessionState = iota
	SessionAuthenticated
	// SessionFailed - unknown, logged out or expired token
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionPending:
		return "pending"
	case SessionAuthenticated:
		return "authenticated"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (as *LoginChecker) IsLogged(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := as.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		return false, err
	}

	createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
	if err != nil {
		return false, err
	}

	createdAt := time.Unix(createdAtUnix, 0)
	if time.Since(createdAt) > as.ttl {
		return false, nil
	}

	return true, nil
}

// SessionState resolves a token. A redis failure is returned with SessionFailed.
func (as *LoginChecker) SessionState(ctx context.Context, token string) (SessionState, error) {
	if token == "" {
		return SessionPending, nil
	}

	isLogged, err := as.IsLogged(ctx, token)
	if errors.Is(err, redis.Nil) {
		return SessionFailed, nil
	}
	if err != nil {
		return SessionFailed, err
	}
	if !isLogged {
		return SessionFailed, nil
	}
	return SessionAuthenticated, nil
}
