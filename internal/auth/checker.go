package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

type Checker interface {
	SessionState(ctx context.Context, token string) (SessionState, error)
}

// LoginTestChecker resolves tokens from a map; unknown tokens fail.
type LoginTestChecker struct {
	LoggedSessions map[string]bool
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		LoggedSessions: map[string]bool{},
	}
}

func (c *LoginTestChecker) SessionState(_ context.Context, token string) (SessionState, error) {
	if token == "" {
		return SessionPending, nil
	}
	if c.LoggedSessions[token] {
		return SessionAuthenticated, nil
	}
	return SessionFailed, nil
}
