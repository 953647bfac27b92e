package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/2beens/liftlog/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	sessionKeyPrefix = "liftlog-session||"
	tokensSetKey     = "liftlog-sessions"
	tokenLength      = 35
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Service struct {
	users       *UsersConfig
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewAuthService(
	users *UsersConfig,
	redisClient *redis.Client,
) *Service {
	return &Service{
		users:          users,
		ttl:            users.TTL(),
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) TTL() time.Duration {
	return as.ttl
}

// Login checks the credentials and opens a session, returning its token.
func (as *Service) Login(ctx context.Context, creds Credentials, createdAt time.Time) (string, error) {
	if err := as.users.Authenticate(creds.Username, creds.Password); err != nil {
		return "", err
	}

	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	cmdSet := as.redisClient.Set(ctx, sessionKey, createdAt.Unix(), as.ttl)
	if err := cmdSet.Err(); err != nil {
		return "", err
	}

	// add token to list of sessions
	cmdSAdd := as.redisClient.SAdd(ctx, tokensSetKey, token)
	if err := cmdSAdd.Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Logout ends the session. Returns false if the session was already over.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := as.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		return false, err
	}

	createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
	if err != nil {
		return false, err
	}

	cmdDel := as.redisClient.Del(ctx, sessionKey)
	if err := cmdDel.Err(); err != nil {
		return false, err
	}

	// remove token from the list of sessions
	cmdSRem := as.redisClient.SRem(ctx, tokensSetKey, token)
	if err := cmdSRem.Err(); err != nil {
		return false, err
	}

	return createdAtUnix > 0, nil
}

// ScanAndClean runs through all sessions and drops the expired ones (and the
// ones redis already expired) from the sessions set. Returns the number cleaned.
func (as *Service) ScanAndClean(ctx context.Context) int {
	cmd := as.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("auth service, scan and clean, get sessions: %s", err)
		return 0
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("auth service, scan and clean abort, no sessions")
		return 0
	}

	log.Debugf("auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		cmd := as.redisClient.Get(ctx, sessionKey)
		if err := cmd.Err(); err != nil {
			if err == redis.Nil {
				toRemove = append(toRemove, token)
			} else {
				log.Errorf("auth service, scan and clean token %s: %s", token, err)
			}
			continue
		}

		createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
		if err != nil {
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(time.Unix(createdAtUnix, 0)) > as.ttl {
			toRemove = append(toRemove, token)
		}
	}

	cleaned := 0
	for _, token := range toRemove {
		sessionKey := sessionKeyPrefix + token
		if err := as.redisClient.Del(ctx, sessionKey).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
			continue
		}

		// remove token from the list of sessions
		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
			continue
		}
		cleaned++
	}

	return cleaned
}
