package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/2beens/liftlog/pkg"

	"github.com/BurntSushi/toml"
)

const (
	DefaultCookieName = "liftlog-session"
	DefaultExpiryDays = 30
)

var (
	ErrUnknownUser   = errors.New("unknown user")
	ErrWrongPassword = errors.New("wrong password")
	ErrNoUsers       = errors.New("no users configured")
)

type CookieConfig struct {
	Name       string `toml:"name"`
	ExpiryDays int    `toml:"expiry_days"`
}

type User struct {
	Name         string `toml:"name"`
	Email        string `toml:"email"`
	PasswordHash string `toml:"password_hash"`
}

// UsersConfig is the users file, e.g.
//
//	[cookie]
//	name = "liftlog-session"
//	expiry_days = 30
//
//	[users.lifter]
//	name = "Lifter"
//	password_hash = "$2a$14$..."
type UsersConfig struct {
	Cookie CookieConfig    `toml:"cookie"`
	Users  map[string]User `toml:"users"`
}

func NewUsersConfig() *UsersConfig {
	c := &UsersConfig{}
	c.applyDefaults()
	return c
}

func LoadUsersConfig(path string) (*UsersConfig, error) {
	c := &UsersConfig{}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("decode users config %s: %w", path, err)
	}
	c.applyDefaults()

	for username, u := range c.Users {
		if strings.TrimSpace(u.PasswordHash) == "" {
			return nil, fmt.Errorf("user [%s] has no password_hash", username)
		}
	}
	return c, nil
}

// Save writes the users file, readable by the owner only.
func (c *UsersConfig) Save(path string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open users config %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close users config %s: %w", path, closeErr)
		}
	}()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode users config %s: %w", path, err)
	}
	return nil
}

func (c *UsersConfig) applyDefaults() {
	if c.Cookie.Name == "" {
		c.Cookie.Name = DefaultCookieName
	}
	if c.Cookie.ExpiryDays <= 0 {
		c.Cookie.ExpiryDays = DefaultExpiryDays
	}
	if c.Users == nil {
		c.Users = map[string]User{}
	}
}

// AddUser registers (or replaces) a user, e.g. the admin pair from env.
func (c *UsersConfig) AddUser(username, passwordHash string) {
	c.Users[username] = User{
		Name:         username,
		PasswordHash: passwordHash,
	}
}

// TTL is the session lifetime, the same as the cookie expiry.
func (c *UsersConfig) TTL() time.Duration {
	return time.Duration(c.Cookie.ExpiryDays) * 24 * time.Hour
}

func (c *UsersConfig) Authenticate(username, password string) error {
	if len(c.Users) == 0 {
		return ErrNoUsers
	}
	u, ok := c.Users[username]
	if !ok {
		return ErrUnknownUser
	}
	if !pkg.CheckPasswordHash(password, u.PasswordHash) {
		return ErrWrongPassword
	}
	return nil
}
