package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

const defaultTokenURI = "https://oauth2.googleapis.com/token"

var ErrMissingCredentials = errors.New("missing service account credentials")

// ServiceCredentials is the resolved service account used for Google APIs.
type ServiceCredentials struct {
	ClientEmail  string `json:"client_email" env:"LIFTLOG_CLIENT_EMAIL"`
	ClientID     string `json:"client_id" env:"LIFTLOG_CLIENT_ID"`
	PrivateKey   string `json:"private_key" env:"LIFTLOG_PRIVATE_KEY"`
	PrivateKeyID string `json:"private_key_id" env:"LIFTLOG_PRIVATE_KEY_ID"`
}

func (c ServiceCredentials) Validate() error {
	var missing []string
	if c.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if c.PrivateKeyID == "" {
		missing = append(missing, "private_key_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if !strings.Contains(c.PrivateKey, "PRIVATE KEY") {
		return errors.New("private_key is not a PEM encoded key")
	}
	return nil
}

// JSON renders the credentials as a service account key file.
func (c ServiceCredentials) JSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string `json:"type"`
		ClientEmail  string `json:"client_email"`
		ClientID     string `json:"client_id"`
		PrivateKey   string `json:"private_key"`
		PrivateKeyID string `json:"private_key_id"`
		TokenURI     string `json:"token_uri"`
	}{
		Type:         "service_account",
		ClientEmail:  c.ClientEmail,
		ClientID:     c.ClientID,
		PrivateKey:   c.PrivateKey,
		PrivateKeyID: c.PrivateKeyID,
		TokenURI:     defaultTokenURI,
	})
}

// LoadCredentials resolves the service account from a key file when path is set,
// otherwise from the LIFTLOG_* env vars.
func LoadCredentials(ctx context.Context, path string) (*ServiceCredentials, error) {
	var creds ServiceCredentials
	if path != "" {
		credsBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		if err := json.Unmarshal(credsBytes, &creds); err != nil {
			return nil, fmt.Errorf("unmarshal credentials file: %w", err)
		}
	} else {
		if err := envconfig.Process(ctx, &creds); err != nil {
			return nil, fmt.Errorf("process credentials env: %w", err)
		}
		// env values usually carry the key with escaped newlines
		creds.PrivateKey = strings.ReplaceAll(creds.PrivateKey, `\n`, "\n")
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	return &creds, nil
}
