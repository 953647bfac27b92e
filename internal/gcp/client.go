// Package gcp builds the authenticated HTTP client shared by the Google API
// services (sheets, storage, drive).
package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ScopeSpreadsheets       = "https://www.googleapis.com/auth/spreadsheets"
	ScopeDriveFile          = "https://www.googleapis.com/auth/drive.file"
	ScopeDevstorageReadOnly = "https://www.googleapis.com/auth/devstorage.read_only"
)

var ErrNoScopes = errors.New("no oauth scopes requested")

// NewHTTPClient returns a client authorized with the service account JSON.
// Both API calls and token fetches go through a traced transport.
func NewHTTPClient(ctx context.Context, credentialsJSON []byte, scopes ...string) (*http.Client, error) {
	if len(scopes) == 0 {
		return nil, ErrNoScopes
	}

	tracedClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, tracedClient)

	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	return oauth2.NewClient(ctx, creds.TokenSource), nil
}
