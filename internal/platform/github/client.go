// Package github provides authenticated GitHub API clients.
package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v68/github"
)

// Credentials selects how the client authenticates. Token wins over the
// GitHub App fields when both are set.
type Credentials struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyPEM  string
}

// NewClient creates a GitHub API client from the given credentials.
func NewClient(creds Credentials) (*gogithub.Client, error) {
	if creds.Token != "" {
		return gogithub.NewClient(nil).WithAuthToken(creds.Token), nil
	}
	if creds.AppID == 0 || creds.InstallationID == 0 || creds.PrivateKeyPEM == "" {
		return nil, errors.New("github credentials require a token or app id, installation id and private key")
	}
	return NewAppClient(creds.AppID, creds.InstallationID, creds.PrivateKeyPEM)
}

// NewAppClient creates a GitHub API client authenticated as a GitHub App installation.
// The ghinstallation transport automatically handles token renewal.
func NewAppClient(appID, installationID int64, privateKeyPEM string) (*gogithub.Client, error) {
	transport, err := ghinstallation.New(http.DefaultTransport, appID, installationID, []byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("creating github installation transport: %w", err)
	}
	return gogithub.NewClient(&http.Client{Transport: transport}), nil
}
