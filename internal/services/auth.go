// Package services contains the bounty tracker's application services:
// credential checking, the identity marker used for session restore, key
// redemption and the session manager that ties them to the progress store
// and the countdown timer.
package services

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/cryptox"
	"github.com/dmitrijs2005/bountyhunter/internal/models"
)

// Authenticator checks credentials and returns the identity they belong to.
// Failures must match common.ErrAuthFailure.
type Authenticator interface {
	Authenticate(ctx context.Context, username, externalID string, secret []byte) (models.UserIdentity, error)
}

// FixedCredentials accepts any non-empty username together with one fixed
// id/secret pair. It is a placeholder policy, not a security boundary.
type FixedCredentials struct {
	id     string
	secret *cryptox.Verifier
	now    func() time.Time
}

// NewFixedCredentials keeps only an argon2 verifier of secret.
func NewFixedCredentials(id, secret string) *FixedCredentials {
	return &FixedCredentials{id: id, secret: cryptox.NewVerifier([]byte(secret)), now: time.Now}
}

// Authenticate trims username and externalID (the secret is used verbatim).
func (f *FixedCredentials) Authenticate(ctx context.Context, username, externalID string, secret []byte) (models.UserIdentity, error) {
	username = strings.TrimSpace(username)
	externalID = strings.TrimSpace(externalID)

	idOK := subtle.ConstantTimeCompare([]byte(externalID), []byte(f.id)) == 1
	secretOK := f.secret.Matches(secret)
	if username == "" || !idOK || !secretOK {
		return models.UserIdentity{}, common.ErrAuthFailure
	}

	return models.UserIdentity{
		Username:       username,
		ExternalID:     externalID,
		LoginTimestamp: f.now().UTC(),
	}, nil
}
