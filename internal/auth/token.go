// Package auth supplies bearer credentials to the dispatcher. The session
// layer that obtains tokens in the first place is the host application's
// concern; this package only holds and inspects what it is given.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ErrNoToken indicates that no credential has been configured.
var ErrNoToken = errors.New("auth: no bearer token configured")

// TokenProvider yields the bearer token to attach to a dispatch attempt.
// Fetched per attempt so rotated credentials are picked up mid-run.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider serves a single configured token, optionally updated
// at runtime via SetToken when the host refreshes credentials.
type StaticTokenProvider struct {
	mu     sync.Mutex
	token  string
	warned bool // expired-token warning emitted for the current token
}

// NewStaticTokenProvider creates a provider around the given token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token returns the configured token. If the token looks like a JWT with an
// exp claim in the past, a warning is logged once; the token is still
// returned, since the server is the authority on validity.
func (p *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	token := p.token
	warned := p.warned
	if token != "" && !warned {
		if exp, ok := tokenExpiry(token); ok && time.Now().After(exp) {
			p.warned = true
			log.Warn().
				Time("expiredAt", exp).
				Msg("configured bearer token appears expired; dispatches will likely be rejected")
		}
	}
	p.mu.Unlock()

	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// SetToken replaces the served token and re-arms the expiry warning.
func (p *StaticTokenProvider) SetToken(token string) {
	p.mu.Lock()
	p.token = token
	p.warned = false
	p.mu.Unlock()
}

// tokenExpiry extracts the exp claim without verifying the signature.
// Verification is the server's job; we only want the diagnostic.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
