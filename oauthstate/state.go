package oauthstate

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-meeting-form/internal/errors"
)

const subject = "github-authorize"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// claims binds a state to the browser session that started the login. The
// session ID itself is never put in the URL, only its digest.
type claims struct {
	Session string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies the state parameter sent on the authorize
// redirect. The state is an HS256 JWT bound to one browser session; the
// caller keeps the returned ID to make it single use.
type Issuer struct {
	key []byte
	ttl time.Duration
}

// NewIssuer returns an issuer keyed by secret. An empty secret gets a random
// key, which invalidates outstanding states on restart.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("[oauthstate NewIssuer] generate key: %w", err)
		}
	}
	return &Issuer{key: key, ttl: ttl}, nil
}

// Issue creates a new signed state for sessionID and returns it with its ID.
func (i *Issuer) Issue(sessionID string) (string, string, error) {
	now := NowTimeFunc()
	c := claims{
		Session: sessionDigest(sessionID),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.key)
	if err != nil {
		return "", "", fmt.Errorf("[oauthstate Issue] sign state: %w", err)
	}
	return signed, c.ID, nil
}

// Verify checks signature, expiry, subject and session binding of a returned
// state and returns its ID.
func (i *Issuer) Verify(raw, sessionID string) (string, error) {
	if raw == "" {
		return "", errors.Wrapf(errors.ErrInvalidState, "missing state")
	}
	c := &claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(token *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidState, err)
	}
	if c.Session != sessionDigest(sessionID) {
		return "", errors.Wrapf(errors.ErrInvalidState, "state issued to another session")
	}
	if c.ID == "" {
		return "", errors.Wrapf(errors.ErrInvalidState, "state has no id")
	}
	return c.ID, nil
}

func sessionDigest(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
