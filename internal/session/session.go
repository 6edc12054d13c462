package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type contextKey string

const sessionKey contextKey = "session"

// Store persists a single auth token
type Store interface {
	// Load returns the stored token, or "" when none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Session is the caller's authentication state backed by a Store
type Session struct {
	store Store
	now   func() time.Time
}

// New creates a session over the given store
func New(store Store) *Session {
	return &Session{store: store, now: time.Now}
}

// Token returns the current bearer token, or "" if there is none.
// Expired JWTs are cleared and reported as absent.
func (s *Session) Token(ctx context.Context) string {
	token, err := s.store.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load session token")
		return ""
	}
	if token == "" {
		return ""
	}

	if expired(token, s.now()) {
		log.Debug().Msg("Stored token expired, clearing")
		if err := s.store.Clear(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to clear expired token")
		}
		return ""
	}

	return token
}

// SetToken stores a freshly issued token
func (s *Session) SetToken(ctx context.Context, token string) error {
	return s.store.Save(ctx, token)
}

// Clear removes the stored token
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Authenticated reports whether a usable token is present
func (s *Session) Authenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// WithSession attaches a session to the context
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext extracts the session from the context, or nil
func FromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionKey).(*Session)
	if !ok {
		return nil
	}
	return s
}

// expired peeks at the exp claim without verifying the signature.
// Tokens that are not JWTs are treated as opaque and never expire here.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
