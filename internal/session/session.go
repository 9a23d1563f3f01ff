// Package session resolves a bearer token into the owner and permission set
// it belongs to. Each token is resolved once and cached until it expires or
// is invalidated.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"

	"motodash/internal/model"
	"motodash/internal/permission"
)

var ErrNoToken = errors.New("session token is required")

// Fetcher loads the data a session is built from.
type Fetcher interface {
	Profile(ctx context.Context, token string) (*model.Owner, error)
	MyPermissions(ctx context.Context, token string) (model.PermissionMap, error)
}

// Session is the resolved identity behind a token.
type Session struct {
	Token       string
	Owner       model.Owner
	Permissions *permission.Set
	ExpiresAt   time.Time
}

// Store caches sessions by token.
type Store struct {
	fetch Fetcher
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*Session
}

// NewStore creates a Store. ttl bounds the cache lifetime of tokens whose
// expiry cannot be read from their claims.
func NewStore(fetch Fetcher, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		fetch:   fetch,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*Session),
	}
}

// Load returns the cached session for token or resolves it.
func (s *Store) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	now := s.now()

	s.mu.Lock()
	if sess, ok := s.entries[token]; ok {
		if now.Before(sess.ExpiresAt) {
			s.mu.Unlock()
			return sess, nil
		}
		delete(s.entries, token)
	}
	s.mu.Unlock()

	owner, err := s.fetch.Profile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	var granted model.PermissionMap
	if owner.Role != model.RoleAdmin {
		granted, err = s.fetch.MyPermissions(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("load permissions: %w", err)
		}
	}

	expires := now.Add(s.ttl)
	if exp, ok := TokenExpiry(token); ok && exp.Before(expires) {
		expires = exp
	}
	sess := &Session{
		Token:       token,
		Owner:       *owner,
		Permissions: permission.NewSet(owner.Role, granted),
		ExpiresAt:   expires,
	}

	s.mu.Lock()
	s.sweep(now)
	s.entries[token] = sess
	s.mu.Unlock()
	return sess, nil
}

// Invalidate drops the cached session of token.
func (s *Store) Invalidate(token string) {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
}

// InvalidateOwner drops every cached session of an owner, used after the
// owner's role or permissions change.
func (s *Store) InvalidateOwner(ownerID string) {
	s.mu.Lock()
	for tok, sess := range s.entries {
		if sess.Owner.ID == ownerID {
			delete(s.entries, tok)
		}
	}
	s.mu.Unlock()
}

// Len returns the number of cached sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep drops expired entries; the caller holds mu.
func (s *Store) sweep(now time.Time) {
	for tok, sess := range s.entries {
		if !now.Before(sess.ExpiresAt) {
			delete(s.entries, tok)
		}
	}
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The lending API verifies tokens; this only bounds how long they are cached.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	default:
		return time.Time{}, false
	}
}
