// Package session holds the authenticated identity of the client. It is
// passed explicitly to every screen; nothing here is global.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/eventhive/internal/database"
	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

type Context struct {
	store database.Store
	log   logrus.FieldLogger
	now   func() time.Time

	mu     sync.RWMutex
	loaded bool
	cur    entity.Session
}

func New(store database.Store, log logrus.FieldLogger) *Context {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Context{store: store, log: log, now: time.Now}
}

// Get returns the cached session, reading the store on first use.
// ok is false when nobody is logged in.
func (c *Context) Get(ctx context.Context) (entity.Session, bool, error) {
	c.mu.RLock()
	if c.loaded {
		s := c.cur
		c.mu.RUnlock()
		return s, s.Valid(), nil
	}
	c.mu.RUnlock()
	return c.Refresh(ctx)
}

// Refresh re-reads the store. Screens call it when they regain focus so a
// profile edited elsewhere, or a logout, is picked up.
func (c *Context) Refresh(ctx context.Context) (entity.Session, bool, error) {
	s, err := c.read(ctx)
	if err != nil {
		return entity.Session{}, false, err
	}

	c.mu.Lock()
	c.cur = s
	c.loaded = true
	c.mu.Unlock()

	return s, s.Valid(), nil
}

func (c *Context) read(ctx context.Context) (entity.Session, error) {
	token, ok, err := c.store.Get(ctx, KeyToken)
	if err != nil {
		return entity.Session{}, fmt.Errorf("read token: %w", err)
	}
	if !ok || token == "" {
		return entity.Session{}, nil
	}

	s := entity.Session{Token: token}

	raw, ok, err := c.store.Get(ctx, KeyUser)
	if err != nil {
		return entity.Session{}, fmt.Errorf("read user: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.User); err != nil {
			// a corrupt profile must not lock the user out, it only costs the admin flag
			c.log.WithError(err).Warn("Cached user profile is unreadable")
			s.User = entity.User{}
		}
	}
	return s, nil
}

// Require fails closed: no token, or a JWT whose exp is in the past, is
// ErrUnauthorized and no request should be attempted.
func (c *Context) Require(ctx context.Context) (entity.Session, error) {
	s, ok, err := c.Get(ctx)
	if err != nil {
		return entity.Session{}, err
	}
	if !ok {
		return entity.Session{}, fmt.Errorf("%w: not logged in", entity.ErrUnauthorized)
	}
	if c.expired(s.Token) {
		return entity.Session{}, fmt.Errorf("%w: token expired", entity.ErrUnauthorized)
	}
	return s, nil
}

// expired only judges tokens it can read. Opaque tokens are left to the server.
func (c *Context) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !c.now().Before(exp.Time)
}

// Token implements api.TokenSource.
func (c *Context) Token(ctx context.Context) (string, error) {
	s, err := c.Require(ctx)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

// IsAdmin trusts the cached profile. A server-side revocation is only seen
// after the next login or profile refresh.
func IsAdmin(u entity.User) bool {
	return u.IsAdmin
}

// IsAdmin reports whether the current session may use admin operations.
func (c *Context) IsAdmin(ctx context.Context) bool {
	s, ok, err := c.Get(ctx)
	if err != nil || !ok {
		return false
	}
	return IsAdmin(s.User)
}

// Save persists a session established by login or registration.
func (c *Context) Save(ctx context.Context, s entity.Session) error {
	if !s.Valid() {
		return fmt.Errorf("%w: empty token", entity.ErrUnauthorized)
	}
	raw, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := c.store.Set(ctx, KeyToken, s.Token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := c.store.Set(ctx, KeyUser, string(raw)); err != nil {
		return fmt.Errorf("write user: %w", err)
	}

	c.mu.Lock()
	c.cur = s
	c.loaded = true
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"user_id": s.User.ID, "admin": s.User.IsAdmin}).Info("Session saved")
	return nil
}

// UpdateProfile replaces the cached display name after the server accepted it.
func (c *Context) UpdateProfile(ctx context.Context, name string) (entity.User, error) {
	s, err := c.Require(ctx)
	if err != nil {
		return entity.User{}, err
	}
	s.User.Name = name
	if err := c.Save(ctx, s); err != nil {
		return entity.User{}, err
	}
	return s.User, nil
}

// Clear logs out: the whole store is wiped.
func (c *Context) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	c.mu.Lock()
	c.cur = entity.Session{}
	c.loaded = true
	c.mu.Unlock()

	c.log.Info("Session cleared")
	return nil
}

// Guard is what a screen runs before loading: without a session it sends the
// navigator to the login boundary and returns ErrUnauthorized.
func (c *Context) Guard(ctx context.Context, nav navigation.Navigator) (entity.Session, error) {
	s, err := c.Require(ctx)
	if err != nil && entity.IsAuthError(err) && nav != nil {
		nav.Replace(navigation.RouteLogin, nil)
	}
	return s, err
}
