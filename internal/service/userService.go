package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/sirupsen/logrus"
)

type accountService struct {
	api  AccountAPI
	deps Deps
	log  logrus.FieldLogger
}

func NewAccountService(api AccountAPI, deps Deps) AccountService {
	return &accountService{
		api:  api,
		deps: deps,
		log:  deps.logger().WithField("screen", "account"),
	}
}

// Register signs up and, when the server answers with a token, logs in
// right away. Otherwise the user is sent to the login screen.
func (s *accountService) Register(ctx context.Context, reg entity.Registration) (entity.Session, error) {
	if err := reg.Validate(); err != nil {
		return entity.Session{}, err
	}
	sess, err := s.api.Register(ctx, reg)
	if err != nil {
		s.log.WithError(err).Warn("Registration failed")
		return entity.Session{}, err
	}

	if !sess.Valid() {
		s.navigate(navigation.RouteLogin)
		return sess, nil
	}
	if err := s.save(ctx, sess); err != nil {
		return entity.Session{}, err
	}
	s.deps.notify(successNotice("Registration successful!"))
	return sess, nil
}

func (s *accountService) Login(ctx context.Context, creds entity.Credentials) (entity.Session, error) {
	if err := creds.Validate(); err != nil {
		return entity.Session{}, err
	}
	sess, err := s.api.Login(ctx, creds)
	if err != nil {
		s.log.WithError(err).Warn("Login failed")
		return entity.Session{}, err
	}
	if !sess.Valid() {
		return entity.Session{}, fmt.Errorf("%w: login answered without a token", entity.ErrUnauthorized)
	}
	if err := s.save(ctx, sess); err != nil {
		return entity.Session{}, err
	}
	return sess, nil
}

func (s *accountService) save(ctx context.Context, sess entity.Session) error {
	if s.deps.Session == nil {
		return fmt.Errorf("%w: no session store", entity.ErrUnauthorized)
	}
	if err := s.deps.Session.Save(ctx, sess); err != nil {
		return err
	}
	s.navigate(navigation.RouteHome)
	return nil
}

// Logout wipes the store and returns to the login boundary.
func (s *accountService) Logout(ctx context.Context) error {
	if s.deps.Session != nil {
		if err := s.deps.Session.Clear(ctx); err != nil {
			return err
		}
	}
	s.navigate(navigation.RouteLogin)
	return nil
}

// UpdateProfile renames the user on the server, then in the cached profile.
func (s *accountService) UpdateProfile(ctx context.Context, name string) (entity.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.User{}, entity.NewValidationError("name", "name is required")
	}
	if _, err := s.deps.requireSession(ctx); err != nil {
		return entity.User{}, err
	}

	updated, err := s.api.UpdateProfile(ctx, name)
	if err != nil {
		s.deps.notify(errorNotice(s.deps.redirectOnAuth(err), "Unable to update profile."))
		return entity.User{}, err
	}
	if updated.Name == "" {
		updated.Name = name
	}

	user, err := s.deps.Session.UpdateProfile(ctx, updated.Name)
	if err != nil {
		return entity.User{}, err
	}
	s.deps.notify(successNotice("Profile updated successfully!"))
	return user, nil
}

func (s *accountService) Current(ctx context.Context) (entity.Session, bool, error) {
	if s.deps.Session == nil {
		return entity.Session{}, false, nil
	}
	return s.deps.Session.Get(ctx)
}

func (s *accountService) navigate(route navigation.Route) {
	if s.deps.Navigator != nil {
		s.deps.Navigator.Replace(route, nil)
	}
}
