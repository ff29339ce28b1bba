package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/ds124wfegd/eventhive/internal/pager"
	"github.com/ds124wfegd/eventhive/internal/session"
	"github.com/sirupsen/logrus"
)

// EventsAPI is the part of the remote API the event screens talk to.
type EventsAPI interface {
	ListEvents(ctx context.Context, page int) (entity.Page[entity.Event], error)
	GetEvent(ctx context.Context, id string) (entity.Event, error)
	CreateEvent(ctx context.Context, in entity.EventInput) (entity.Event, error)
	UpdateEvent(ctx context.Context, id string, in entity.EventInput) (entity.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type BookingsAPI interface {
	CreateBooking(ctx context.Context, eventID string, quantity int) (entity.Booking, error)
	ListBookings(ctx context.Context, page int, scope entity.BookingScope) (entity.Page[entity.Booking], error)
	UpdateBookingStatus(ctx context.Context, id string, status entity.BookingStatus) error
	DeleteBooking(ctx context.Context, id string) error
}

type AccountAPI interface {
	Register(ctx context.Context, reg entity.Registration) (entity.Session, error)
	Login(ctx context.Context, creds entity.Credentials) (entity.Session, error)
	UpdateProfile(ctx context.Context, name string) (entity.User, error)
}

// EventCatalog is the event feed: one page of events plus admin mutations.
type EventCatalog interface {
	// Навигация по страницам
	List(ctx context.Context, page int) (pager.State[entity.Event], error)
	GoToPage(ctx context.Context, n int) (pager.State[entity.Event], error)
	Next(ctx context.Context) (pager.State[entity.Event], error)
	Prev(ctx context.Context) (pager.State[entity.Event], error)
	Refresh(ctx context.Context) (pager.State[entity.Event], error)
	State() pager.State[entity.Event]

	// Административные операции
	Get(ctx context.Context, id string) (entity.Event, error)
	Create(ctx context.Context, fields entity.EventFields) (entity.Event, error)
	Update(ctx context.Context, id string, fields entity.EventFields) (entity.Event, error)
	Delete(ctx context.Context, id string) error

	Reconcile(ctx context.Context) error
	Close()
}

// EventDetail is the screen of a single event, where seats are reserved.
type EventDetail interface {
	Load(ctx context.Context) (entity.Event, error)
	Event() (entity.Event, bool)
	Book(ctx context.Context, quantity int) (entity.Booking, error)
	BookInput(ctx context.Context, raw string) (entity.Booking, error)
	UserTickets() int
	CanBook() bool
	ShareMessage() (string, error)
	Notice() *entity.Notice
	Back() navigation.Route
	Reconcile(ctx context.Context) error
	Close()
}

// BookingEngine is the bookings screen: the caller's bookings, or all of
// them for an admin session.
type BookingEngine interface {
	List(ctx context.Context, page int) (pager.State[entity.Booking], error)
	GoToPage(ctx context.Context, n int) (pager.State[entity.Booking], error)
	Next(ctx context.Context) (pager.State[entity.Booking], error)
	Prev(ctx context.Context) (pager.State[entity.Booking], error)
	Refresh(ctx context.Context) (pager.State[entity.Booking], error)
	State() pager.State[entity.Booking]
	Scope() entity.BookingScope

	// Изменение статуса
	Cancel(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	Reconcile(ctx context.Context) error
	Close()
}

type AccountService interface {
	Register(ctx context.Context, reg entity.Registration) (entity.Session, error)
	Login(ctx context.Context, creds entity.Credentials) (entity.Session, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, name string) (entity.User, error)
	Current(ctx context.Context) (entity.Session, bool, error)
}

// Deps are the collaborators every screen receives at construction.
type Deps struct {
	Session   *session.Context
	Navigator navigation.Navigator
	Notices   NoticeSink
	Log       logrus.FieldLogger
}

func (d Deps) logger() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

func (d Deps) notify(n entity.Notice) {
	if d.Notices != nil {
		d.Notices.Notify(n)
	}
}

// redirectOnAuth sends the navigator to the login boundary for
// authorization failures and passes err through unchanged.
func (d Deps) redirectOnAuth(err error) error {
	if err != nil && entity.IsAuthError(err) && d.Navigator != nil {
		d.Navigator.Replace(navigation.RouteLogin, nil)
	}
	return err
}

func (d Deps) requireSession(ctx context.Context) (entity.Session, error) {
	if d.Session == nil {
		return entity.Session{}, d.redirectOnAuth(fmt.Errorf("%w: no session", entity.ErrUnauthorized))
	}
	s, err := d.Session.Require(ctx)
	return s, d.redirectOnAuth(err)
}

func (d Deps) requireAdmin(ctx context.Context) (entity.Session, error) {
	s, err := d.requireSession(ctx)
	if err != nil {
		return s, err
	}
	if !session.IsAdmin(s.User) {
		return s, fmt.Errorf("%w: admin session required", entity.ErrForbidden)
	}
	return s, nil
}

func errorNotice(err error, fallback string) entity.Notice {
	return entity.Notice{Kind: entity.NoticeError, Message: entity.UserMessage(err, fallback), Err: err}
}

func successNotice(msg string) entity.Notice {
	return entity.Notice{Kind: entity.NoticeSuccess, Message: msg}
}
