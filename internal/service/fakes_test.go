package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ds124wfegd/eventhive/internal/database"
	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/ds124wfegd/eventhive/internal/session"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a scripted remote: list pages are served from fixed slices,
// every call is counted and any operation can be made to fail.
type fakeAPI struct {
	mu         sync.Mutex
	events     []entity.Event
	bookings   []entity.Booking
	totalPages int
	calls      map[string]int
	pages      map[string][]int
	errs       map[string]error
	scopes     []entity.BookingScope

	// statusHook, when set, answers UpdateBookingStatus instead of errs.
	statusHook func(id string, status entity.BookingStatus) error
	// bookHook runs before CreateBooking answers.
	bookHook func(eventID string, quantity int) error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		totalPages: 1,
		calls:      make(map[string]int),
		pages:      make(map[string][]int),
		errs:       make(map[string]error),
	}
}

func (f *fakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

func (f *fakeAPI) ListEvents(_ context.Context, page int) (entity.Page[entity.Event], error) {
	if err := f.record("ListEvents"); err != nil {
		return entity.Page[entity.Event]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages["ListEvents"] = append(f.pages["ListEvents"], page)
	items := make([]entity.Event, 0, len(f.events))
	for _, ev := range f.events {
		items = append(items, ev.Clone())
	}
	return entity.Page[entity.Event]{Items: items, TotalPages: f.totalPages}, nil
}

func (f *fakeAPI) GetEvent(_ context.Context, id string) (entity.Event, error) {
	if err := f.record("GetEvent"); err != nil {
		return entity.Event{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.ID == id {
			return ev.Clone(), nil
		}
	}
	return entity.Event{}, &entity.RemoteError{StatusCode: 404, Message: "Event not found"}
}

func (f *fakeAPI) CreateEvent(_ context.Context, in entity.EventInput) (entity.Event, error) {
	if err := f.record("CreateEvent"); err != nil {
		return entity.Event{}, err
	}
	date, _ := entity.ParseDate(in.Date)
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := entity.Event{ID: fmt.Sprintf("e%d", len(f.events)+1), Title: in.Title, Description: in.Description,
		Location: in.Location, Date: date, Capacity: in.Capacity}
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeAPI) UpdateEvent(_ context.Context, id string, in entity.EventInput) (entity.Event, error) {
	if err := f.record("UpdateEvent"); err != nil {
		return entity.Event{}, err
	}
	return entity.Event{ID: id, Title: in.Title, Capacity: in.Capacity}, nil
}

func (f *fakeAPI) DeleteEvent(_ context.Context, id string) error {
	return f.record("DeleteEvent")
}

func (f *fakeAPI) CreateBooking(_ context.Context, eventID string, quantity int) (entity.Booking, error) {
	if err := f.record("CreateBooking"); err != nil {
		return entity.Booking{}, err
	}
	f.mu.Lock()
	hook := f.bookHook
	f.mu.Unlock()
	if hook != nil {
		if err := hook(eventID, quantity); err != nil {
			return entity.Booking{}, err
		}
	}
	return entity.Booking{ID: "b-new", Event: &entity.Event{ID: eventID}, Quantity: quantity, Status: entity.BookingStatusConfirmed}, nil
}

func (f *fakeAPI) ListBookings(_ context.Context, page int, scope entity.BookingScope) (entity.Page[entity.Booking], error) {
	if err := f.record("ListBookings"); err != nil {
		return entity.Page[entity.Booking]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages["ListBookings"] = append(f.pages["ListBookings"], page)
	f.scopes = append(f.scopes, scope)
	items := make([]entity.Booking, 0, len(f.bookings))
	for _, b := range f.bookings {
		items = append(items, b.Clone())
	}
	return entity.Page[entity.Booking]{Items: items, TotalPages: f.totalPages}, nil
}

func (f *fakeAPI) UpdateBookingStatus(_ context.Context, id string, status entity.BookingStatus) error {
	err := f.record("UpdateBookingStatus")
	f.mu.Lock()
	hook := f.statusHook
	f.mu.Unlock()
	if hook != nil {
		return hook(id, status)
	}
	return err
}

func (f *fakeAPI) DeleteBooking(_ context.Context, id string) error {
	return f.record("DeleteBooking")
}

func (f *fakeAPI) Register(_ context.Context, reg entity.Registration) (entity.Session, error) {
	if err := f.record("Register"); err != nil {
		return entity.Session{}, err
	}
	return entity.Session{Token: "tok-" + reg.Email, User: entity.User{ID: "u-new", Name: reg.Name, Email: reg.Email}}, nil
}

func (f *fakeAPI) Login(_ context.Context, creds entity.Credentials) (entity.Session, error) {
	if err := f.record("Login"); err != nil {
		return entity.Session{}, err
	}
	return entity.Session{Token: "tok", User: entity.User{ID: "u1", Email: creds.Email}}, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, name string) (entity.User, error) {
	if err := f.record("UpdateProfile"); err != nil {
		return entity.User{}, err
	}
	return entity.User{ID: "u1", Name: name}, nil
}

type noticeLog struct {
	mu      sync.Mutex
	notices []entity.Notice
}

func (l *noticeLog) Notify(n entity.Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) last() entity.Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.notices) == 0 {
		return entity.Notice{}
	}
	return l.notices[len(l.notices)-1]
}

type fixture struct {
	api     *fakeAPI
	session *session.Context
	nav     *navigation.Recorder
	notices *noticeLog
	deps    Deps
}

// newFixture logs in userID; admin selects the admin flag. An empty userID
// leaves the session logged out.
func newFixture(t *testing.T, userID string, admin bool) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	sess := session.New(database.NewMemoryStore(), logger)
	if userID != "" {
		require.NoError(t, sess.Save(context.Background(), entity.Session{
			Token: "tok",
			User:  entity.User{ID: userID, Name: "Test", IsAdmin: admin},
		}))
	}
	f := &fixture{
		api:     newFakeAPI(),
		session: sess,
		nav:     navigation.NewRecorder(),
		notices: &noticeLog{},
	}
	f.deps = Deps{Session: sess, Navigator: f.nav, Notices: f.notices, Log: logger}
	return f
}
