// Package sandbox is an in-memory stand-in for the remote event/booking API.
// It backs cmd/sandbox and the client tests; nothing in it is persisted.
package sandbox

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	user         entity.User
	passwordHash []byte
}

type bookingRecord struct {
	id       string
	eventID  string
	userID   string
	quantity int
	status   entity.BookingStatus
}

// State owns accounts, events and bookings. Unlike the client, it is the
// authority on capacity: canceling a booking gives its seats back.
type State struct {
	mu       sync.RWMutex
	pageSize int
	accounts map[string]*account
	emails   map[string]string
	events   []*entity.Event
	bookings []*bookingRecord
}

func NewState(pageSize int) *State {
	if pageSize < 1 {
		pageSize = 5
	}
	return &State{
		pageSize: pageSize,
		accounts: make(map[string]*account),
		emails:   make(map[string]string),
	}
}

func paginate[T any](items []T, page, size int) ([]T, int) {
	total := (len(items) + size - 1) / size
	start := (max(page, 1) - 1) * size
	if start >= len(items) {
		return []T{}, total
	}
	return items[start:min(start+size, len(items))], total
}

// Register creates an account. admin is only ever set by the sandbox itself.
func (s *State) Register(reg entity.Registration, admin bool) (entity.User, error) {
	if err := reg.Validate(); err != nil {
		return entity.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return entity.User{}, fmt.Errorf("hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(reg.Email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[email]; taken {
		return entity.User{}, ErrEmailTaken
	}
	u := entity.User{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(reg.Name),
		Email:   email,
		IsAdmin: admin,
	}
	s.accounts[u.ID] = &account{user: u, passwordHash: hash}
	s.emails[email] = u.ID
	return u, nil
}

func (s *State) Authenticate(creds entity.Credentials) (entity.User, error) {
	if err := creds.Validate(); err != nil {
		return entity.User{}, err
	}

	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(creds.Email))]
	var acc account
	if ok {
		acc = *s.accounts[id]
	}
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(creds.Password)) != nil {
		return entity.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

func (s *State) User(id string) (entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return entity.User{}, ErrUserNotFound
	}
	return acc.user, nil
}

func (s *State) Rename(id, name string) (entity.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.User{}, entity.NewValidationError("name", "name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return entity.User{}, ErrUserNotFound
	}
	acc.user.Name = name
	return acc.user, nil
}

func (s *State) ListEvents(page int) entity.Page[entity.Event] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window, total := paginate(s.events, page, s.pageSize)
	items := make([]entity.Event, 0, len(window))
	for _, ev := range window {
		items = append(items, ev.Clone())
	}
	return entity.Page[entity.Event]{Items: items, TotalPages: total}
}

func (s *State) Event(id string) (entity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev := s.findEvent(id)
	if ev == nil {
		return entity.Event{}, ErrEventNotFound
	}
	return ev.Clone(), nil
}

func (s *State) findEvent(id string) *entity.Event {
	for _, ev := range s.events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

func validateEventInput(in entity.EventInput) (entity.Date, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Location) == "" || strings.TrimSpace(in.Date) == "" {
		return entity.Date{}, entity.NewValidationError("", "all fields are required")
	}
	if in.Capacity < 0 {
		return entity.Date{}, entity.NewValidationError("capacity", "must not be negative")
	}
	date, err := entity.ParseDate(in.Date)
	if err != nil {
		return entity.Date{}, entity.NewValidationError("date", "invalid date")
	}
	return date, nil
}

func (s *State) CreateEvent(in entity.EventInput) (entity.Event, error) {
	date, err := validateEventInput(in)
	if err != nil {
		return entity.Event{}, err
	}
	ev := &entity.Event{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Date:        date,
		Capacity:    in.Capacity,
		Attendees:   []string{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return ev.Clone(), nil
}

// UpdateEvent rewrites the descriptive fields and the remaining capacity.
// Attendees are kept.
func (s *State) UpdateEvent(id string, in entity.EventInput) (entity.Event, error) {
	date, err := validateEventInput(in)
	if err != nil {
		return entity.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.findEvent(id)
	if ev == nil {
		return entity.Event{}, ErrEventNotFound
	}
	ev.Title = strings.TrimSpace(in.Title)
	ev.Description = strings.TrimSpace(in.Description)
	ev.Location = strings.TrimSpace(in.Location)
	ev.Date = date
	ev.Capacity = in.Capacity
	return ev.Clone(), nil
}

// DeleteEvent removes the event. Its bookings survive with a null event.
func (s *State) DeleteEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.events, func(ev *entity.Event) bool { return ev.ID == id })
	if i < 0 {
		return ErrEventNotFound
	}
	s.events = slices.Delete(s.events, i, i+1)
	return nil
}

// Book reserves quantity seats for userID.
func (s *State) Book(userID, eventID string, quantity int) (entity.Booking, error) {
	if quantity < 1 {
		return entity.Booking{}, entity.NewValidationError("quantity", "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; !ok {
		return entity.Booking{}, ErrUserNotFound
	}
	ev := s.findEvent(eventID)
	if ev == nil {
		return entity.Booking{}, ErrEventNotFound
	}
	if quantity > ev.Capacity {
		return entity.Booking{}, ErrNotEnoughSeats
	}

	takeSeats(ev, userID, quantity)
	rec := &bookingRecord{
		id:       uuid.NewString(),
		eventID:  eventID,
		userID:   userID,
		quantity: quantity,
		status:   entity.BookingStatusConfirmed,
	}
	s.bookings = append(s.bookings, rec)
	return s.viewLocked(rec), nil
}

func takeSeats(ev *entity.Event, userID string, quantity int) {
	ev.Capacity -= quantity
	for range quantity {
		ev.Attendees = append(ev.Attendees, userID)
	}
}

func releaseSeats(ev *entity.Event, userID string, quantity int) {
	ev.Capacity += quantity
	for range quantity {
		i := slices.Index(ev.Attendees, userID)
		if i < 0 {
			return
		}
		ev.Attendees = slices.Delete(ev.Attendees, i, i+1)
	}
}

// ListBookings pages through every booking when userID is empty, else
// through that user's bookings only.
func (s *State) ListBookings(page int, userID string) entity.Page[entity.Booking] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.bookings
	if userID != "" {
		recs = make([]*bookingRecord, 0, len(s.bookings))
		for _, rec := range s.bookings {
			if rec.userID == userID {
				recs = append(recs, rec)
			}
		}
	}

	window, total := paginate(recs, page, s.pageSize)
	items := make([]entity.Booking, 0, len(window))
	for _, rec := range window {
		items = append(items, s.viewLocked(rec))
	}
	return entity.Page[entity.Booking]{Items: items, TotalPages: total}
}

// SetBookingStatus moves a booking between confirmed and canceled. The
// owner may only cancel; admins may go both ways. Seats follow the status.
func (s *State) SetBookingStatus(actor entity.User, id string, status entity.BookingStatus) (entity.Booking, error) {
	if !status.Valid() {
		return entity.Booking{}, entity.NewValidationError("status", "invalid status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.findBooking(id)
	if rec == nil {
		return entity.Booking{}, ErrBookingNotFound
	}
	if !actor.IsAdmin && (rec.userID != actor.ID || status != entity.BookingStatusCanceled) {
		return entity.Booking{}, ErrNotOwner
	}
	if rec.status == status {
		return s.viewLocked(rec), nil
	}

	if ev := s.findEvent(rec.eventID); ev != nil {
		switch status {
		case entity.BookingStatusCanceled:
			releaseSeats(ev, rec.userID, rec.quantity)
		case entity.BookingStatusConfirmed:
			if rec.quantity > ev.Capacity {
				return entity.Booking{}, ErrNotEnoughSeats
			}
			takeSeats(ev, rec.userID, rec.quantity)
		}
	}
	rec.status = status
	return s.viewLocked(rec), nil
}

// DeleteBooking removes the record and frees its seats if it still held any.
func (s *State) DeleteBooking(actor entity.User, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.bookings, func(rec *bookingRecord) bool { return rec.id == id })
	if i < 0 {
		return ErrBookingNotFound
	}
	rec := s.bookings[i]
	if !actor.IsAdmin && rec.userID != actor.ID {
		return ErrNotOwner
	}
	if rec.status == entity.BookingStatusConfirmed {
		if ev := s.findEvent(rec.eventID); ev != nil {
			releaseSeats(ev, rec.userID, rec.quantity)
		}
	}
	s.bookings = slices.Delete(s.bookings, i, i+1)
	return nil
}

func (s *State) findBooking(id string) *bookingRecord {
	for _, rec := range s.bookings {
		if rec.id == id {
			return rec
		}
	}
	return nil
}

// viewLocked renders a record the way the API populates it: the event as it
// is now (nil once deleted) and the owner's id and name.
func (s *State) viewLocked(rec *bookingRecord) entity.Booking {
	b := entity.Booking{
		ID:       rec.id,
		Quantity: rec.quantity,
		Status:   rec.status,
		User:     &entity.BookingUser{ID: rec.userID},
	}
	if ev := s.findEvent(rec.eventID); ev != nil {
		cp := ev.Clone()
		b.Event = &cp
	}
	if acc, ok := s.accounts[rec.userID]; ok {
		b.User.Name = acc.user.Name
	}
	return b
}

// Seed creates the admin account and, optionally, a handful of demo events.
func (s *State) Seed(adminEmail, adminPassword string, events bool) error {
	if adminEmail != "" {
		_, err := s.Register(entity.Registration{Name: "Admin", Email: adminEmail, Password: adminPassword}, true)
		if err != nil && !errors.Is(err, ErrEmailTaken) {
			return fmt.Errorf("seed admin: %w", err)
		}
	}
	if !events {
		return nil
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	demo := []entity.EventInput{
		{Title: "Go Meetup", Description: "Lightning talks and pizza", Location: "Brisbane", Capacity: 40},
		{Title: "Jazz Night", Description: "Live quartet", Location: "Fortitude Valley", Capacity: 120},
		{Title: "Hackathon", Description: "48 hours of building", Location: "QUT Gardens Point", Capacity: 60},
		{Title: "Book Club", Description: "This month: The Go Programming Language", Location: "State Library", Capacity: 15},
		{Title: "Startup Pitch", Description: "Ten teams, five minutes each", Location: "The Precinct", Capacity: 80},
		{Title: "Yoga in the Park", Description: "Bring your own mat", Location: "New Farm Park", Capacity: 25},
		{Title: "Film Screening", Description: "Outdoor cinema", Location: "South Bank", Capacity: 200},
	}
	for i, in := range demo {
		in.Date = start.AddDate(0, 0, 7*(i+1)).Format(entity.DayLayout)
		if _, err := s.CreateEvent(in); err != nil {
			return fmt.Errorf("seed event %q: %w", in.Title, err)
		}
	}
	return nil
}
