package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/sirupsen/logrus"
)

// DetailAPI is what the event screen needs: the event and the booking call.
type DetailAPI interface {
	GetEvent(ctx context.Context, id string) (entity.Event, error)
	CreateBooking(ctx context.Context, eventID string, quantity int) (entity.Booking, error)
}

// eventDetail caches one event. Its capacity is this screen's own copy:
// another screen showing the same event refetches independently.
type eventDetail struct {
	api  DetailAPI
	deps Deps
	log  logrus.FieldLogger
	id   string
	from navigation.Provenance

	mu      sync.Mutex
	event   *entity.Event
	userID  string
	notice  *entity.Notice
	gen     uint64
	pending int // seats held by bookings still in flight
	closed  bool
}

func NewEventDetail(api DetailAPI, deps Deps, eventID string, from navigation.Provenance) EventDetail {
	return &eventDetail{
		api:  api,
		deps: deps,
		log:  deps.logger().WithFields(logrus.Fields{"screen": "event", "event_id": eventID}),
		id:   eventID,
		from: from,
	}
}

// ParseQuantity reads the seat count typed by the user.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || q < 1 {
		return 0, fmt.Errorf("%w: %q", entity.ErrInvalidQuantity, raw)
	}
	return q, nil
}

// Load fetches the event. A failed load keeps whatever was shown before.
func (d *eventDetail) Load(ctx context.Context) (entity.Event, error) {
	s, err := d.deps.requireSession(ctx)
	if err != nil {
		return entity.Event{}, err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return entity.Event{}, entity.ErrClosed
	}
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	ev, err := d.api.GetEvent(ctx, d.id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return entity.Event{}, entity.ErrClosed
	}
	if gen != d.gen {
		// superseded by a later load
		if d.event == nil {
			return entity.Event{}, entity.ErrEventNotLoaded
		}
		return d.event.Clone(), nil
	}
	if err != nil {
		d.setNoticeLocked(errorNotice(d.deps.redirectOnAuth(err), "Could not load event."))
		d.log.WithError(err).Warn("Event load failed")
		return entity.Event{}, err
	}

	d.event = &ev
	d.userID = s.User.ID
	d.notice = nil
	return ev.Clone(), nil
}

func (d *eventDetail) Event() (entity.Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.event == nil {
		return entity.Event{}, false
	}
	return d.event.Clone(), true
}

// Book reserves quantity seats. The guard runs on the cached capacity less
// the seats of bookings still in flight and issues no request when it fails;
// the cache is only touched once the server accepted the booking.
func (d *eventDetail) Book(ctx context.Context, quantity int) (entity.Booking, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return entity.Booking{}, entity.ErrClosed
	}
	if d.event == nil {
		d.mu.Unlock()
		return entity.Booking{}, entity.ErrEventNotLoaded
	}
	if err := checkQuantity(quantity, d.event.Capacity-d.pending); err != nil {
		d.setNoticeLocked(errorNotice(err, err.Error()))
		d.mu.Unlock()
		return entity.Booking{}, err
	}
	d.pending += quantity
	d.mu.Unlock()

	s, err := d.deps.requireSession(ctx)
	if err != nil {
		d.mu.Lock()
		d.pending -= quantity
		d.mu.Unlock()
		return entity.Booking{}, err
	}

	log := d.log.WithField("quantity", quantity)
	booking, err := d.api.CreateBooking(ctx, d.id, quantity)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending -= quantity
	if d.closed {
		log.Debug("Booking resolved after close, cache left alone")
		return booking, err
	}
	if err != nil {
		d.setNoticeLocked(errorNotice(d.deps.redirectOnAuth(err), "Booking failed. Please try again."))
		log.WithError(err).Warn("Booking failed")
		return entity.Booking{}, err
	}

	if d.event != nil {
		d.event.Capacity = max(0, d.event.Capacity-quantity)
		for range quantity {
			d.event.Attendees = append(d.event.Attendees, s.User.ID)
		}
	}
	d.userID = s.User.ID
	d.setNoticeLocked(successNotice("Booking confirmed"))
	log.WithField("booking_id", booking.ID).Info("Booking confirmed")
	return booking, nil
}

func checkQuantity(quantity, capacity int) error {
	if quantity < 1 {
		return entity.ErrInvalidQuantity
	}
	if quantity > capacity {
		return fmt.Errorf("%w: asked %d, %d left", entity.ErrQuantityExceedsCapacity, quantity, capacity)
	}
	return nil
}

// BookInput books from the raw text of the quantity field.
func (d *eventDetail) BookInput(ctx context.Context, raw string) (entity.Booking, error) {
	q, err := ParseQuantity(raw)
	if err != nil {
		d.mu.Lock()
		d.setNoticeLocked(errorNotice(err, entity.ErrInvalidQuantity.Error()))
		d.mu.Unlock()
		return entity.Booking{}, err
	}
	return d.Book(ctx, q)
}

// UserTickets counts the seats the session user holds on this event.
func (d *eventDetail) UserTickets() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.event == nil {
		return 0
	}
	return d.event.TicketsHeldBy(d.userID)
}

func (d *eventDetail) CanBook() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.event != nil && !d.event.SoldOut()
}

func (d *eventDetail) ShareMessage() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.event == nil {
		return "", entity.ErrEventNotLoaded
	}
	ev := d.event
	return fmt.Sprintf("📅 Check out this event on EventHive!\n\nTitle: %s\nLocation: %s\nDate: %s\n\n%s",
		ev.Title, ev.Location, ev.Date.Display(), ev.Description), nil
}

func (d *eventDetail) Notice() *entity.Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.notice == nil {
		return nil
	}
	n := *d.notice
	return &n
}

// Back returns to the list the screen was opened from.
func (d *eventDetail) Back() navigation.Route {
	route := navigation.BackRoute(d.from)
	if d.deps.Navigator != nil {
		d.deps.Navigator.Replace(route, nil)
	}
	return route
}

// Reconcile drops the locally adjusted capacity in favour of the server's.
func (d *eventDetail) Reconcile(ctx context.Context) error {
	if d.deps.Session != nil {
		if _, _, err := d.deps.Session.Refresh(ctx); err != nil {
			return err
		}
	}
	_, err := d.Load(ctx)
	return err
}

func (d *eventDetail) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *eventDetail) setNoticeLocked(n entity.Notice) {
	d.notice = &n
	d.deps.notify(n)
}
