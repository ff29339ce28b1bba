package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/pager"
	"github.com/ds124wfegd/eventhive/internal/session"
	"github.com/sirupsen/logrus"
)

// statusWrite is an optimistic status change waiting for its response.
type statusWrite struct {
	prev   entity.BookingStatus
	target entity.BookingStatus
}

type bookingEngine struct {
	api    BookingsAPI
	deps   Deps
	log    logrus.FieldLogger
	cursor *pager.Cursor[entity.Booking]

	mu       sync.Mutex
	scope    entity.BookingScope
	inflight map[string][]*statusWrite // per booking, in issue order
}

// NewBookingEngine создает экран бронирований
func NewBookingEngine(api BookingsAPI, deps Deps) BookingEngine {
	e := &bookingEngine{
		api:      api,
		deps:     deps,
		log:      deps.logger().WithField("screen", "bookings"),
		scope:    entity.BookingScopeOwn,
		inflight: make(map[string][]*statusWrite),
	}
	e.cursor = pager.New(e.fetch,
		pager.WithName("bookings"),
		pager.WithLogger(e.log),
		pager.WithNoticeHandler(deps.notify),
	)
	return e
}

// fetch picks the endpoint from the cached admin flag on every load, so a
// new login on the same screen switches between own and all bookings.
func (e *bookingEngine) fetch(ctx context.Context, page int) (entity.Page[entity.Booking], error) {
	s, err := e.deps.requireSession(ctx)
	if err != nil {
		return entity.Page[entity.Booking]{}, err
	}
	scope := entity.BookingScopeOwn
	if session.IsAdmin(s.User) {
		scope = entity.BookingScopeAll
	}

	e.mu.Lock()
	e.scope = scope
	e.mu.Unlock()

	res, err := e.api.ListBookings(ctx, page, scope)
	return res, e.deps.redirectOnAuth(err)
}

func (e *bookingEngine) List(ctx context.Context, page int) (pager.State[entity.Booking], error) {
	return e.cursor.Load(ctx, page)
}

func (e *bookingEngine) GoToPage(ctx context.Context, n int) (pager.State[entity.Booking], error) {
	return e.cursor.GoToPage(ctx, n)
}

func (e *bookingEngine) Next(ctx context.Context) (pager.State[entity.Booking], error) {
	return e.cursor.Next(ctx)
}

func (e *bookingEngine) Prev(ctx context.Context) (pager.State[entity.Booking], error) {
	return e.cursor.Prev(ctx)
}

func (e *bookingEngine) Refresh(ctx context.Context) (pager.State[entity.Booking], error) {
	return e.cursor.Refresh(ctx)
}

func (e *bookingEngine) State() pager.State[entity.Booking] {
	return e.cursor.State()
}

func (e *bookingEngine) Scope() entity.BookingScope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope
}

// Cancel moves a confirmed booking to canceled. Seats are not given back
// in the cached event data; the next refresh brings the server's numbers.
func (e *bookingEngine) Cancel(ctx context.Context, id string) error {
	if _, err := e.deps.requireSession(ctx); err != nil {
		return err
	}
	current, ok := e.statusOf(id)
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrBookingNotInList, id)
	}
	if current == entity.BookingStatusCanceled {
		return nil
	}
	return e.setStatus(ctx, id, entity.BookingStatusCanceled, "Booking canceled", "Could not cancel booking.")
}

// Toggle flips the status, admin only. Every call goes to the server, two
// toggles are two requests.
func (e *bookingEngine) Toggle(ctx context.Context, id string) error {
	if _, err := e.deps.requireAdmin(ctx); err != nil {
		return err
	}
	current, ok := e.statusOf(id)
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrBookingNotInList, id)
	}
	target := current.Opposite()
	return e.setStatus(ctx, id, target, "Booking "+string(target), "Status update failed.")
}

func (e *bookingEngine) statusOf(id string) (entity.BookingStatus, bool) {
	st := e.cursor.State()
	i := slices.IndexFunc(st.Items, func(b entity.Booking) bool { return b.ID == id })
	if i < 0 {
		return "", false
	}
	return st.Items[i].Status, true
}

// setStatus writes target locally, then asks the server. On failure the
// item goes back to the status it had before, unless something else has
// written it since. A failed write that is not the latest hands its
// previous status to the next one, so their rollback lands on server truth.
func (e *bookingEngine) setStatus(ctx context.Context, id string, target entity.BookingStatus, okMsg, failMsg string) error {
	w := &statusWrite{target: target}
	found := false
	e.mu.Lock()
	e.cursor.Update(func(items []entity.Booking) []entity.Booking {
		for i := range items {
			if items[i].ID == id {
				w.prev = items[i].Status
				items[i].Status = target
				found = true
			}
		}
		return items
	})
	if !found {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", entity.ErrBookingNotInList, id)
	}
	e.inflight[id] = append(e.inflight[id], w)
	e.mu.Unlock()

	log := e.log.WithFields(logrus.Fields{"booking_id": id, "status": target})
	err := e.api.UpdateBookingStatus(ctx, id, target)

	e.mu.Lock()
	queue := e.inflight[id]
	pos := slices.Index(queue, w)
	if err != nil {
		if pos == len(queue)-1 {
			e.cursor.Update(func(items []entity.Booking) []entity.Booking {
				for i := range items {
					if items[i].ID == id && items[i].Status == w.target {
						items[i].Status = w.prev
					}
				}
				return items
			})
		} else if pos >= 0 {
			queue[pos+1].prev = w.prev
		}
	}
	if pos >= 0 {
		queue = slices.Delete(queue, pos, pos+1)
	}
	if len(queue) == 0 {
		delete(e.inflight, id)
	} else {
		e.inflight[id] = queue
	}
	e.mu.Unlock()

	if err != nil {
		log.WithError(err).Warn("Status update failed, rolled back")
		e.report(errorNotice(e.deps.redirectOnAuth(err), failMsg))
		return err
	}
	log.Info("Booking status updated")
	e.report(successNotice(okMsg))
	return nil
}

// Delete is cancellation by removal: the booking leaves the page at once
// and comes back at its old position if the server refuses.
func (e *bookingEngine) Delete(ctx context.Context, id string) error {
	if _, err := e.deps.requireSession(ctx); err != nil {
		return err
	}

	index := -1
	var snapshot entity.Booking
	e.cursor.Update(func(items []entity.Booking) []entity.Booking {
		index = slices.IndexFunc(items, func(b entity.Booking) bool { return b.ID == id })
		if index < 0 {
			return items
		}
		snapshot = items[index].Clone()
		return slices.Delete(items, index, index+1)
	})
	if index < 0 {
		return fmt.Errorf("%w: %s", entity.ErrBookingNotInList, id)
	}

	log := e.log.WithField("booking_id", id)
	if err := e.api.DeleteBooking(ctx, id); err != nil {
		e.cursor.Update(func(items []entity.Booking) []entity.Booking {
			if slices.ContainsFunc(items, func(b entity.Booking) bool { return b.ID == id }) {
				return items
			}
			return slices.Insert(items, min(index, len(items)), snapshot)
		})
		log.WithError(err).Warn("Booking delete failed, restored")
		e.report(errorNotice(e.deps.redirectOnAuth(err), "Could not cancel booking."))
		return err
	}

	log.Info("Booking deleted")
	e.report(successNotice("Booking deleted"))
	return nil
}

// Reconcile is the focus hook: a full authoritative refetch of the current
// page overwrites every optimistic edit.
func (e *bookingEngine) Reconcile(ctx context.Context) error {
	if e.cursor.Closed() {
		return entity.ErrClosed
	}
	if e.deps.Session != nil {
		if _, _, err := e.deps.Session.Refresh(ctx); err != nil {
			return err
		}
	}
	_, err := e.cursor.Reload(ctx)
	return err
}

func (e *bookingEngine) Close() {
	e.cursor.Close()
}

func (e *bookingEngine) report(n entity.Notice) {
	if e.cursor.Closed() {
		return
	}
	e.cursor.SetNotice(&n)
	e.deps.notify(n)
}
