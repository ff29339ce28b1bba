package service

import (
	"context"
	"slices"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/ds124wfegd/eventhive/internal/pager"
	"github.com/sirupsen/logrus"
)

type eventCatalog struct {
	api    EventsAPI
	deps   Deps
	log    logrus.FieldLogger
	cursor *pager.Cursor[entity.Event]
}

// NewEventCatalog создает ленту мероприятий
func NewEventCatalog(api EventsAPI, deps Deps) EventCatalog {
	c := &eventCatalog{
		api:  api,
		deps: deps,
		log:  deps.logger().WithField("screen", "events"),
	}
	c.cursor = pager.New(c.fetch,
		pager.WithName("events"),
		pager.WithLogger(c.log),
		pager.WithNoticeHandler(deps.notify),
	)
	return c
}

func (c *eventCatalog) fetch(ctx context.Context, page int) (entity.Page[entity.Event], error) {
	if _, err := c.deps.requireSession(ctx); err != nil {
		return entity.Page[entity.Event]{}, err
	}
	res, err := c.api.ListEvents(ctx, page)
	return res, c.deps.redirectOnAuth(err)
}

func (c *eventCatalog) List(ctx context.Context, page int) (pager.State[entity.Event], error) {
	return c.cursor.Load(ctx, page)
}

func (c *eventCatalog) GoToPage(ctx context.Context, n int) (pager.State[entity.Event], error) {
	return c.cursor.GoToPage(ctx, n)
}

func (c *eventCatalog) Next(ctx context.Context) (pager.State[entity.Event], error) {
	return c.cursor.Next(ctx)
}

func (c *eventCatalog) Prev(ctx context.Context) (pager.State[entity.Event], error) {
	return c.cursor.Prev(ctx)
}

func (c *eventCatalog) Refresh(ctx context.Context) (pager.State[entity.Event], error) {
	return c.cursor.Refresh(ctx)
}

func (c *eventCatalog) State() pager.State[entity.Event] {
	return c.cursor.State()
}

// Get fetches one event, used to pre-fill the edit form.
func (c *eventCatalog) Get(ctx context.Context, id string) (entity.Event, error) {
	if _, err := c.deps.requireSession(ctx); err != nil {
		return entity.Event{}, err
	}
	ev, err := c.api.GetEvent(ctx, id)
	if err != nil {
		c.report(errorNotice(c.deps.redirectOnAuth(err), "Could not load event."))
		return entity.Event{}, err
	}
	return ev, nil
}

func (c *eventCatalog) Create(ctx context.Context, fields entity.EventFields) (entity.Event, error) {
	return c.save(ctx, "", fields)
}

func (c *eventCatalog) Update(ctx context.Context, id string, fields entity.EventFields) (entity.Event, error) {
	return c.save(ctx, id, fields)
}

// save validates before anything is sent, then returns to the feed and
// re-syncs it from page 1.
func (c *eventCatalog) save(ctx context.Context, id string, fields entity.EventFields) (entity.Event, error) {
	if _, err := c.deps.requireAdmin(ctx); err != nil {
		return entity.Event{}, err
	}
	in, err := fields.Validate()
	if err != nil {
		c.report(errorNotice(err, "All fields are required"))
		return entity.Event{}, err
	}

	var ev entity.Event
	msg := "Event created"
	if id == "" {
		ev, err = c.api.CreateEvent(ctx, in)
	} else {
		ev, err = c.api.UpdateEvent(ctx, id, in)
		msg = "Event updated"
	}
	if err != nil {
		c.log.WithFields(logrus.Fields{"event_id": id}).WithError(err).Warn("Event save failed")
		c.report(errorNotice(c.deps.redirectOnAuth(err), "Failed to save event"))
		return entity.Event{}, err
	}
	if c.cursor.Closed() {
		return ev, nil
	}

	c.log.WithField("event_id", ev.ID).Info(msg)
	if c.deps.Navigator != nil {
		c.deps.Navigator.Replace(navigation.RouteHome, nil)
	}
	if _, err := c.cursor.Refresh(ctx); err != nil {
		return ev, nil // the failed refresh already left its own notice
	}
	c.report(successNotice(msg))
	return ev, nil
}

// Delete removes the event from the displayed page first and puts it back
// at its old position if the server refuses.
func (c *eventCatalog) Delete(ctx context.Context, id string) error {
	if _, err := c.deps.requireAdmin(ctx); err != nil {
		return err
	}

	index := -1
	var snapshot entity.Event
	c.cursor.Update(func(items []entity.Event) []entity.Event {
		index = slices.IndexFunc(items, func(ev entity.Event) bool { return ev.ID == id })
		if index < 0 {
			return items
		}
		snapshot = items[index].Clone()
		return slices.Delete(items, index, index+1)
	})

	log := c.log.WithField("event_id", id)
	err := c.api.DeleteEvent(ctx, id)
	if err != nil {
		if index >= 0 {
			c.cursor.Update(func(items []entity.Event) []entity.Event {
				// a reload in the meantime may already have brought it back
				if slices.ContainsFunc(items, func(ev entity.Event) bool { return ev.ID == id }) {
					return items
				}
				return slices.Insert(items, min(index, len(items)), snapshot)
			})
		}
		log.WithError(err).Warn("Event delete failed, restored")
		c.report(errorNotice(c.deps.redirectOnAuth(err), "Failed to delete event"))
		return err
	}

	log.Info("Event deleted")
	c.report(successNotice("Event deleted"))
	return nil
}

// Reconcile is the focus hook: re-read the session and the page on screen.
func (c *eventCatalog) Reconcile(ctx context.Context) error {
	if c.cursor.Closed() {
		return entity.ErrClosed
	}
	if c.deps.Session != nil {
		if _, _, err := c.deps.Session.Refresh(ctx); err != nil {
			return err
		}
	}
	_, err := c.cursor.Reload(ctx)
	return err
}

func (c *eventCatalog) Close() {
	c.cursor.Close()
}

func (c *eventCatalog) report(n entity.Notice) {
	if c.cursor.Closed() {
		return
	}
	c.cursor.SetNotice(&n)
	c.deps.notify(n)
}
