package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ds124wfegd/eventhive/internal/entity"
)

type eventsPage struct {
	Events     []entity.Event `json:"events"`
	TotalPages int            `json:"totalPages"`
}

func (c *Client) ListEvents(ctx context.Context, page int) (entity.Page[entity.Event], error) {
	var res eventsPage
	err := c.do(ctx, request{method: http.MethodGet, path: "events", query: pageQuery(page)}, &res)
	if err != nil {
		return entity.Page[entity.Event]{}, err
	}
	return entity.Page[entity.Event]{Items: res.Events, TotalPages: res.TotalPages}, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (entity.Event, error) {
	var ev entity.Event
	err := c.do(ctx, request{method: http.MethodGet, path: "events/" + url.PathEscape(id)}, &ev)
	return ev, err
}

func (c *Client) CreateEvent(ctx context.Context, in entity.EventInput) (entity.Event, error) {
	var ev entity.Event
	err := c.do(ctx, request{method: http.MethodPost, path: "events", body: in}, &ev)
	return ev, err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in entity.EventInput) (entity.Event, error) {
	var ev entity.Event
	err := c.do(ctx, request{method: http.MethodPut, path: "events/" + url.PathEscape(id), body: in}, &ev)
	return ev, err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "events/" + url.PathEscape(id)}, nil)
}
