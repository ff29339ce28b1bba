package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ds124wfegd/eventhive/internal/entity"
)

type bookingsPage struct {
	Bookings   []entity.Booking `json:"bookings"`
	TotalPages int              `json:"totalPages"`
}

type createBookingRequest struct {
	EventID  string `json:"eventId"`
	Quantity int    `json:"quantity"`
}

type statusRequest struct {
	Status entity.BookingStatus `json:"status"`
}

func (c *Client) CreateBooking(ctx context.Context, eventID string, quantity int) (entity.Booking, error) {
	var b entity.Booking
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "bookings",
		body:   createBookingRequest{EventID: eventID, Quantity: quantity},
	}, &b)
	return b, err
}

// ListBookings reads every booking for BookingScopeAll (admin) and the
// caller's own otherwise.
func (c *Client) ListBookings(ctx context.Context, page int, scope entity.BookingScope) (entity.Page[entity.Booking], error) {
	path := "users/bookings"
	if scope == entity.BookingScopeAll {
		path = "bookings"
	}

	var res bookingsPage
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: pageQuery(page)}, &res); err != nil {
		return entity.Page[entity.Booking]{}, err
	}
	return entity.Page[entity.Booking]{Items: res.Bookings, TotalPages: res.TotalPages}, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, id string, status entity.BookingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", entity.ErrInvalidBookingStatus, status)
	}
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "bookings/" + url.PathEscape(id),
		body:   statusRequest{Status: status},
	}, nil)
}

func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "bookings/" + url.PathEscape(id)}, nil)
}
