package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCanceled  BookingStatus = "canceled"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingStatusConfirmed:
		return BookingStatusConfirmed, nil
	case BookingStatusCanceled:
		return BookingStatusCanceled, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidBookingStatus, s)
	}
}

func (s BookingStatus) Valid() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCanceled
}

// Opposite is the status the admin toggle flips to.
func (s BookingStatus) Opposite() BookingStatus {
	if s == BookingStatusConfirmed {
		return BookingStatusCanceled
	}
	return BookingStatusConfirmed
}

type BookingUser struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Booking embeds the event as it was when the list was fetched. It is a
// snapshot, not a live link to the catalog.
type Booking struct {
	ID       string        `json:"_id"`
	Event    *Event        `json:"event"`
	User     *BookingUser  `json:"user,omitempty"`
	Quantity int           `json:"quantity"`
	Status   BookingStatus `json:"status"`
}

// UnmarshalJSON also accepts unpopulated references, where event and user
// come back as bare ids instead of embedded documents.
func (b *Booking) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"_id"`
		Event    json.RawMessage `json:"event"`
		User     json.RawMessage `json:"user"`
		Quantity int             `json:"quantity"`
		Status   BookingStatus   `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Booking{ID: raw.ID, Quantity: raw.Quantity, Status: raw.Status}

	switch ref := bytes.TrimSpace(raw.Event); {
	case len(ref) == 0 || bytes.Equal(ref, []byte("null")):
	case ref[0] == '"':
		var id string
		if err := json.Unmarshal(ref, &id); err != nil {
			return err
		}
		b.Event = &Event{ID: id}
	default:
		b.Event = &Event{}
		if err := json.Unmarshal(ref, b.Event); err != nil {
			return fmt.Errorf("booking event: %w", err)
		}
	}

	switch ref := bytes.TrimSpace(raw.User); {
	case len(ref) == 0 || bytes.Equal(ref, []byte("null")):
	case ref[0] == '"':
		var id string
		if err := json.Unmarshal(ref, &id); err != nil {
			return err
		}
		b.User = &BookingUser{ID: id}
	default:
		b.User = &BookingUser{}
		if err := json.Unmarshal(ref, b.User); err != nil {
			return fmt.Errorf("booking user: %w", err)
		}
	}
	return nil
}

// HasEvent reports whether the event snapshot survived on the server side;
// bookings of deleted events come back with a null event.
func (b *Booking) HasEvent() bool {
	return b.Event != nil
}

func (b *Booking) DisplayUserName() string {
	if b.User == nil || b.User.Name == "" {
		return "Unknown"
	}
	return b.User.Name
}

func (b Booking) Clone() Booking {
	if b.Event != nil {
		ev := b.Event.Clone()
		b.Event = &ev
	}
	if b.User != nil {
		u := *b.User
		b.User = &u
	}
	return b
}

// BookingScope selects between the caller's bookings and every booking.
type BookingScope string

const (
	BookingScopeOwn BookingScope = "own"
	BookingScopeAll BookingScope = "all"
)
