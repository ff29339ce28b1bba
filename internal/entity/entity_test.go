package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantDay string
		wantErr bool
	}{
		{name: "plain day", input: "2025-06-01", wantDay: "2025-06-01"},
		{name: "rfc3339", input: "2025-06-01T18:30:00Z", wantDay: "2025-06-01"},
		{name: "rfc3339 with millis", input: "2025-06-01T18:30:00.000Z", wantDay: "2025-06-01"},
		{name: "datetime-local", input: "2025-06-01T18:30", wantDay: "2025-06-01"},
		{name: "surrounding spaces", input: "  2025-06-01 ", wantDay: "2025-06-01"},
		{name: "garbage", input: "next friday", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDay, d.Day())
		})
	}
}

func TestDateJSON(t *testing.T) {
	var ev Event
	err := json.Unmarshal([]byte(`{"_id":"e1","title":"Gig","date":"2025-06-01T00:00:00.000Z","capacity":5,"attendees":["u1","u1"]}`), &ev)
	require.NoError(t, err)
	assert.Equal(t, "e1", ev.ID)
	assert.Equal(t, "Sun Jun 01 2025", ev.Date.Display())
	assert.Equal(t, 2, ev.TicketsHeldBy("u1"))
	assert.Equal(t, 0, ev.TicketsHeldBy(""))

	out, err := json.Marshal(ev.Date)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-01T00:00:00Z"`, string(out))

	var empty Event
	require.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &empty))
	assert.True(t, empty.Date.IsZero())
	assert.Equal(t, "", empty.Date.Day())

	out, err = json.Marshal(empty.Date)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestEventClone(t *testing.T) {
	ev := Event{ID: "e1", Attendees: []string{"u1"}}
	cp := ev.Clone()
	cp.Attendees[0] = "u2"
	assert.Equal(t, "u1", ev.Attendees[0])
}

func TestEventFieldsValidate(t *testing.T) {
	valid := EventFields{
		Title:       " Gig ",
		Description: "Loud",
		Location:    "Hall",
		Date:        "2025-06-01",
		Capacity:    "40",
	}

	tests := []struct {
		name      string
		mutate    func(f *EventFields)
		wantField string
	}{
		{name: "valid", mutate: func(f *EventFields) {}},
		{name: "missing title", mutate: func(f *EventFields) { f.Title = "  " }, wantField: "title"},
		{name: "missing date", mutate: func(f *EventFields) { f.Date = "" }, wantField: "date"},
		{name: "capacity not a number", mutate: func(f *EventFields) { f.Capacity = "forty" }, wantField: "capacity"},
		{name: "negative capacity", mutate: func(f *EventFields) { f.Capacity = "-1" }, wantField: "capacity"},
		{name: "bad date", mutate: func(f *EventFields) { f.Date = "01/06/2025" }, wantField: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			in, err := f.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, EventInput{Title: "Gig", Description: "Loud", Location: "Hall", Date: "2025-06-01", Capacity: 40}, in)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestEventFieldsFromPrefillsForm(t *testing.T) {
	ev := Event{
		Title:       "Gig",
		Description: "Loud",
		Location:    "Hall",
		Date:        Date{Time: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		Capacity:    12,
	}
	f := EventFieldsFrom(ev)
	assert.Equal(t, "2025-06-01", f.Date)
	assert.Equal(t, "12", f.Capacity)

	in, err := f.Validate()
	require.NoError(t, err)
	assert.Equal(t, 12, in.Capacity)
}

func TestBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCanceled, s.Opposite())
	assert.Equal(t, s, s.Opposite().Opposite())

	_, err = ParseBookingStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidBookingStatus)
	assert.False(t, BookingStatus("pending").Valid())
}

func TestBookingHelpers(t *testing.T) {
	b := Booking{ID: "b1", Event: &Event{ID: "e1", Attendees: []string{"u1"}}, Quantity: 1}
	assert.True(t, b.HasEvent())
	assert.Equal(t, "Unknown", b.DisplayUserName())

	cp := b.Clone()
	cp.Event.Attendees[0] = "u9"
	assert.Equal(t, "u1", b.Event.Attendees[0])

	orphan := Booking{ID: "b2", User: &BookingUser{Name: "Ann"}}
	assert.False(t, orphan.HasEvent())
	assert.Equal(t, "Ann", orphan.DisplayUserName())
}

func TestUserAcceptsMongoID(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"u1","name":"Ann","isAdmin":true}`), &u))
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.IsAdmin)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"u2","_id":"ignored"}`), &u))
	assert.Equal(t, "u2", u.ID)
}

func TestRemoteErrorMatching(t *testing.T) {
	notFound := fmt.Errorf("get event: %w", &RemoteError{StatusCode: 404, Message: "Event not found"})
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.ErrorIs(t, notFound, ErrRemoteRejected)

	rejected := &RemoteError{StatusCode: 400}
	assert.NotErrorIs(t, rejected, ErrNotFound)
	assert.Contains(t, rejected.Error(), "400")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "remote message verbatim", err: &RemoteError{StatusCode: 400, Message: "Not enough seats"}, want: "Not enough seats"},
		{name: "remote without message", err: &RemoteError{StatusCode: 500}, want: "fallback"},
		{name: "validation", err: NewValidationError("title", "all fields are required"), want: "title: all fields are required"},
		{name: "quantity", err: fmt.Errorf("book: %w", ErrInvalidQuantity), want: "please enter a valid quantity"},
		{name: "capacity", err: ErrQuantityExceedsCapacity, want: "you cannot book more seats than available"},
		{name: "transport", err: fmt.Errorf("%w: reset", ErrTransport), want: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err, "fallback"))
		})
	}
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(fmt.Errorf("list: %w", ErrUnauthorized)))
	assert.False(t, IsAuthError(ErrForbidden))
	assert.False(t, IsAuthError(errors.New("other")))
}

func TestBookingDecodesUnpopulatedRefs(t *testing.T) {
	var b Booking
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"b1","event":"e1","user":"u1","quantity":2,"status":"confirmed"}`), &b))
	require.NotNil(t, b.Event)
	assert.Equal(t, "e1", b.Event.ID)
	assert.Equal(t, "u1", b.User.ID)
	assert.Equal(t, 2, b.Quantity)

	require.NoError(t, json.Unmarshal([]byte(`{"_id":"b2","event":{"_id":"e2","title":"Gig","capacity":3},"user":{"_id":"u2","name":"Ann"},"quantity":1,"status":"canceled"}`), &b))
	assert.Equal(t, "Gig", b.Event.Title)
	assert.Equal(t, "Ann", b.DisplayUserName())
	assert.Equal(t, BookingStatusCanceled, b.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"_id":"b3","event":null,"quantity":1,"status":"confirmed"}`), &b))
	assert.False(t, b.HasEvent())
	assert.Nil(t, b.User)
}

func TestRegistrationValidate(t *testing.T) {
	tests := []struct {
		name    string
		reg     Registration
		wantErr string
	}{
		{name: "ok", reg: Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1"}},
		{name: "missing name", reg: Registration{Email: "ann@example.com", Password: "secret1"}, wantErr: "all fields are required"},
		{name: "bad email", reg: Registration{Name: "Ann", Email: "ann@example", Password: "secret1"}, wantErr: "email: invalid email format"},
		{name: "short password", reg: Registration{Name: "Ann", Email: "ann@example.com", Password: "12345"}, wantErr: "password: password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}

	assert.ErrorIs(t, Credentials{Email: "ann@example.com"}.Validate(), ErrValidation)
	assert.NoError(t, Credentials{Email: "ann@example.com", Password: "x"}.Validate())
}
