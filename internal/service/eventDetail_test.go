package service

import (
	"context"
	"testing"
	"time"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/ds124wfegd/eventhive/internal/navigation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoadedDetail(t *testing.T, f *fixture, ev entity.Event, from navigation.Provenance) EventDetail {
	t.Helper()
	f.api.events = append(f.api.events, ev)
	d := NewEventDetail(f.api, f.deps, ev.ID, from)
	_, err := d.Load(context.Background())
	require.NoError(t, err)
	return d
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "3", want: 3},
		{raw: " 12 ", want: 12},
		{raw: "", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-2", wantErr: true},
		{raw: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, err := ParseQuantity(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrInvalidQuantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestBookingAgainstCachedCapacity(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Title: "Gig", Capacity: 5, Attendees: []string{"u9"}}, navigation.FromHome)
	ctx := context.Background()

	booking, err := d.Book(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, booking.Quantity)

	ev, ok := d.Event()
	require.True(t, ok)
	assert.Equal(t, 2, ev.Capacity)
	assert.Len(t, ev.Attendees, 4)
	assert.Equal(t, 3, d.UserTickets())
	assert.Equal(t, 1, f.api.count("CreateBooking"))

	_, err = d.Book(ctx, 3)
	require.ErrorIs(t, err, entity.ErrQuantityExceedsCapacity)
	assert.Equal(t, 1, f.api.count("CreateBooking"), "rejected without a request")

	ev, _ = d.Event()
	assert.Equal(t, 2, ev.Capacity)
	require.NotNil(t, d.Notice())
	assert.Equal(t, "you cannot book more seats than available", d.Notice().Message)
}

func TestConcurrentBookingsHoldSeats(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Title: "Gig", Capacity: 5}, navigation.FromHome)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.bookHook = func(string, int) error {
		close(started)
		<-release
		return nil
	}

	errCh := make(chan error)
	go func() {
		_, err := d.Book(ctx, 3)
		errCh <- err
	}()
	<-started

	// three seats are held by the first booking
	_, err := d.Book(ctx, 3)
	require.ErrorIs(t, err, entity.ErrQuantityExceedsCapacity)
	assert.Equal(t, 1, f.api.count("CreateBooking"))

	close(release)
	require.NoError(t, <-errCh)

	ev, ok := d.Event()
	require.True(t, ok)
	assert.Equal(t, 2, ev.Capacity)
	assert.Len(t, ev.Attendees, 3)

	// held seats are released once the booking resolves
	f.api.bookHook = nil
	_, err = d.Book(ctx, 2)
	require.NoError(t, err)
	ev, _ = d.Event()
	assert.Equal(t, 0, ev.Capacity)
	assert.True(t, ev.SoldOut())
}

func TestFailedBookingReleasesHeldSeats(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Title: "Gig", Capacity: 3}, navigation.FromHome)
	ctx := context.Background()

	f.api.fail("CreateBooking", &entity.RemoteError{StatusCode: 500, Message: "db down"})
	_, err := d.Book(ctx, 3)
	require.Error(t, err)

	f.api.fail("CreateBooking", nil)
	_, err = d.Book(ctx, 3)
	require.NoError(t, err)
	ev, _ := d.Event()
	assert.Equal(t, 0, ev.Capacity)
}

func TestBookingNeverExceedsCapacity(t *testing.T) {
	for capacity := 0; capacity <= 4; capacity++ {
		for q := -1; q <= 6; q++ {
			f := newFixture(t, "u1", false)
			d := newLoadedDetail(t, f, entity.Event{ID: "e1", Capacity: capacity}, navigation.FromHome)

			_, err := d.Book(context.Background(), q)
			ev, _ := d.Event()
			if q >= 1 && q <= capacity {
				require.NoError(t, err)
				assert.Equal(t, capacity-q, ev.Capacity)
				assert.Len(t, ev.Attendees, q)
			} else {
				require.Error(t, err)
				assert.Equal(t, capacity, ev.Capacity)
				assert.Zero(t, f.api.count("CreateBooking"))
			}
			assert.GreaterOrEqual(t, ev.Capacity, 0)
		}
	}
}

func TestRejectedBookingLeavesCacheAlone(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Capacity: 5}, navigation.FromHome)
	f.api.fail("CreateBooking", &entity.RemoteError{StatusCode: 400, Message: "Not enough seats available"})

	_, err := d.Book(context.Background(), 2)
	require.ErrorIs(t, err, entity.ErrRemoteRejected)

	ev, _ := d.Event()
	assert.Equal(t, 5, ev.Capacity)
	assert.Empty(t, ev.Attendees)
	assert.Equal(t, 0, d.UserTickets())
	assert.Equal(t, "Not enough seats available", d.Notice().Message)
}

func TestBookingTransportFailureUsesFallback(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Capacity: 5}, navigation.FromHome)
	f.api.fail("CreateBooking", entity.ErrTransport)

	_, err := d.Book(context.Background(), 1)
	require.ErrorIs(t, err, entity.ErrTransport)
	assert.Equal(t, "Booking failed. Please try again.", d.Notice().Message)
}

func TestBookInput(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Capacity: 5}, navigation.FromHome)

	_, err := d.BookInput(context.Background(), "two")
	require.ErrorIs(t, err, entity.ErrInvalidQuantity)
	assert.Equal(t, "please enter a valid quantity", d.Notice().Message)
	assert.Zero(t, f.api.count("CreateBooking"))

	_, err = d.BookInput(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, 2, d.UserTickets())
}

func TestBookBeforeLoad(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := NewEventDetail(f.api, f.deps, "e1", navigation.FromHome)

	_, err := d.Book(context.Background(), 1)
	assert.ErrorIs(t, err, entity.ErrEventNotLoaded)
	assert.False(t, d.CanBook())
	_, err = d.ShareMessage()
	assert.ErrorIs(t, err, entity.ErrEventNotLoaded)
}

func TestSoldOutEvent(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Capacity: 0}, navigation.FromHome)

	assert.False(t, d.CanBook())
	_, err := d.Book(context.Background(), 1)
	assert.ErrorIs(t, err, entity.ErrQuantityExceedsCapacity)
}

func TestUserTicketsCountsOwnSeats(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Capacity: 5, Attendees: []string{"u1", "u2", "u1"}}, navigation.FromHome)
	assert.Equal(t, 2, d.UserTickets())
	assert.True(t, d.CanBook())
}

func TestShareMessage(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{
		ID:          "e1",
		Title:       "Gig",
		Location:    "Hall",
		Description: "Loud",
		Date:        entity.Date{Time: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}, navigation.FromHome)

	msg, err := d.ShareMessage()
	require.NoError(t, err)
	assert.Equal(t, "📅 Check out this event on EventHive!\n\nTitle: Gig\nLocation: Hall\nDate: Sun Jun 01 2025\n\nLoud", msg)
}

func TestBackFollowsProvenance(t *testing.T) {
	tests := []struct {
		tag  string
		want navigation.Route
	}{
		{tag: "bookings", want: navigation.RouteBookings},
		{tag: "home", want: navigation.RouteHome},
		{tag: "", want: navigation.RouteHome},
		{tag: "profile", want: navigation.RouteHome},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			f := newFixture(t, "u1", false)
			d := NewEventDetail(f.api, f.deps, "e1", navigation.ParseProvenance(tt.tag))
			assert.Equal(t, tt.want, d.Back())
			assert.Equal(t, tt.want, f.nav.Current().Route)
		})
	}
}

func TestReconcileReplacesLocalCapacity(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Capacity: 5}, navigation.FromHome)
	ctx := context.Background()

	_, err := d.Book(ctx, 2)
	require.NoError(t, err)
	ev, _ := d.Event()
	require.Equal(t, 3, ev.Capacity)

	// the server still says 5, e.g. the booking was canceled elsewhere
	require.NoError(t, d.Reconcile(ctx))
	ev, _ = d.Event()
	assert.Equal(t, 5, ev.Capacity)
}

func TestFailedLoadKeepsLastEvent(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Title: "Gig", Capacity: 5}, navigation.FromHome)
	f.api.fail("GetEvent", entity.ErrTransport)

	_, err := d.Load(context.Background())
	require.Error(t, err)
	ev, ok := d.Event()
	require.True(t, ok)
	assert.Equal(t, "Gig", ev.Title)
	assert.Equal(t, "Could not load event.", d.Notice().Message)
}

func TestDetailClosed(t *testing.T) {
	f := newFixture(t, "u1", false)
	d := newLoadedDetail(t, f, entity.Event{ID: "e1", Capacity: 5}, navigation.FromHome)
	d.Close()

	_, err := d.Book(context.Background(), 1)
	assert.ErrorIs(t, err, entity.ErrClosed)
	_, err = d.Load(context.Background())
	assert.ErrorIs(t, err, entity.ErrClosed)
	assert.Zero(t, f.api.count("CreateBooking"))
}
