package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackRoute(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want Route
	}{
		{name: "from bookings feed", tag: "bookings", want: RouteBookings},
		{name: "from main feed", tag: "home", want: RouteHome},
		{name: "missing tag defaults to main feed", tag: "", want: RouteHome},
		{name: "unknown tag defaults to main feed", tag: "profile", want: RouteHome},
		{name: "tag is case insensitive", tag: " Bookings ", want: RouteBookings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BackRoute(ParseProvenance(tt.tag)))
		})
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	assert.Equal(t, RouteHome, r.Current().Route)

	r.Push(RouteEventDetail, DetailParams("ev1", FromBookings))
	r.Replace(RouteBookings, nil)

	cur := r.Current()
	assert.Equal(t, RouteBookings, cur.Route)
	assert.True(t, cur.Replace)

	history := r.History()
	assert.Len(t, history, 2)
	assert.Equal(t, "bookings", history[0].Params[ParamFromTab])
	assert.Equal(t, "ev1", history[0].Params["id"])
}
