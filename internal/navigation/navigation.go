// Package navigation routes detail screens back to the list they came from.
package navigation

import (
	"strings"
	"sync"
)

// Provenance tags which list screen opened a detail screen.
type Provenance string

const (
	FromHome     Provenance = "home"
	FromBookings Provenance = "bookings"
)

// ParamFromTab is the navigation parameter carrying the provenance tag.
const ParamFromTab = "fromTab"

type Route string

const (
	RouteHome        Route = "/"
	RouteBookings    Route = "/bookings"
	RouteLogin       Route = "/login"
	RouteEventDetail Route = "/events/[id]"
	RouteEventForm   Route = "/EventForm"
)

var backRoutes = map[Provenance]Route{
	FromHome:     RouteHome,
	FromBookings: RouteBookings,
}

// ParseProvenance maps a raw tag onto a known provenance. Unknown or empty
// tags fall back to the primary feed.
func ParseProvenance(tag string) Provenance {
	p := Provenance(strings.ToLower(strings.TrimSpace(tag)))
	if _, ok := backRoutes[p]; ok {
		return p
	}
	return FromHome
}

// BackRoute is where the "back" action of a detail screen leads.
func BackRoute(p Provenance) Route {
	if r, ok := backRoutes[p]; ok {
		return r
	}
	return RouteHome
}

// DetailParams are the parameters pushed when a list opens an event.
func DetailParams(eventID string, from Provenance) map[string]string {
	return map[string]string{"id": eventID, ParamFromTab: string(from)}
}

// Navigator is the host's router.
type Navigator interface {
	Push(route Route, params map[string]string)
	Replace(route Route, params map[string]string)
}

type Visit struct {
	Route   Route
	Params  map[string]string
	Replace bool
}

// Recorder keeps the navigation history in memory. The CLI prints it and
// tests assert on it.
type Recorder struct {
	mu     sync.Mutex
	visits []Visit
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Push(route Route, params map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, Visit{Route: route, Params: params})
}

func (r *Recorder) Replace(route Route, params map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, Visit{Route: route, Params: params, Replace: true})
}

// Current is the last visited route, RouteHome when nothing was visited.
func (r *Recorder) Current() Visit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.visits) == 0 {
		return Visit{Route: RouteHome}
	}
	return r.visits[len(r.visits)-1]
}

func (r *Recorder) History() []Visit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Visit(nil), r.visits...)
}
