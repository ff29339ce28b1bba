package entity

import "slices"

type Event struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Date        Date     `json:"date"`
	Capacity    int      `json:"capacity"` // seats remaining, not total seats
	Attendees   []string `json:"attendees"`
}

// Clone returns a deep copy so screens never share an attendees slice.
func (e Event) Clone() Event {
	e.Attendees = slices.Clone(e.Attendees)
	return e
}

// TicketsHeldBy counts the seats userID holds, one attendees entry per seat.
func (e *Event) TicketsHeldBy(userID string) int {
	if userID == "" {
		return 0
	}
	n := 0
	for _, a := range e.Attendees {
		if a == userID {
			n++
		}
	}
	return n
}

func (e *Event) SoldOut() bool {
	return e.Capacity <= 0
}

// EventInput is the validated payload sent on event create/update.
type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Capacity    int    `json:"capacity"`
}
