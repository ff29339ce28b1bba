package entity

import (
	"strconv"
	"strings"
)

// EventFields is the raw text of the admin event form.
type EventFields struct {
	Title       string
	Description string
	Location    string
	Date        string
	Capacity    string
}

// EventFieldsFrom pre-fills the edit form from a fetched event.
func EventFieldsFrom(e Event) EventFields {
	return EventFields{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Date:        e.Date.Day(),
		Capacity:    strconv.Itoa(e.Capacity),
	}
}

// Validate checks the form before anything is submitted: every field is
// required and capacity has to be a non-negative integer.
func (f EventFields) Validate() (EventInput, error) {
	required := []struct {
		name  string
		value string
	}{
		{"title", f.Title},
		{"description", f.Description},
		{"location", f.Location},
		{"date", f.Date},
		{"capacity", f.Capacity},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return EventInput{}, NewValidationError(r.name, "all fields are required")
		}
	}

	capacity, err := strconv.Atoi(strings.TrimSpace(f.Capacity))
	if err != nil {
		return EventInput{}, NewValidationError("capacity", "must be an integer")
	}
	if capacity < 0 {
		return EventInput{}, NewValidationError("capacity", "must not be negative")
	}

	date, err := ParseDate(f.Date)
	if err != nil {
		return EventInput{}, NewValidationError("date", "expected YYYY-MM-DD")
	}

	return EventInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Location:    strings.TrimSpace(f.Location),
		Date:        date.Day(),
		Capacity:    capacity,
	}, nil
}
