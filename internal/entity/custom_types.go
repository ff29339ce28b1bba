package entity

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Date is the calendar instant of an event. The remote API sends full RFC3339
// timestamps, the event form sends plain days.
type Date struct {
	time.Time
}

const (
	DayLayout        = "2006-01-02"
	customTimeLayout = "2006-01-02T15:04"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	customTimeLayout,
	DayLayout,
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("cannot parse %q as date", s)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || len(b) < 2 {
		d.Time = time.Time{}
		return nil
	}
	s := string(b[1 : len(b)-1]) // Remove quotes
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.UTC().Format(time.RFC3339) + `"`), nil
}

// Day returns the YYYY-MM-DD form used by the event form.
func (d Date) Day() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(DayLayout)
}

// Display mirrors Date.toDateString(): "Mon Jan 02 2006".
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format("Mon Jan 02 2006")
}
