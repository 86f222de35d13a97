package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date without time-of-day. The zero value is not a valid day.
type Day struct {
	t time.Time
}

// NewDay builds a day from its calendar components.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar day of t as seen on the wall clock of loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc != nil {
		t = t.In(loc)
	}
	return NewDay(t.Year(), t.Month(), t.Day())
}

// ParseDay accepts YYYY-MM-DD or an RFC3339 timestamp, which is converted into loc first.
func ParseDay(raw string, loc *time.Location) (Day, error) {
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return NewDay(t.Year(), t.Month(), t.Day()), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: expected YYYY-MM-DD or RFC3339", raw)
	}
	return DayOf(t, loc), nil
}

// MonthRange returns the first day of the month and the first day of the following month.
func MonthRange(month, year int) (Day, Day) {
	first := NewDay(year, time.Month(month), 1)
	return first, Day{t: first.t.AddDate(0, 1, 0)}
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time { return d.t }

// Month returns the month of the day.
func (d Day) Month() time.Month { return d.t.Month() }

// Year returns the year of the day.
func (d Day) Year() int { return d.t.Year() }

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(dayLayout)
}

// Value implements driver.Valuer.
func (d Day) Value() (driver.Value, error) {
	if d.t.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Day) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Day{}
		return nil
	case time.Time:
		*d = NewDay(v.Year(), v.Month(), v.Day())
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Day", src)
	}
}

func (d *Day) parse(raw string) error {
	if len(raw) > len(dayLayout) {
		raw = raw[:len(dayLayout)]
	}
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		return fmt.Errorf("scan day: %w", err)
	}
	*d = NewDay(t.Year(), t.Month(), t.Day())
	return nil
}

// MarshalJSON renders the day as "YYYY-MM-DD".
func (d Day) MarshalJSON() ([]byte, error) {
	if d.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the same forms as ParseDay, interpreting timestamps in UTC.
func (d *Day) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Day{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("day must be a string: %w", err)
	}
	parsed, err := ParseDay(raw, time.UTC)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
