package request

import (
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var errInvalidDate = errors.New("must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")

// ParseTime accepts a calendar date or an RFC 3339 instant. dateOnly
// reports which form was given. Dates are midnight in loc.
func ParseTime(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	if t, err = time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, true, nil
	}
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}

	return time.Time{}, false, errInvalidDate
}

// OptionalTime parses s when it is set.
func OptionalTime(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, _, err := ParseTime(s, loc)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// RangeEnd parses the upper bound of a half-open range. A bare date means
// the whole of that day, so it is moved to the next midnight.
func RangeEnd(s string, loc *time.Location) (time.Time, error) {
	t, dateOnly, err := ParseTime(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if dateOnly {
		t = t.AddDate(0, 0, 1)
	}

	return t, nil
}

func dateOrInstant(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, _, err := ParseTime(s, time.UTC)

	return err
}
