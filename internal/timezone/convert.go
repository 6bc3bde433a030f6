package timezone

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// LocalInputLayout is the datetime-local form value layout.
	LocalInputLayout = "2006-01-02T15:04"
	DateLayout       = "2006-01-02"
	ScheduleTime     = "3:04 PM"
	ScheduleDate     = "Mon, Jan 2"
	DefaultLayout    = "Jan 2, 2006 3:04 PM"
)

// ParseUTC parses an RFC 3339 instant.
func ParseUTC(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrEmptyInput
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse instant %q: %w", s, err)
	}

	return t.UTC(), nil
}

func in(t time.Time, zone Zone) (time.Time, error) {
	loc, err := Location(zone)
	if err != nil {
		return time.Time{}, err
	}

	return t.In(loc), nil
}

// Format renders a stored UTC instant in zone.
func Format(utc string, zone Zone, layout string) (string, error) {
	t, err := ParseUTC(utc)
	if err != nil {
		return "", err
	}
	local, err := in(t, zone)
	if err != nil {
		return "", err
	}
	if layout == "" {
		layout = DefaultLayout
	}

	return local.Format(layout), nil
}

// UTCToLocalInput renders a UTC instant as a datetime-local value in zone.
func UTCToLocalInput(utc string, zone Zone) (string, error) {
	return Format(utc, zone, LocalInputLayout)
}

// LocalInputToUTC interprets a datetime-local value as wall time in zone.
func LocalInputToUTC(local string, zone Zone) (string, error) {
	return localToUTC(local, LocalInputLayout, zone)
}

// UTCToLocalDate renders the calendar date of a UTC instant in zone.
func UTCToLocalDate(utc string, zone Zone) (string, error) {
	return Format(utc, zone, DateLayout)
}

// LocalDateToUTC anchors a bare date at midnight in zone.
func LocalDateToUTC(date string, zone Zone) (string, error) {
	return localToUTC(date, DateLayout, zone)
}

func localToUTC(value, layout string, zone Zone) (string, error) {
	if value == "" {
		return "", ErrEmptyInput
	}
	loc, err := Location(zone)
	if err != nil {
		return "", err
	}
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return "", fmt.Errorf("parse local value %q: %w", value, err)
	}

	return t.UTC().Format(time.RFC3339), nil
}

// NowIn returns now as wall time in zone.
func NowIn(zone Zone, now time.Time) (time.Time, error) {
	return in(now, zone)
}

// IsToday reports whether utc falls on the same calendar day as now in zone.
func IsToday(utc time.Time, zone Zone, now time.Time) (bool, error) {
	t, err := in(utc, zone)
	if err != nil {
		return false, err
	}
	n, err := in(now, zone)
	if err != nil {
		return false, err
	}

	ty, tm, td := t.Date()
	ny, nm, nd := n.Date()
	return ty == ny && tm == nm && td == nd, nil
}

// FormatScheduleTime renders e.g. "6:30 PM PT".
func FormatScheduleTime(utc time.Time, zone Zone) (string, error) {
	t, err := in(utc, zone)
	if err != nil {
		return "", err
	}

	return t.Format(ScheduleTime) + " " + Abbr(zone), nil
}

// FormatScheduleDate renders e.g. "Mon, Jan 15".
func FormatScheduleDate(utc time.Time, zone Zone) (string, error) {
	t, err := in(utc, zone)
	if err != nil {
		return "", err
	}

	return t.Format(ScheduleDate), nil
}

func orRaw(op, raw string, zone Zone, out string, err error) string {
	if err == nil {
		return out
	}
	if raw != "" {
		slog.Info("failed to convert time", "op", op, "value", raw, "zone", string(zone), "error", err)
	}

	return raw
}

// FormatOrRaw is Format returning the input unchanged on failure.
func FormatOrRaw(utc string, zone Zone, layout string) string {
	out, err := Format(utc, zone, layout)
	return orRaw("format", utc, zone, out, err)
}

func UTCToLocalInputOrRaw(utc string, zone Zone) string {
	out, err := UTCToLocalInput(utc, zone)
	return orRaw("utc_to_local_input", utc, zone, out, err)
}

func LocalInputToUTCOrRaw(local string, zone Zone) string {
	out, err := LocalInputToUTC(local, zone)
	return orRaw("local_input_to_utc", local, zone, out, err)
}

func UTCToLocalDateOrRaw(utc string, zone Zone) string {
	out, err := UTCToLocalDate(utc, zone)
	return orRaw("utc_to_local_date", utc, zone, out, err)
}

func LocalDateToUTCOrRaw(date string, zone Zone) string {
	out, err := LocalDateToUTC(date, zone)
	return orRaw("local_date_to_utc", date, zone, out, err)
}
