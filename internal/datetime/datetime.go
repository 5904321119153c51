package datetime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid reports a value that could not be turned into an instant.
var ErrInvalid = errors.New("invalid date")

var (
	offsetSuffix = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)
	isoDateTime  = regexp.MustCompile(`^[^T\s]+T`)
)

// Layouts tried when the value carries its own offset (or is not ISO-like).
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
}

// Layouts without zone information; these are read as local wall clock.
var localLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006-01",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
}

// Parse converts value to an instant using the process local time zone.
func Parse(value string) (time.Time, error) {
	return ParseIn(value, time.Local)
}

// ParseIn converts value to an instant. Strings of the form
// YYYY-MM-DDTHH:MM[:SS] without a zone suffix are wall-clock time in loc;
// anything carrying Z or ±HH:MM keeps its own offset.
func ParseIn(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	trimmed := strings.TrimSpace(value)
	if !isoDateTime.MatchString(trimmed) || HasOffset(trimmed) {
		return parseGeneric(trimmed, loc)
	}
	return parseWallClock(trimmed, loc)
}

// HasOffset reports whether value ends in Z or a numeric UTC offset.
func HasOffset(value string) bool {
	return offsetSuffix.MatchString(strings.TrimSpace(value))
}

// StripOffset removes a trailing Z or ±HH:MM so the remaining wall clock is
// interpreted as local time.
func StripOffset(value string) string {
	trimmed := strings.TrimSpace(value)
	return offsetSuffix.ReplaceAllString(trimmed, "")
}

func parseGeneric(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalid)
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, value)
}

// parseWallClock reads the numeric components directly so the result does not
// depend on any implicit zone assumption of a layout parser.
func parseWallClock(value string, loc *time.Location) (time.Time, error) {
	datePart, timePart, _ := strings.Cut(value, "T")

	dateFields := strings.Split(datePart, "-")
	if len(dateFields) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, value)
	}
	year, err := atoi(dateFields[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year in %q", ErrInvalid, value)
	}
	month, err := atoi(dateFields[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month in %q", ErrInvalid, value)
	}
	day, err := atoi(dateFields[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day in %q", ErrInvalid, value)
	}

	var hour, minute, second, nanos int
	if timePart != "" {
		timeFields := strings.Split(timePart, ":")
		if len(timeFields) > 3 {
			return time.Time{}, fmt.Errorf("%w: time in %q", ErrInvalid, value)
		}
		if hour, err = atoi(timeFields[0]); err != nil {
			return time.Time{}, fmt.Errorf("%w: hour in %q", ErrInvalid, value)
		}
		if len(timeFields) > 1 {
			if minute, err = atoi(timeFields[1]); err != nil {
				return time.Time{}, fmt.Errorf("%w: minute in %q", ErrInvalid, value)
			}
		}
		if len(timeFields) > 2 {
			whole, frac, _ := strings.Cut(timeFields[2], ".")
			if second, err = atoi(whole); err != nil {
				return time.Time{}, fmt.Errorf("%w: second in %q", ErrInvalid, value)
			}
			if nanos, err = fraction(frac); err != nil {
				return time.Time{}, fmt.Errorf("%w: fraction in %q", ErrInvalid, value)
			}
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, nanos, loc), nil
}

func atoi(field string) (int, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(field)
}

func fraction(digits string) (int, error) {
	if digits == "" {
		return 0, nil
	}
	if len(digits) > 9 {
		digits = digits[:9]
	}
	n, err := atoi(digits)
	if err != nil {
		return 0, err
	}
	for i := len(digits); i < 9; i++ {
		n *= 10
	}
	return n, nil
}
