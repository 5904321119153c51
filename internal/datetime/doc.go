// Package datetime turns the date strings found in card configuration and
// Home Assistant state into instants.
//
// Two strategies are used. Values that carry a zone (a trailing Z or ±HH:MM)
// are parsed with the RFC3339 family of layouts and keep their offset. ISO
// values without a zone (2025-07-22T14:30:00) are read component by component
// and built in the local time zone, so the wall-clock numbers shown on the
// card are the numbers in the string no matter where tminus runs.
//
// Parse never panics. A value it cannot read yields ErrInvalid and the caller
// decides whether that skips a countdown tick.
package datetime
