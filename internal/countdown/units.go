package countdown

import "time"

// Unit is a display granularity.
type Unit int

const (
	Months Unit = iota
	Days
	Hours
	Minutes
	Seconds
)

// Unit sizes used for the cascade. A month is 30.44 days.
const (
	MonthSize  = 2630016 * time.Second
	DaySize    = 24 * time.Hour
	HourSize   = time.Hour
	MinuteSize = time.Minute
	SecondSize = time.Second
)

var allUnits = [...]Unit{Months, Days, Hours, Minutes, Seconds}

// Size returns the length of one u.
func (u Unit) Size() time.Duration {
	switch u {
	case Months:
		return MonthSize
	case Days:
		return DaySize
	case Hours:
		return HourSize
	case Minutes:
		return MinuteSize
	default:
		return SecondSize
	}
}

func (u Unit) String() string {
	return u.label(2)
}

// label returns the unit name, singular when n == 1.
func (u Unit) label(n int) string {
	names := [...][2]string{
		Months:  {"month", "months"},
		Days:    {"day", "days"},
		Hours:   {"hour", "hours"},
		Minutes: {"minute", "minutes"},
		Seconds: {"second", "seconds"},
	}
	if n == 1 {
		return names[u][0]
	}
	return names[u][1]
}

func (u Unit) abbrev() string {
	return [...]string{Months: "mo", Days: "d", Hours: "h", Minutes: "m", Seconds: "s"}[u]
}

// Units selects which granularities are computed and shown.
type Units struct {
	Months  bool
	Days    bool
	Hours   bool
	Minutes bool
	Seconds bool
}

// DefaultUnits is used when a card enables no unit explicitly.
var DefaultUnits = Units{Days: true, Hours: true, Minutes: true, Seconds: true}

// Enabled reports whether u is selected.
func (s Units) Enabled(u Unit) bool {
	switch u {
	case Months:
		return s.Months
	case Days:
		return s.Days
	case Hours:
		return s.Hours
	case Minutes:
		return s.Minutes
	case Seconds:
		return s.Seconds
	}
	return false
}

// List returns the enabled units, coarsest first.
func (s Units) List() []Unit {
	var out []Unit
	for _, u := range allUnits {
		if s.Enabled(u) {
			out = append(out, u)
		}
	}
	return out
}
