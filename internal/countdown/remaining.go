package countdown

import "time"

// Remaining is the time left until the target split over the enabled units.
type Remaining struct {
	Months  int
	Days    int
	Hours   int
	Minutes int
	Seconds int
	Total   time.Duration
}

// Value returns the amount held for u.
func (r Remaining) Value(u Unit) int {
	switch u {
	case Months:
		return r.Months
	case Days:
		return r.Days
	case Hours:
		return r.Hours
	case Minutes:
		return r.Minutes
	default:
		return r.Seconds
	}
}

func (r *Remaining) set(u Unit, n int) {
	switch u {
	case Months:
		r.Months = n
	case Days:
		r.Days = n
	case Hours:
		r.Hours = n
	case Minutes:
		r.Minutes = n
	default:
		r.Seconds = n
	}
}

// Breakdown splits diff over the enabled units, coarsest first. Each enabled
// unit takes whole multiples of its own size from what is left; disabled
// units take nothing and the remainder moves on to the next enabled unit.
// A non-positive diff yields the zero Remaining.
func Breakdown(diff time.Duration, units Units) Remaining {
	if diff <= 0 {
		return Remaining{}
	}
	out := Remaining{Total: diff}
	left := diff
	for _, u := range units.List() {
		size := u.Size()
		n := left / size
		out.set(u, int(n))
		left -= n * size
	}
	return out
}
