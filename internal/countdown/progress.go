package countdown

import "time"

// Progress returns how much of [creation, target] has elapsed at now, as a
// percentage clamped to [0, 100]. An empty or inverted interval counts as
// complete, and so does an expired countdown.
func Progress(target, creation, now time.Time, expired bool) float64 {
	if expired {
		return 100
	}
	total := target.Sub(creation)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(creation)
	pct := float64(elapsed) / float64(total) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
