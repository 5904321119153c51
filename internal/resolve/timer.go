package resolve

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/five82/tminus/internal/datetime"
)

// Timer states reported by timer.* entities.
const (
	TimerActive = "active"
	TimerPaused = "paused"
	TimerIdle   = "idle"
)

// Timer is the countdown-relevant view of a timer entity.
type Timer struct {
	Status     string
	FinishesAt time.Time
	Remaining  time.Duration
	Duration   time.Duration
}

// Target returns the instant the timer reaches zero as seen at now. An idle
// timer has already finished.
func (t Timer) Target(now time.Time) time.Time {
	switch t.Status {
	case TimerActive:
		if !t.FinishesAt.IsZero() {
			return t.FinishesAt
		}
		return now.Add(t.Remaining)
	case TimerPaused:
		return now.Add(t.Remaining)
	default:
		return now
	}
}

// Creation returns the instant the current run started, or false when the
// timer has no configured duration.
func (t Timer) Creation(now time.Time) (time.Time, bool) {
	if t.Duration <= 0 {
		return time.Time{}, false
	}
	return t.Target(now).Add(-t.Duration), true
}

// Timer fetches entityID and decodes its timer attributes. Sentinel states
// yield ok=false.
func (r *Resolver) Timer(ctx context.Context, entityID string) (Timer, bool, error) {
	st, err := r.Entity(ctx, entityID)
	if err != nil {
		return Timer{}, false, fmt.Errorf("%w: %s: %w", ErrBackend, entityID, err)
	}
	if st.IsSentinel() {
		return Timer{}, false, nil
	}

	timer := Timer{Status: strings.ToLower(strings.TrimSpace(st.State))}
	if d, err := ParseTimerDuration(st.Attribute("duration")); err == nil {
		timer.Duration = d
	}
	if d, err := ParseTimerDuration(st.Attribute("remaining")); err == nil {
		timer.Remaining = d
	}
	if finishes := st.Attribute("finishes_at"); finishes != "" {
		at, err := datetime.Parse(finishes)
		if err != nil {
			return Timer{}, false, fmt.Errorf("timer %s finishes_at: %w", entityID, err)
		}
		timer.FinishesAt = at
	}
	return timer, true, nil
}

// ParseTimerDuration reads the H:MM:SS form Home Assistant uses for timer
// durations, optionally prefixed with "N day(s), ".
func ParseTimerDuration(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var total time.Duration
	if dayPart, rest, ok := strings.Cut(trimmed, ","); ok {
		fields := strings.Fields(dayPart)
		if len(fields) != 2 || !strings.HasPrefix(fields[1], "day") {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		days, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", value, err)
		}
		total += time.Duration(days) * 24 * time.Hour
		trimmed = strings.TrimSpace(rest)
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	total += time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return total, nil
}
