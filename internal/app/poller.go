package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/tminus/internal/notice"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 2 * time.Minute
	pingTimeout         = 5 * time.Second
)

// backendNotice is the notice board key for connection problems.
const backendNotice = "home assistant"

// Pinger checks that the backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StartPoller launches a background goroutine that checks the backend at a
// fixed cadence, backing off while it is unreachable. A failure raises a
// sticky notice that is dismissed once the backend answers again. It
// returns immediately.
func StartPoller(ctx context.Context, pinger Pinger, board *notice.Board, log *zap.SugaredLogger, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		failures := 0
		for {
			failures = poll(ctx, pinger, board, log, failures)
			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// poll runs one check and returns the new consecutive failure count.
func poll(ctx context.Context, pinger Pinger, board *notice.Board, log *zap.SugaredLogger, failures int) int {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pinger.Ping(pingCtx); err != nil {
		if ctx.Err() != nil {
			return failures
		}
		if failures == 0 {
			log.Warnw("home assistant unreachable", "error", err)
			board.Raise(backendNotice, "unreachable: "+err.Error(), false)
		}
		return failures + 1
	}
	if failures > 0 {
		log.Infow("home assistant reachable again", "failures", failures)
		board.DismissCard(backendNotice)
	}
	return 0
}

// calculateBackoff doubles the base interval per consecutive failure, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
