package countdown

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/tminus/internal/datetime"
	"github.com/five82/tminus/internal/resolve"
)

// DefaultExpiredText is shown once the target has passed.
const DefaultExpiredText = "Expired!"

const defaultTickInterval = time.Second

var (
	// ErrTargetUnresolved means the target had no value this tick.
	ErrTargetUnresolved = errors.New("target date could not be resolved")
	// ErrInvalidTarget means the target resolved to something that is not a date.
	ErrInvalidTarget = errors.New("invalid target date format")
	// ErrCreationUnresolved means the creation date had no value this tick;
	// the configuration-time instant is used instead.
	ErrCreationUnresolved = errors.New("creation date could not be resolved")
	// ErrInvalidCreation means the creation date is not a date.
	ErrInvalidCreation = errors.New("invalid creation date format")
)

// Settings is the part of a card configuration the engine reads.
type Settings struct {
	Target      string
	Creation    string
	Timer       string
	Units       Units
	ExpiredText string
}

// Source resolves configured values; *resolve.Resolver implements it.
type Source interface {
	Resolve(ctx context.Context, value string) (string, bool, error)
	Timer(ctx context.Context, entityID string) (resolve.Timer, bool, error)
}

var _ Source = (*resolve.Resolver)(nil)

// Result is one complete recomputation.
type Result struct {
	Remaining Remaining
	Progress  float64
	Expired   bool
	Target    time.Time
	Creation  time.Time
	Display   Display
	At        time.Time
}

// Engine recomputes a countdown on a fixed cadence. Every tick is a full,
// idempotent recomputation, so ticks may overlap when the backend is slow;
// only the newest result is kept.
type Engine struct {
	settings     Settings
	source       Source
	now          func() time.Time
	loc          *time.Location
	log          *zap.SugaredLogger
	interval     time.Duration
	configuredAt time.Time
	onTick       func(Result)
	onError      func(error)

	mu         sync.Mutex
	latest     Result
	hasLatest  bool
	generation uint64
	handle     *Handle
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the zone offset-less dates are read in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithInterval overrides the tick period.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// OnTick registers the hook that receives every published result.
func OnTick(fn func(Result)) Option {
	return func(e *Engine) { e.onTick = fn }
}

// OnError registers the hook that receives recoverable per-tick errors.
func OnError(fn func(error)) Option {
	return func(e *Engine) { e.onError = fn }
}

// New creates an engine. The creation instant used when none is configured
// is taken now, once.
func New(settings Settings, source Source, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		source:   source,
		now:      time.Now,
		loc:      time.Local,
		log:      zap.NewNop().Sugar(),
		interval: defaultTickInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.configuredAt = e.now()
	return e
}

// Latest returns the most recent result and whether one exists yet.
func (e *Engine) Latest() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest, e.hasLatest
}

// Start begins ticking until ctx ends or the returned handle is stopped. A
// running engine is stopped first. The first tick fires immediately.
func (e *Engine) Start(ctx context.Context) *Handle {
	e.mu.Lock()
	previous := e.handle
	e.mu.Unlock()
	if previous != nil {
		previous.Stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.generation++
	h := &Handle{engine: e, generation: e.generation, cancel: cancel, done: make(chan struct{})}
	e.handle = h
	e.mu.Unlock()

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		go e.run(ctx, h.generation)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Not awaited: a slow backend delays this tick, not the cadence.
				go e.run(ctx, h.generation)
			}
		}
	}()
	return h
}

// Tick performs one recomputation synchronously and publishes it. The error
// is the reason the tick was skipped, if it was.
func (e *Engine) Tick(ctx context.Context) (Result, error) {
	e.mu.Lock()
	generation := e.generation
	e.mu.Unlock()
	return e.tick(ctx, generation)
}

func (e *Engine) run(ctx context.Context, generation uint64) {
	_, _ = e.tick(ctx, generation)
}

func (e *Engine) tick(ctx context.Context, generation uint64) (Result, error) {
	res, err := e.compute(ctx, generation)
	if err != nil {
		e.log.Debugw("countdown tick skipped", "target", e.settings.Target, "timer", e.settings.Timer, "error", err)
		e.report(generation, err)
		return Result{}, err
	}
	e.publish(generation, res)
	return res, nil
}

func (e *Engine) compute(ctx context.Context, generation uint64) (Result, error) {
	now := e.now()

	target, timer, err := e.target(ctx, generation, now)
	if err != nil {
		return Result{}, err
	}
	creation := e.creation(ctx, generation, now, timer)

	diff := target.Sub(now)
	expired := diff <= 0

	res := Result{
		Remaining: Breakdown(diff, e.settings.Units),
		Expired:   expired,
		Target:    target,
		Creation:  creation,
		At:        now,
	}
	res.Progress = Progress(target, creation, now, expired)
	if expired {
		res.Display = FormatExpired(e.settings.ExpiredText)
	} else {
		res.Display = Format(res.Remaining, e.settings.Units)
	}
	return res, nil
}

func (e *Engine) target(ctx context.Context, generation uint64, now time.Time) (time.Time, *resolve.Timer, error) {
	if strings.TrimSpace(e.settings.Target) == "" && strings.TrimSpace(e.settings.Timer) != "" {
		timer, ok, err := e.source.Timer(ctx, e.settings.Timer)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("%w: %w", ErrTargetUnresolved, err)
		}
		if !ok {
			return time.Time{}, nil, fmt.Errorf("%w: %s has no state", ErrTargetUnresolved, e.settings.Timer)
		}
		return timer.Target(now), &timer, nil
	}

	value, ok, err := e.source.Resolve(ctx, e.settings.Target)
	if err != nil {
		if !errors.Is(err, resolve.ErrTemplate) || !ok {
			return time.Time{}, nil, fmt.Errorf("%w: %w", ErrTargetUnresolved, err)
		}
		// The template fallback is still worth parsing.
		e.report(generation, err)
	}
	if !ok {
		return time.Time{}, nil, ErrTargetUnresolved
	}

	at, err := datetime.ParseIn(value, e.loc)
	if err != nil {
		e.log.Warnw("target date not parseable", "value", value, "error", err)
		return time.Time{}, nil, fmt.Errorf("%w %q: %w", ErrInvalidTarget, value, err)
	}
	return at, nil, nil
}

func (e *Engine) creation(ctx context.Context, generation uint64, now time.Time, timer *resolve.Timer) time.Time {
	if strings.TrimSpace(e.settings.Creation) == "" {
		if timer != nil {
			if at, ok := timer.Creation(now); ok {
				return at
			}
		}
		return e.configuredAt
	}

	value, ok, err := e.source.Resolve(ctx, e.settings.Creation)
	if err != nil && (!errors.Is(err, resolve.ErrTemplate) || !ok) {
		e.report(generation, fmt.Errorf("%w: %w", ErrCreationUnresolved, err))
		return e.configuredAt
	}
	if err != nil {
		e.report(generation, err)
	}
	if !ok {
		e.report(generation, ErrCreationUnresolved)
		return e.configuredAt
	}
	at, err := datetime.ParseIn(value, e.loc)
	if err != nil {
		e.log.Warnw("creation date not parseable", "value", value, "error", err)
		e.report(generation, fmt.Errorf("%w %q: %w", ErrInvalidCreation, value, err))
		return e.configuredAt
	}
	return at
}

// publish stores res unless the engine was stopped or restarted since the
// tick began, or a newer tick already published.
func (e *Engine) publish(generation uint64, res Result) {
	e.mu.Lock()
	if generation != e.generation || (e.hasLatest && res.At.Before(e.latest.At)) {
		e.mu.Unlock()
		return
	}
	e.latest = res
	e.hasLatest = true
	hook := e.onTick
	e.mu.Unlock()

	if hook != nil {
		hook(res)
	}
}

func (e *Engine) report(generation uint64, err error) {
	e.mu.Lock()
	current := generation == e.generation
	hook := e.onError
	e.mu.Unlock()
	if current && hook != nil {
		hook(err)
	}
}

// Handle controls a started engine.
type Handle struct {
	engine     *Engine
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	once       sync.Once
}

// Stop halts the ticker and discards results of ticks still in flight. It
// does not wait for those ticks' backend calls to finish.
func (h *Handle) Stop() {
	h.once.Do(func() {
		e := h.engine
		e.mu.Lock()
		if e.generation == h.generation {
			e.generation++
		}
		if e.handle == h {
			e.handle = nil
		}
		e.mu.Unlock()
		h.cancel()
	})
	<-h.done
}

// Done is closed once the ticker goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Skipped reports whether err caused a tick to be skipped, as opposed to an
// advisory error reported alongside a published result.
func Skipped(err error) bool {
	return errors.Is(err, ErrTargetUnresolved) || errors.Is(err, ErrInvalidTarget)
}
