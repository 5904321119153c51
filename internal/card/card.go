package card

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/tminus/internal/config"
	"github.com/five82/tminus/internal/countdown"
	"github.com/five82/tminus/internal/notice"
	"github.com/five82/tminus/internal/resolve"
	"github.com/five82/tminus/internal/validate"
)

var (
	// ErrNoTarget is returned by SetConfig when neither target_date nor
	// timer_entity is set.
	ErrNoTarget = errors.New("no target date specified")
	// ErrInvalidConfig wraps a validate.Invalid with critical issues.
	ErrInvalidConfig = errors.New("invalid card configuration")
	// ErrClosed is returned by SetConfig and Refresh after Close.
	ErrClosed = errors.New("card closed")
)

// Card runs one countdown: it validates its configuration, owns the
// resolver (and so the template cache) and drives the engine.
type Card struct {
	id       string
	log      *zap.SugaredLogger
	now      func() time.Time
	loc      *time.Location
	interval time.Duration
	resolver *resolve.Resolver

	configMu sync.Mutex // serializes SetConfig, Refresh and Close

	mu      sync.Mutex
	cfg     config.Card
	engine  *countdown.Engine
	handle  *countdown.Handle
	onTick  func(countdown.Result)
	onError func(notice.Notice)
	closed  bool
}

// Option configures a Card.
type Option func(*Card)

// WithClock overrides the clock for the card's engine and cache.
func WithClock(now func() time.Time) Option {
	return func(c *Card) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the zone offset-less dates are read in.
func WithLocation(loc *time.Location) Option {
	return func(c *Card) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Card) {
		if log != nil {
			c.log = log
		}
	}
}

// WithInterval overrides the tick period.
func WithInterval(d time.Duration) Option {
	return func(c *Card) {
		if d > 0 {
			c.interval = d
		}
	}
}

// New creates an idle card. backend may be nil until SetBackend.
func New(id string, backend resolve.Backend, opts ...Option) *Card {
	c := &Card{
		id:       id,
		log:      zap.NewNop().Sugar(),
		now:      time.Now,
		loc:      time.Local,
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("card", id)
	c.resolver = resolve.New(backend, resolve.WithClock(c.now), resolve.WithLogger(c.log))
	return c
}

// ID returns the card identifier.
func (c *Card) ID() string { return c.id }

// OnTick registers the hook receiving every published result.
func (c *Card) OnTick(fn func(countdown.Result)) {
	c.mu.Lock()
	c.onTick = fn
	c.mu.Unlock()
}

// OnError registers the hook receiving user-visible notices.
func (c *Card) OnError(fn func(notice.Notice)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// SetConfig validates cfg and (re)starts the countdown with it. A card
// without any target fails with ErrNoTarget, and one with critical issues
// with ErrInvalidConfig; in both cases the running countdown is stopped.
// Warnings are raised through OnError and do not stop the card.
func (c *Card) SetConfig(ctx context.Context, cfg config.Card) error {
	c.configMu.Lock()
	defer c.configMu.Unlock()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if strings.TrimSpace(cfg.TargetDate) == "" && strings.TrimSpace(cfg.TimerEntity) == "" {
		c.stop()
		return ErrNoTarget
	}

	var valid validate.Valid
	switch r := validate.Check(cfg).(type) {
	case validate.Invalid:
		c.stop()
		c.log.Warnw("card configuration rejected", "issues", r.Error())
		return fmt.Errorf("%w: %w", ErrInvalidConfig, r)
	case validate.Valid:
		valid = r
	}

	c.stop()
	c.resolver.Reset()

	settings := countdown.Settings{
		Target:      valid.Card.TargetDate,
		Creation:    valid.Card.CreationDate,
		Timer:       valid.Card.TimerEntity,
		Units:       Units(valid.Card),
		ExpiredText: valid.Card.ExpiredText,
	}
	engine := countdown.New(settings, c.resolver,
		countdown.WithClock(c.now),
		countdown.WithLocation(c.loc),
		countdown.WithLogger(c.log),
		countdown.WithInterval(c.interval),
		countdown.OnTick(c.emitTick),
		countdown.OnError(c.emitError),
	)

	c.mu.Lock()
	c.cfg = valid.Card
	c.engine = engine
	c.handle = engine.Start(ctx)
	c.mu.Unlock()

	for _, w := range valid.Warnings {
		c.raise(notice.Notice{Message: w.String(), Transient: true})
	}
	c.log.Infow("card configured", "target", settings.Target, "timer", settings.Timer, "warnings", len(valid.Warnings))
	return nil
}

// Config returns the configuration currently running.
func (c *Card) Config() config.Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Latest returns the most recent result, if any.
func (c *Card) Latest() (countdown.Result, bool) {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine == nil {
		return countdown.Result{}, false
	}
	return engine.Latest()
}

// Refresh drops cached template results and recomputes immediately. A
// stopped card does not publish.
func (c *Card) Refresh(ctx context.Context) (countdown.Result, error) {
	c.configMu.Lock()
	defer c.configMu.Unlock()

	c.mu.Lock()
	engine, closed := c.engine, c.closed
	c.mu.Unlock()
	if closed {
		return countdown.Result{}, ErrClosed
	}
	if engine == nil {
		return countdown.Result{}, ErrNoTarget
	}
	c.resolver.Reset()
	return engine.Tick(ctx)
}

// SetBackend installs a new backend connection. Cached template results are
// dropped when it is a different connection.
func (c *Card) SetBackend(backend resolve.Backend) {
	c.resolver.SetBackend(backend)
}

// CachedTemplates reports the size of the card's template cache.
func (c *Card) CachedTemplates() int {
	return c.resolver.CachedTemplates()
}

// Close stops the countdown and clears the cache. Results of ticks still in
// flight are discarded.
func (c *Card) Close() {
	c.configMu.Lock()
	defer c.configMu.Unlock()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.stop()
	c.resolver.Reset()
}

func (c *Card) stop() {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.engine = nil
	c.mu.Unlock()
	if h != nil {
		h.Stop()
	}
}

func (c *Card) emitTick(res countdown.Result) {
	c.mu.Lock()
	hook := c.onTick
	c.mu.Unlock()
	if hook != nil {
		hook(res)
	}
}

func (c *Card) emitError(err error) {
	c.raise(notice.Notice{Message: err.Error(), Transient: true, Err: err})
}

func (c *Card) raise(n notice.Notice) {
	n.Card = c.id
	c.mu.Lock()
	hook := c.onError
	c.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

// Units maps the show_* flags of cfg to countdown units. A card that sets
// none of them gets countdown.DefaultUnits.
func Units(cfg config.Card) countdown.Units {
	if !cfg.UnitsConfigured() {
		return countdown.DefaultUnits
	}
	flag := func(b *bool) bool { return b != nil && *b }
	return countdown.Units{
		Months:  flag(cfg.ShowMonths),
		Days:    flag(cfg.ShowDays),
		Hours:   flag(cfg.ShowHours),
		Minutes: flag(cfg.ShowMinutes),
		Seconds: flag(cfg.ShowSeconds),
	}
}
