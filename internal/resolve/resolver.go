package resolve

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/five82/tminus/internal/datetime"
	"github.com/five82/tminus/internal/hass"
)

// Placeholders returned when a template has no usable value.
const (
	Unavailable   = "Unavailable"
	TemplateError = "Template Error"
)

var (
	// ErrTemplate reports that every template transport failed.
	ErrTemplate = errors.New("template evaluation failed")
	// ErrBackend reports that an entity lookup failed for reasons other than
	// the entity not existing.
	ErrBackend = errors.New("backend lookup failed")
	// ErrNoBackend is returned when a value needs the backend but none is set.
	ErrNoBackend = errors.New("no backend connection")
)

var entityID = regexp.MustCompile(`^[a-z_][a-z0-9_]*\.[a-z0-9_]+$`)

// Backend is the slice of the Home Assistant connection the resolver needs.
type Backend interface {
	ID() string
	State(ctx context.Context, entityID string) (hass.State, error)
	RenderTemplate(ctx context.Context, template string) (string, error)
	RenderTemplateFallback(ctx context.Context, template string) (string, error)
}

// Resolver turns configured values (literals, entity references, templates)
// into literal strings. Each card owns one Resolver and therefore one cache.
type Resolver struct {
	now   func() time.Time
	log   *zap.SugaredLogger
	cache *templateCache
	group singleflight.Group

	mu         sync.RWMutex
	backend    Backend
	generation uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the clock used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Resolver bound to backend, which may be nil until SetBackend.
func New(backend Backend, opts ...Option) *Resolver {
	r := &Resolver{
		now:     time.Now,
		log:     zap.NewNop().Sugar(),
		backend: backend,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = newTemplateCache(TemplateTTL, func() time.Time { return r.now() })
	return r
}

// SetBackend swaps the backend. Cached results are dropped when the new
// backend is a different connection.
func (r *Resolver) SetBackend(backend Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sameBackend(r.backend, backend) {
		r.backend = backend
		return
	}
	r.backend = backend
	r.flushLocked()
	r.log.Debugw("backend replaced, template cache cleared")
}

// Reset drops every cached template result.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

// CachedTemplates reports how many template results are cached.
func (r *Resolver) CachedTemplates() int {
	return r.cache.len()
}

// Resolve produces the current literal for value. ok is false when there is
// no value this tick (empty input, sentinel entity state, failed lookup). A
// template that could not be rendered still yields its fallback literal with
// ok set, alongside an error wrapping ErrTemplate.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, bool, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return "", false, nil
	}

	if IsTemplate(raw) {
		out, err := r.Evaluate(ctx, raw)
		return out, true, err
	}

	if entityID.MatchString(raw) {
		backend := r.current()
		if backend == nil {
			return raw, true, nil
		}
		st, err := backend.State(ctx, raw)
		switch {
		case errors.Is(err, hass.ErrNotFound):
			return raw, true, nil
		case err != nil:
			return "", false, fmt.Errorf("%w: %s: %w", ErrBackend, raw, err)
		}
		if st.IsSentinel() {
			return "", false, nil
		}
		state := strings.TrimSpace(st.State)
		if strings.Contains(state, "T") {
			// Entity timestamps are shown as local wall clock.
			state = datetime.StripOffset(state)
		}
		return state, true, nil
	}

	return raw, true, nil
}

// Entity returns the full state of entityID.
func (r *Resolver) Entity(ctx context.Context, entityID string) (hass.State, error) {
	backend := r.current()
	if backend == nil {
		return hass.State{}, ErrNoBackend
	}
	return backend.State(ctx, entityID)
}

// Evaluate renders template, consulting the cache first. The primary
// transport is tried before the fallback one. Sentinel results are replaced
// by the template's own default literal, or Unavailable.
func (r *Resolver) Evaluate(ctx context.Context, template string) (string, error) {
	if cached, ok := r.cache.get(template); ok {
		return cached, nil
	}

	r.mu.RLock()
	backend, generation := r.backend, r.generation
	r.mu.RUnlock()

	// Keyed by generation so callers after a backend change or Reset never
	// join a render started against the old backend.
	key := fmt.Sprintf("%d\x00%s", generation, template)
	out, err, _ := r.group.Do(key, func() (any, error) {
		return r.render(ctx, backend, generation, template)
	})
	return out.(string), err
}

func (r *Resolver) render(ctx context.Context, backend Backend, generation uint64, template string) (string, error) {
	if backend == nil {
		return r.failed(template, ErrNoBackend)
	}

	rendered, err := backend.RenderTemplate(ctx, template)
	if err != nil {
		r.log.Debugw("primary template transport failed", "template", template, "error", err)
		var fallbackErr error
		rendered, fallbackErr = backend.RenderTemplateFallback(ctx, template)
		if fallbackErr != nil {
			return r.failed(template, errors.Join(err, fallbackErr))
		}
	}

	value := strings.TrimSpace(rendered)
	if isEmptyResult(value) {
		if fallback, ok := ExtractFallback(template); ok {
			value = fallback
		} else {
			value = Unavailable
		}
	}

	r.mu.RLock()
	current := r.generation == generation
	r.mu.RUnlock()
	if current {
		r.cache.set(template, value)
	}
	return value, nil
}

func (r *Resolver) failed(template string, cause error) (string, error) {
	r.log.Warnw("template evaluation failed", "template", template, "error", cause)
	if fallback, ok := ExtractFallback(template); ok {
		return fallback, fmt.Errorf("%w: %w", ErrTemplate, cause)
	}
	return TemplateError, fmt.Errorf("%w: %w", ErrTemplate, cause)
}

func (r *Resolver) current() Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backend
}

func (r *Resolver) flushLocked() {
	r.generation++
	r.cache.flush()
}

// IsTemplate reports whether value is a template expression.
func IsTemplate(value string) bool {
	return strings.Contains(value, "{{") && strings.Contains(value, "}}")
}

// IsEntityReference reports whether value has the shape of an entity id.
func IsEntityReference(value string) bool {
	return entityID.MatchString(strings.TrimSpace(value))
}

func isEmptyResult(value string) bool {
	switch strings.ToLower(value) {
	case "", "unknown", "unavailable", "none", "null":
		return true
	default:
		return false
	}
}

func sameBackend(a, b Backend) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}
