package resolve

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// TemplateTTL is how long a rendered template is reused.
const TemplateTTL = 5 * time.Second

type cacheEntry struct {
	value      string
	capturedAt time.Time
}

// templateCache keeps rendered template results keyed by the exact template
// source. go-cache evicts on wall time; freshness is decided against the
// resolver clock so tests can move time without sleeping.
type templateCache struct {
	ttl   time.Duration
	now   func() time.Time
	items *cache.Cache
}

func newTemplateCache(ttl time.Duration, now func() time.Time) *templateCache {
	return &templateCache{
		ttl:   ttl,
		now:   now,
		items: cache.New(ttl, 2*ttl),
	}
}

func (c *templateCache) get(template string) (string, bool) {
	raw, ok := c.items.Get(template)
	if !ok {
		return "", false
	}
	entry := raw.(cacheEntry)
	if c.now().Sub(entry.capturedAt) >= c.ttl {
		return "", false
	}
	return entry.value, true
}

func (c *templateCache) set(template, value string) {
	c.items.SetDefault(template, cacheEntry{value: value, capturedAt: c.now()})
}

func (c *templateCache) flush() {
	c.items.Flush()
}

func (c *templateCache) len() int {
	return c.items.ItemCount()
}
