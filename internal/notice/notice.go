package notice

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// TTL is how long a transient notice stays visible.
const TTL = 8 * time.Second

// Notice is a user-visible message raised by a card.
type Notice struct {
	ID        string
	Card      string
	Message   string
	Transient bool
	Raised    time.Time
	Err       error // underlying error, when the notice came from one
}

// Board holds the active notices. Raising the same message for the same card
// again refreshes the existing notice instead of stacking a duplicate.
type Board struct {
	ttl      time.Duration
	now      func() time.Time
	items    *cache.Cache
	onChange func()

	mu  sync.Mutex
	ids map[string]string // notice id -> cache key
}

// Option configures a Board.
type Option func(*Board)

// WithTTL overrides how long transient notices live.
func WithTTL(ttl time.Duration) Option {
	return func(b *Board) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithClock overrides the clock used for Raised.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// OnChange registers a hook called after notices are raised, dismissed or
// expire.
func OnChange(fn func()) Option {
	return func(b *Board) { b.onChange = fn }
}

// NewBoard creates an empty Board.
func NewBoard(opts ...Option) *Board {
	b := &Board{ttl: TTL, now: time.Now, ids: make(map[string]string)}
	for _, opt := range opts {
		opt(b)
	}
	cleanup := b.ttl / 8
	if cleanup < 10*time.Millisecond {
		cleanup = 10 * time.Millisecond
	}
	b.items = cache.New(b.ttl, cleanup)
	b.items.OnEvicted(func(key string, value any) {
		if n, ok := value.(Notice); ok {
			b.mu.Lock()
			if b.ids[n.ID] == key {
				delete(b.ids, n.ID)
			}
			b.mu.Unlock()
		}
		b.changed()
	})
	return b
}

// Raise shows message for card. Transient notices expire after the board TTL;
// the others stay until dismissed.
func (b *Board) Raise(card, message string, transient bool) Notice {
	key := card + "\x00" + strings.TrimSpace(message)

	b.mu.Lock()
	n := Notice{Card: card, Message: strings.TrimSpace(message), Transient: transient, Raised: b.now()}
	if prev, ok := b.items.Get(key); ok {
		n.ID = prev.(Notice).ID
	} else {
		// An expired notice the janitor has not evicted yet still owns key.
		for id, k := range b.ids {
			if k == key {
				delete(b.ids, id)
			}
		}
		n.ID = uuid.NewString()
	}
	b.ids[n.ID] = key
	expiry := cache.NoExpiration
	if transient {
		expiry = b.ttl
	}
	b.items.Set(key, n, expiry)
	b.mu.Unlock()

	b.changed()
	return n
}

// Dismiss removes the notice with id. It reports whether one was removed.
func (b *Board) Dismiss(id string) bool {
	b.mu.Lock()
	key, ok := b.ids[id]
	b.mu.Unlock()
	if !ok {
		return false
	}
	if _, live := b.items.Get(key); !live {
		return false
	}
	// Delete fires OnEvicted, which cleans ids and signals the change.
	b.items.Delete(key)
	return true
}

// DismissCard removes every notice raised for card.
func (b *Board) DismissCard(card string) {
	for _, n := range b.Active() {
		if n.Card == card {
			b.Dismiss(n.ID)
		}
	}
}

// Active returns the live notices, newest first.
func (b *Board) Active() []Notice {
	items := b.items.Items()
	out := make([]Notice, 0, len(items))
	for _, item := range items {
		if n, ok := item.Object.(Notice); ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Raised.Equal(out[j].Raised) {
			return out[i].ID < out[j].ID
		}
		return out[i].Raised.After(out[j].Raised)
	})
	return out
}

func (b *Board) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}
