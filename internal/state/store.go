package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/tminus/internal/config"
	"github.com/five82/tminus/internal/countdown"
)

// CardSnapshot is the latest data the UI has for one card.
type CardSnapshot struct {
	ID                  string
	Config              config.Card
	Result              countdown.Result
	HasResult           bool
	LastUpdated         time.Time
	LastError           error
	ConfigError         error
	ConsecutiveFailures int // Number of consecutive skipped ticks
}

// IsStale returns true when the card has failed to refresh for several ticks.
func (c CardSnapshot) IsStale() bool {
	return c.ConsecutiveFailures >= 2
}

// Snapshot is every card in registration order.
type Snapshot struct {
	Cards       []CardSnapshot
	LastUpdated time.Time
}

// Card returns the snapshot of id.
func (s Snapshot) Card(id string) (CardSnapshot, bool) {
	for _, c := range s.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return CardSnapshot{}, false
}

// Store coordinates concurrent card updates. The zero value is ready to use.
type Store struct {
	mu          sync.RWMutex
	order       []string
	cards       map[string]*CardSnapshot
	lastUpdated time.Time
	changed     chan struct{}
}

// Register adds a card, or replaces its configuration and clears its data
// when id is already known.
func (s *Store) Register(id string, card config.Card) {
	s.mu.Lock()
	s.init()
	if _, ok := s.cards[id]; !ok {
		s.order = append(s.order, id)
	}
	s.cards[id] = &CardSnapshot{ID: id, Config: card}
	s.lastUpdated = time.Now()
	s.mu.Unlock()
	s.Notify()
}

// Update records a tick. When err is non-nil the previous result is kept but
// the error is recorded for visibility.
func (s *Store) Update(id string, res *countdown.Result, err error) {
	s.mu.Lock()
	s.init()
	card, ok := s.cards[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	card.LastUpdated = now
	s.lastUpdated = now
	if err != nil {
		card.LastError = err
		card.ConsecutiveFailures++
	} else if res != nil {
		card.Result = *res
		card.HasResult = true
		card.LastError = nil
		card.ConsecutiveFailures = 0
	}
	s.mu.Unlock()
	s.Notify()
}

// SetConfigError marks a card whose configuration was rejected; nil clears it.
func (s *Store) SetConfigError(id string, err error) {
	s.mu.Lock()
	s.init()
	if card, ok := s.cards[id]; ok {
		card.ConfigError = err
		if err != nil {
			card.HasResult = false
			card.Result = countdown.Result{}
		}
	}
	s.mu.Unlock()
	s.Notify()
}

// Snapshot returns a copy of every card.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{LastUpdated: s.lastUpdated, Cards: make([]CardSnapshot, 0, len(s.order))}
	for _, id := range s.order {
		card := *s.cards[id]
		if card.LastError != nil {
			card.LastError = fmt.Errorf("%w", card.LastError)
		}
		snap.Cards = append(snap.Cards, card)
	}
	return snap
}

// Changed delivers one value after any number of updates since the last
// receive, so a consumer redraws once per burst.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	return s.changed
}

// Notify signals Changed without modifying data.
func (s *Store) Notify() {
	s.mu.Lock()
	s.init()
	ch := s.changed
	s.mu.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *Store) init() {
	if s.cards == nil {
		s.cards = make(map[string]*CardSnapshot)
	}
	if s.changed == nil {
		s.changed = make(chan struct{}, 1)
	}
}
