package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/five82/tminus/internal/card"
	"github.com/five82/tminus/internal/config"
	"github.com/five82/tminus/internal/countdown"
	"github.com/five82/tminus/internal/hass"
	"github.com/five82/tminus/internal/notice"
	"github.com/five82/tminus/internal/state"
)

type stubBackend struct{}

func (stubBackend) ID() string { return "stub" }

func (stubBackend) State(context.Context, string) (hass.State, error) {
	return hass.State{}, hass.ErrNotFound
}

func (stubBackend) RenderTemplate(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (stubBackend) RenderTemplateFallback(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func waitFor(t *testing.T, store *state.Store, cond func(state.Snapshot) bool) state.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := store.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("store never reached expected state: %+v", snap.Cards)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCardIDs(t *testing.T) {
	cfgs := []config.Card{
		{Title: "Summer Trip!"},
		{Title: "summer trip"},
		{TargetDate: "2099-01-01"},
		{Title: "***"},
		{},
	}
	got := cardIDs(cfgs)
	want := []string{"summer-trip", "summer-trip-2", "2099-01-01", "card", "countdown"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cardIDs()[%d] = %q, want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestStartCards_WiresStoreAndBoard(t *testing.T) {
	now := time.Date(2098, 12, 31, 0, 0, 0, 0, time.UTC)
	store := &state.Store{}
	board := notice.NewBoard()
	cfgs := []config.Card{
		{Title: "Trip", TargetDate: "2099-01-01T00:00:00"},
		{Title: "Empty"},
		{Title: "Broken", TargetDate: "sensor.missing_date"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := startCards(ctx, cfgs, stubBackend{}, store, board, zap.NewNop().Sugar(),
		card.WithClock(func() time.Time { return now }),
		card.WithLocation(time.UTC),
		card.WithInterval(time.Hour),
	)
	defer d.Close()

	snap := waitFor(t, store, func(s state.Snapshot) bool {
		trip, _ := s.Card("trip")
		broken, _ := s.Card("broken")
		return trip.HasResult && broken.LastError != nil
	})
	if len(snap.Cards) != 3 {
		t.Fatalf("store has %d cards, want 3", len(snap.Cards))
	}

	trip, _ := snap.Card("trip")
	if trip.Result.Remaining.Days != 1 || trip.Result.Expired {
		t.Fatalf("trip result = %+v, want one day remaining", trip.Result)
	}

	empty, _ := snap.Card("empty")
	if !errors.Is(empty.ConfigError, card.ErrNoTarget) {
		t.Fatalf("empty ConfigError = %v, want ErrNoTarget", empty.ConfigError)
	}

	broken, _ := snap.Card("broken")
	if !errors.Is(broken.LastError, countdown.ErrInvalidTarget) || broken.HasResult {
		t.Fatalf("broken = %+v, want invalid target and no result", broken)
	}

	var sticky, transient bool
	for _, n := range board.Active() {
		if n.Card == "empty" && !n.Transient {
			sticky = true
		}
		if n.Card == "broken" && n.Transient && strings.Contains(n.Message, "invalid target date") {
			transient = true
		}
	}
	if !sticky || !transient {
		t.Fatalf("notices = %+v, want sticky for empty and transient for broken", board.Active())
	}
}

func TestDeck_Refresh(t *testing.T) {
	now := time.Date(2098, 12, 31, 0, 0, 0, 0, time.UTC)
	store := &state.Store{}
	d := startCards(context.Background(), []config.Card{{Title: "Trip", TargetDate: "2099-01-01"}},
		stubBackend{}, store, notice.NewBoard(), zap.NewNop().Sugar(),
		card.WithClock(func() time.Time { return now }),
		card.WithLocation(time.UTC),
		card.WithInterval(time.Hour),
	)
	defer d.Close()

	if err := d.Refresh(context.Background(), "trip"); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if err := d.Refresh(context.Background(), "nope"); err == nil {
		t.Fatalf("Refresh of unknown card should fail")
	}
}
