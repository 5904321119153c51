package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/tminus/internal/card"
	"github.com/five82/tminus/internal/config"
	"github.com/five82/tminus/internal/countdown"
	"github.com/five82/tminus/internal/notice"
	"github.com/five82/tminus/internal/resolve"
	"github.com/five82/tminus/internal/state"
)

// deck is the set of running cards, in config order.
type deck struct {
	order []string
	cards map[string]*card.Card
}

// startCards creates one card per config entry and wires it to the store
// and the notice board. Cards whose configuration is rejected stay in the
// store with their error so the UI can show them.
func startCards(ctx context.Context, cfgs []config.Card, backend resolve.Backend, store *state.Store, board *notice.Board, log *zap.SugaredLogger, opts ...card.Option) *deck {
	d := &deck{cards: make(map[string]*card.Card, len(cfgs))}
	for i, id := range cardIDs(cfgs) {
		cfg := cfgs[i]
		store.Register(id, cfg)

		c := card.New(id, backend, append([]card.Option{card.WithLogger(log)}, opts...)...)
		c.OnTick(func(res countdown.Result) {
			store.Update(id, &res, nil)
		})
		c.OnError(func(n notice.Notice) {
			board.Raise(n.Card, n.Message, n.Transient)
			if countdown.Skipped(n.Err) {
				store.Update(id, nil, n.Err)
			}
		})

		if err := c.SetConfig(ctx, cfg); err != nil {
			log.Warnw("card not started", "card", id, "error", err)
			store.SetConfigError(id, err)
			board.Raise(id, err.Error(), false)
		}
		d.order = append(d.order, id)
		d.cards[id] = c
	}
	return d
}

// Refresh recomputes one card immediately.
func (d *deck) Refresh(ctx context.Context, id string) error {
	c, ok := d.cards[id]
	if !ok {
		return fmt.Errorf("unknown card %q", id)
	}
	_, err := c.Refresh(ctx)
	return err
}

// Close stops every card.
func (d *deck) Close() {
	for _, id := range d.order {
		d.cards[id].Close()
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// cardIDs derives stable, unique identifiers from card names.
func cardIDs(cfgs []config.Card) []string {
	ids := make([]string, len(cfgs))
	seen := make(map[string]int, len(cfgs))
	for i, cfg := range cfgs {
		base := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(cfg.Name()), "-"), "-")
		if base == "" {
			base = "card"
		}
		seen[base]++
		id := base
		if n := seen[base]; n > 1 {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		ids[i] = id
	}
	return ids
}
