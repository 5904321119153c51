// Package card is the boundary between a configured countdown and whatever
// displays it.
//
// SetConfig validates the card, refuses it outright when it names no target,
// and otherwise restarts the engine with a fresh template cache. Results
// arrive through OnTick; per-tick failures and validation warnings arrive
// through OnError as notice.Notice values. Close stops the engine and clears
// the cache; ticks still waiting on Home Assistant are discarded.
package card
