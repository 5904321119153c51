// Package state shares card data between the countdown engines and the UI.
//
// # Overview
//
// Every card's engine publishes into one Store from its own tick goroutines.
// The UI reads immutable Snapshots and learns that something changed through
// Changed.
//
//	Producers (engines):           Consumer (UI):
//	┌──────────────────┐          ┌──────────────────┐
//	│ OnTick / OnError │          │ <-store.Changed()│
//	│      ↓           │          │      ↓           │
//	│ store.Update()   │─────────→│ store.Snapshot() │
//	└──────────────────┘  (mutex) │      ↓           │
//	                              │  render          │
//	                              └──────────────────┘
//
// # Update Semantics
//
// A successful tick replaces the card's Result and clears LastError. A failed
// tick keeps the previous Result, records the error and increments
// ConsecutiveFailures, so the display freezes at its last good value instead
// of blanking. IsStale reports two or more failures in a row.
//
// # Coalescing
//
// Changed is a channel with capacity one. Update, Register and Notify send
// without blocking, so any number of updates between two receives collapse
// into a single redraw.
//
// # Testing Considerations
//
// The zero Store is ready to use. Snapshot returns copies; mutating them
// does not affect the store.
package state
