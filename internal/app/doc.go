// Package app is the composition root of tminus.
//
// # Overview
//
// Run wires configuration, logging, the Home Assistant connection, the
// countdown cards and the UI together, then blocks in the UI until the user
// quits or the context is cancelled.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()      Read ~/.config/tminus/config.toml
//	       ├─────> logging.New()      JSON log file (the terminal is the UI's)
//	       ├─────> hass.Dial()        REST client + lazy WebSocket
//	       ├─────> startCards()       One card.Card per [[cards]] entry
//	       ├─────> StartPoller()      Backend reachability checks
//	       └─────> ui.Run()           Start TUI (blocks)
//
//	Per card:
//	┌─────────────────────────────────────────┐
//	│ countdown engine tick (every second)    │
//	│  ├─> OnTick  → store.Update(result)     │
//	│  └─> OnError → board.Raise(notice)      │
//	│                store.Update(err) when   │
//	│                the tick was skipped     │
//	└─────────────────────────────────────────┘
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Config file unreadable or invalid TOML
//   - Log file cannot be created
//   - Home Assistant URL cannot be parsed
//
// Everything else is shown, not returned: a card that fails validation stays
// on screen with its issues and a sticky notice, skipped ticks keep the
// previous result and raise a transient notice, and an unreachable backend
// raises a sticky notice that clears itself on recovery.
//
// # Polling Behavior
//
// The poller pings the REST API every 30 seconds. While the backend is
// unreachable the interval doubles per failure, capped at two minutes.
package app
