// Package ui provides the terminal dashboard for tminus.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program styled with Lip Gloss. It only reads: card
// data comes from state.Store snapshots and notices from notice.Board. The
// one action that reaches back into the cards is a manual refresh, passed in
// as Options.Refresh.
//
// # Package Structure
//
//   - app.go: Model, Update loop, commands and Run
//   - cards.go: card grid, per-card box and progress bar
//   - notices.go: strip of active notices below the grid
//   - logs.go: log view fed by logtail
//   - header.go: status bar and command bar
//   - help.go: keyboard shortcut overlay
//   - theme.go: color palettes (Nightfox, Kanagawa, Slate)
//   - keys.go: key bindings
//
// # Event Flow
//
//  1. Init schedules a one second tick and waits on store.Changed.
//  2. Every burst of card updates produces one changedMsg, which refetches
//     the snapshot and re-arms the wait.
//  3. The tick redraws relative timestamps, expires notices from view and
//     tails the log while the log view follows.
//  4. Quitting, or cycling the theme, saves prefs (theme and selected card).
//
// # Key Bindings
//
//   - j/k or arrows: Select card
//   - r: Refresh the selected card
//   - x: Dismiss the newest notice
//   - l / c / Tab: Log view / card view / toggle
//   - Space: Toggle log auto-tail
//   - f: Show only log entries of the selected card
//   - T: Cycle theme
//   - h or ?: Help
//   - e or Ctrl+C: Exit
package ui
