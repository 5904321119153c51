// Package notice keeps the short messages cards raise when a tick fails.
//
// Transient notices vanish after TTL (8s) or when dismissed; configuration
// problems are raised as non-transient and stay until the card is fixed.
package notice
