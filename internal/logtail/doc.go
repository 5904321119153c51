// Package logtail reads the end of the tminus log file for the log view.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) however large the file grows:
//
//  1. Store each line at the current index, wrapping at maxLines
//  2. Track how many lines were seen
//  3. When fewer than maxLines were seen, return them as is
//  4. Otherwise return the buffer starting at the oldest line
//
// A missing file is not an error; Read returns nil, nil.
//
// # Decoding
//
// The log is written by package logging as zap JSON lines. Parse decodes
// one line into an Entry (time, level, card, message and the remaining
// fields as strings) and Format renders it for the terminal:
//
//	2025-10-08 21:01:05 WARN [trip] – target date not parseable value=soon
//
// Lines that are not JSON, such as a panic trace, pass through unchanged.
// Coloring is left to the UI.
package logtail
