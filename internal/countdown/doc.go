// Package countdown computes what a countdown card shows.
//
// Each tick resolves the target (and optional creation) value through a
// Source, parses it with package datetime, and produces a Result: the
// remaining time split over the enabled units, the elapsed fraction of the
// creation-to-target interval, and the headline and subtitle text.
//
// Unit breakdown cascades coarsest first. A disabled unit takes nothing and
// its range is not folded into the next enabled unit's divisor, so with days
// and minutes enabled a difference of 1d 2h 3m is shown as 1 day and 123
// minutes.
//
// A tick that cannot resolve or parse its target is skipped: the error goes
// to the OnError hook and the previous Result stays current. Ticks run on
// their own goroutines and may overlap when the backend is slow; a result
// older than the one already published, or from a stopped engine, is dropped.
package countdown
