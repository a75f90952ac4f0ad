// Package progress keeps aggregated scheduler counters: how many jobs were
// dispatched, scheduled, preempted or completed. Components report changes as
// deltas so that readers always observe a consistent set of counters.
package progress
