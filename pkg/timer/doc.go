// Package timer provides the poll-driven periodic dispatch facility the
// button executor is built on.
//
// # Overview
//
// A Facility holds a fixed table of recurring events. Nothing fires on its
// own: the owner calls Update() from its main loop, and any event whose due
// time has elapsed runs synchronously inside that call, in slot order. This
// keeps dispatch deterministic and needs no goroutines, which is the point:
// the same loop that samples hardware also drives the callbacks.
//
// # Handles
//
// Every successful registration returns a positive Handle that is never
// reused. The zero Handle (None) means "no event" and doubles as the
// registration-failure sentinel when the table is full. Stop is idempotent,
// so a stale or already-cancelled handle can never cancel someone else's
// event.
//
// # Timing
//
// Due times reset to now+period after each fire, so a late Update does not
// cause catch-up bursts. Fidelity is entirely a function of how often
// Update is called and how long the callbacks run.
package timer
