// Package executor monitors a debounced push button and toggles a program
// between idle and executing.
//
// # Lifecycle
//
// Setup runs the OnSetup callback once and starts sampling the button on
// the debounce interval. Each detected press toggles the state machine:
// idle -> executing invokes OnStart, executing -> idle cancels every
// registered periodic callback and then invokes OnStop. OnStart and OnStop
// therefore always alternate, never the same one twice in a row.
//
// # Periodic callbacks
//
// While executing, code (typically OnStart) registers callbacks to run on a
// period via CallbackEveryMillis or CallbackEveryHertz. The registry is a
// fixed table: when it is full, registration fails with ErrRegistryFull and
// nothing is dropped elsewhere. Every stop clears the whole table, so
// OnStart must re-register everything it needs on each press.
//
// # Driving it
//
// The host calls Poll on every iteration of its main loop. All dispatch --
// the detector and the registered callbacks -- happens synchronously inside
// Poll, so timing fidelity is a direct function of poll frequency and of
// how quickly callbacks return.
package executor
