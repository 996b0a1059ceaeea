package executor

import (
	"errors"
	"time"

	"buttonexec/pkg/logx"
	"buttonexec/pkg/timer"
)

// DefaultDebounceInterval is how often the button input is sampled. The
// sampling period itself is the debounce filter: level changes shorter than
// one interval are never observed.
const DefaultDebounceInterval = 10 * time.Millisecond

// maxActiveCallbacks bounds how many periodic callbacks can be registered
// at once. Fixed at compile time; no slot storage is ever allocated after
// construction.
const maxActiveCallbacks = 8

// Callback is a unit of user code run by the executor. Callbacks may be
// closures and must return quickly: they run synchronously inside Poll, so
// a slow callback starves the button detector and every other registration.
type Callback func()

// Config is set once at construction and immutable afterwards.
type Config struct {
	// Pin is the monitored button input.
	Pin PinReader

	// PressedLevel is the level that means "pressed". Either polarity works;
	// wiring with a pull-up usually means Low here.
	PressedLevel Level

	// DebounceInterval defaults to DefaultDebounceInterval when zero.
	DebounceInterval time.Duration

	// OnSetup runs exactly once, from Setup, before monitoring begins.
	OnSetup Callback
	// OnStart runs on every idle -> executing transition. It is the usual
	// place to register periodic callbacks; registrations do not survive a
	// stop, so it must re-register everything each time.
	OnStart Callback
	// OnStop runs on every executing -> idle transition, after the callback
	// table has been fully torn down.
	OnStop Callback

	Log logx.Logger
}

// Executor monitors a push button and toggles between idle and executing,
// running a bounded set of periodic callbacks while executing.
//
// An Executor is owned by a single logical thread of control: Setup, Poll,
// the registration calls and AbortExecution must not be called concurrently.
// Hosts with more than one goroutine must guard the whole instance with one
// mutex. Registration and cancellation from inside callbacks (which run
// inside Poll) is supported; callbacks must not call Poll themselves.
type Executor struct {
	cfg Config
	fac *timer.Facility
	log logx.Logger

	setupDone bool
	lastLevel Level
	executing bool
	slots     [maxActiveCallbacks]timer.Handle
}

// New validates the configuration and returns an executor bound to the
// given timer facility. Call Setup before anything else.
func New(cfg Config, fac *timer.Facility) (*Executor, error) {
	if cfg.Pin == nil {
		return nil, errors.New("executor: config.Pin is required")
	}
	if fac == nil {
		return nil, errors.New("executor: timer facility is required")
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}
	log := cfg.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Executor{cfg: cfg, fac: fac, log: log}, nil
}

// Setup initializes the state machine, invokes OnSetup exactly once, and
// registers the button detector with the timer facility. It must be called
// exactly once before Poll; a second call returns ErrAlreadySetup.
func (e *Executor) Setup() error {
	if e.setupDone {
		return ErrAlreadySetup
	}

	e.log.Info("setting up",
		logx.String("pressed_level", e.cfg.PressedLevel.String()),
		logx.Duration("debounce", e.cfg.DebounceInterval),
	)

	// Start from the complement of the pressed level so the very first
	// sample can never read as an edge.
	e.lastLevel = e.cfg.PressedLevel.Invert()
	e.executing = false
	for i := range e.slots {
		e.slots[i] = timer.None
	}

	if e.cfg.OnSetup != nil {
		e.cfg.OnSetup()
	}

	if h := e.fac.Every(e.cfg.DebounceInterval, e.checkButton); h == timer.None {
		return ErrRegistryFull
	}
	e.setupDone = true

	e.log.Info("ready to start execution")
	return nil
}

// Poll advances the timer facility, which samples the button on its
// debounce interval and fires any due periodic callbacks. Call it on every
// iteration of the host's main loop.
func (e *Executor) Poll() error {
	if !e.setupDone {
		return ErrNotInitialized
	}
	e.fac.Update()
	return nil
}

// checkButton is the internal periodic task driving the state machine. A
// transition fires only when the level changes into the pressed level;
// holding the button does not re-trigger.
func (e *Executor) checkButton() {
	current := e.cfg.Pin.Read()
	if current == e.cfg.PressedLevel && current != e.lastLevel {
		if !e.executing {
			e.startExecution()
		} else {
			e.stopExecution()
		}
	}
	e.lastLevel = current
}

func (e *Executor) startExecution() {
	if e.executing {
		return
	}

	e.log.Info("starting execution")

	if e.cfg.OnStart != nil {
		e.cfg.OnStart()
	}
	e.executing = true
}

func (e *Executor) stopExecution() {
	if !e.executing {
		return
	}

	e.log.Info("stopping execution")

	// Tear the table down first: OnStop must observe zero live registrations.
	for i := range e.slots {
		if e.slots[i] != timer.None {
			e.fac.Stop(e.slots[i])
			e.slots[i] = timer.None
		}
	}

	if e.cfg.OnStop != nil {
		e.cfg.OnStop()
	}
	e.executing = false

	e.log.Info("ready to start execution")
}

// CallbackEveryMillis registers fn to run every period while executing.
// The registration is cleared (and must be re-made) on every stop. A full
// table returns (timer.None, ErrRegistryFull) with no side effects.
func (e *Executor) CallbackEveryMillis(period time.Duration, fn Callback) (timer.Handle, error) {
	if !e.setupDone {
		return timer.None, ErrNotInitialized
	}
	if period <= 0 {
		return timer.None, errors.New("executor: period must be positive")
	}
	if fn == nil {
		return timer.None, errors.New("executor: nil callback")
	}

	for i := range e.slots {
		if e.slots[i] != timer.None {
			continue
		}
		h := e.fac.Every(period, fn)
		if h == timer.None {
			return timer.None, ErrRegistryFull
		}
		e.slots[i] = h
		e.log.Debug("callback registered",
			logx.Int("handle", int(h)),
			logx.Duration("period", period),
		)
		return h, nil
	}

	return timer.None, ErrRegistryFull
}

// CallbackEveryHertz is CallbackEveryMillis with the period given as a
// frequency. The period is 1000/hz milliseconds with integer truncation, so
// frequencies that do not divide 1000 evenly land on the nearest lower
// millisecond (3 Hz -> 333ms). Frequencies above 1000 Hz truncate to zero
// and are rejected.
func (e *Executor) CallbackEveryHertz(hz int, fn Callback) (timer.Handle, error) {
	if hz <= 0 {
		return timer.None, errors.New("executor: frequency must be positive")
	}
	period := time.Duration(1000/hz) * time.Millisecond
	return e.CallbackEveryMillis(period, fn)
}

// StopCallback cancels a registration made by CallbackEveryMillis or
// CallbackEveryHertz. An unknown or already-cancelled handle returns
// ErrHandleNotFound and has no side effect.
func (e *Executor) StopCallback(h timer.Handle) error {
	if !e.setupDone {
		return ErrNotInitialized
	}
	if h == timer.None {
		return ErrHandleNotFound
	}
	for i := range e.slots {
		if e.slots[i] != h {
			continue
		}
		e.fac.Stop(h)
		e.slots[i] = timer.None
		e.log.Debug("callback stopped", logx.Int("handle", int(h)))
		return nil
	}
	return ErrHandleNotFound
}

// AbortExecution forces the executing -> idle transition: the code
// equivalent of pushing the button while executing. It is a no-op when
// already idle.
func (e *Executor) AbortExecution() {
	if !e.executing {
		return
	}
	e.log.Info("aborting execution by request")
	e.stopExecution()
}

// Executing reports whether the state machine is in the executing state.
func (e *Executor) Executing() bool { return e.executing }

// ActiveCallbacks returns the number of occupied registry slots. The button
// detector itself lives in the timer facility, not in this table, so it is
// never counted.
func (e *Executor) ActiveCallbacks() int {
	n := 0
	for i := range e.slots {
		if e.slots[i] != timer.None {
			n++
		}
	}
	return n
}
