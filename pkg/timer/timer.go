package timer

import (
	"time"

	"golang.org/x/time/rate"

	"buttonexec/pkg/logx"
)

// Handle identifies a registered periodic event.
//
// Valid handles are positive and never reused; the zero value (None) is the
// "no event" sentinel and is never returned by a successful registration.
type Handle int

// None is the sentinel returned when a registration cannot be installed.
const None Handle = 0

// DefaultMaxEvents is the default slot capacity of a Facility.
const DefaultMaxEvents = 10

type event struct {
	handle Handle
	period time.Duration
	due    time.Time
	fn     func()
}

// Facility is a poll-driven periodic dispatcher with a fixed slot table.
//
// Events fire synchronously inside Update(), in slot order. The Facility is
// owned by a single logical thread of control: Every, Stop and Update must
// not be called concurrently. Calling Every or Stop from inside a fired
// callback is supported.
type Facility struct {
	log logx.Logger
	now func() time.Time

	// overrunWarn throttles lag warnings so a starved poll loop does not
	// flood the log on every Update.
	overrunWarn *rate.Limiter

	next  Handle
	slots []event
}

type Option func(*Facility)

// WithCapacity sets the slot table size. Values < 1 keep the default.
func WithCapacity(n int) Option {
	return func(f *Facility) {
		if n >= 1 {
			f.slots = make([]event, n)
		}
	}
}

// WithNow overrides the clock. Tests use this to drive dispatch
// deterministically without sleeping.
func WithNow(now func() time.Time) Option {
	return func(f *Facility) {
		if now != nil {
			f.now = now
		}
	}
}

func WithLogger(log logx.Logger) Option {
	return func(f *Facility) { f.log = log }
}

// New creates a Facility. The slot table is allocated once and never grows.
func New(opts ...Option) *Facility {
	f := &Facility{
		log:         logx.Nop(),
		now:         time.Now,
		overrunWarn: rate.NewLimiter(rate.Every(5*time.Second), 1),
		slots:       make([]event, DefaultMaxEvents),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Every registers fn to fire every period, starting one period from now.
// It returns None when the table is full or the arguments are invalid.
func (f *Facility) Every(period time.Duration, fn func()) Handle {
	if period <= 0 || fn == nil {
		return None
	}
	for i := range f.slots {
		if f.slots[i].handle != None {
			continue
		}
		f.next++
		f.slots[i] = event{
			handle: f.next,
			period: period,
			due:    f.now().Add(period),
			fn:     fn,
		}
		return f.next
	}
	f.log.Debug("timer slots exhausted", logx.Int("capacity", len(f.slots)))
	return None
}

// Stop cancels the event with the given handle. It is idempotent: stopping
// an unknown, already-stopped or None handle is a no-op returning false.
func (f *Facility) Stop(h Handle) bool {
	if h == None {
		return false
	}
	for i := range f.slots {
		if f.slots[i].handle == h {
			f.slots[i] = event{}
			return true
		}
	}
	return false
}

// Update fires every event whose due time has elapsed, in slot order, and
// resets its due time to now+period. Call it frequently; all scheduling
// fidelity follows from how often Update runs.
func (f *Facility) Update() {
	now := f.now()
	for i := range f.slots {
		ev := &f.slots[i]
		if ev.handle == None || now.Before(ev.due) {
			continue
		}

		if lag := now.Sub(ev.due); lag > ev.period && f.overrunWarn.Allow() {
			f.log.Warn("periodic callback overrun",
				logx.Int("handle", int(ev.handle)),
				logx.Duration("lag", lag),
				logx.Duration("period", ev.period),
			)
		}

		h := ev.handle
		ev.fn()
		// The callback may have stopped this event, or stopped it and let a
		// new registration take the slot. Only re-arm if it is still ours.
		if ev.handle == h {
			ev.due = now.Add(ev.period)
		}
	}
}

// Active returns the number of occupied slots.
func (f *Facility) Active() int {
	n := 0
	for i := range f.slots {
		if f.slots[i].handle != None {
			n++
		}
	}
	return n
}

// Capacity returns the size of the slot table.
func (f *Facility) Capacity() int { return len(f.slots) }
