package timer

import (
	"testing"
	"time"
)

// testClock drives Update deterministically; no sleeps.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestFacility(opts ...Option) (*Facility, *testClock) {
	clk := newTestClock()
	opts = append([]Option{WithNow(clk.Now)}, opts...)
	return New(opts...), clk
}

func TestEveryFiresAfterPeriod(t *testing.T) {
	t.Parallel()
	f, clk := newTestFacility()

	count := 0
	h := f.Every(100*time.Millisecond, func() { count++ })
	if h == None {
		t.Fatal("registration failed")
	}

	f.Update()
	if count != 0 {
		t.Fatalf("fired at registration time: count = %d", count)
	}

	clk.advance(99 * time.Millisecond)
	f.Update()
	if count != 0 {
		t.Fatalf("fired before period elapsed: count = %d", count)
	}

	clk.advance(1 * time.Millisecond)
	f.Update()
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	// Same instant again: due time was reset, nothing more fires.
	f.Update()
	if count != 1 {
		t.Fatalf("refired without time passing: count = %d", count)
	}

	clk.advance(100 * time.Millisecond)
	f.Update()
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestLateDispatchDoesNotBurst(t *testing.T) {
	t.Parallel()
	f, clk := newTestFacility()

	count := 0
	f.Every(100*time.Millisecond, func() { count++ })

	// Poll was starved for several periods; exactly one fire, then the due
	// time resets relative to now.
	clk.advance(350 * time.Millisecond)
	f.Update()
	if count != 1 {
		t.Fatalf("count = %d, want 1 (no catch-up bursts)", count)
	}

	clk.advance(99 * time.Millisecond)
	f.Update()
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	clk.advance(1 * time.Millisecond)
	f.Update()
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestDispatchOrderIsSlotOrder(t *testing.T) {
	t.Parallel()
	f, clk := newTestFacility()

	var order []string
	f.Every(50*time.Millisecond, func() { order = append(order, "a") })
	f.Every(50*time.Millisecond, func() { order = append(order, "b") })
	f.Every(50*time.Millisecond, func() { order = append(order, "c") })

	clk.advance(50 * time.Millisecond)
	f.Update()

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestCapacityExhaustion(t *testing.T) {
	t.Parallel()
	f, _ := newTestFacility(WithCapacity(2))

	h1 := f.Every(time.Second, func() {})
	h2 := f.Every(time.Second, func() {})
	if h1 == None || h2 == None {
		t.Fatalf("registrations failed: %v, %v", h1, h2)
	}
	if h1 == h2 {
		t.Fatalf("duplicate handles: %v", h1)
	}

	if h3 := f.Every(time.Second, func() {}); h3 != None {
		t.Fatalf("third registration = %v, want None", h3)
	}
	if got := f.Active(); got != 2 {
		t.Fatalf("Active() = %d, want 2", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()
	f, clk := newTestFacility()

	count := 0
	h := f.Every(100*time.Millisecond, func() { count++ })

	if !f.Stop(h) {
		t.Fatal("first Stop returned false")
	}
	if f.Stop(h) {
		t.Fatal("second Stop returned true")
	}
	if f.Stop(None) {
		t.Fatal("Stop(None) returned true")
	}

	clk.advance(time.Second)
	f.Update()
	if count != 0 {
		t.Fatalf("stopped callback fired %d times", count)
	}
}

func TestStopInsideCallback(t *testing.T) {
	t.Parallel()
	f, clk := newTestFacility()

	count := 0
	var h Handle
	h = f.Every(100*time.Millisecond, func() {
		count++
		f.Stop(h)
	})

	clk.advance(100 * time.Millisecond)
	f.Update()
	clk.advance(time.Second)
	f.Update()

	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if got := f.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0", got)
	}
}

func TestRegisterInsideCallback(t *testing.T) {
	t.Parallel()
	f, clk := newTestFacility()

	var lateFired int
	f.Every(100*time.Millisecond, func() {
		if lateFired == 0 && f.Active() == 1 {
			f.Every(50*time.Millisecond, func() { lateFired++ })
		}
	})

	// The new registration is made during this dispatch and must not fire
	// in the same Update.
	clk.advance(100 * time.Millisecond)
	f.Update()
	if lateFired != 0 {
		t.Fatalf("newly registered event fired in same Update")
	}

	clk.advance(50 * time.Millisecond)
	f.Update()
	if lateFired != 1 {
		t.Fatalf("lateFired = %d, want 1", lateFired)
	}
}

func TestHandlesNeverReused(t *testing.T) {
	t.Parallel()
	f, _ := newTestFacility(WithCapacity(1))

	h1 := f.Every(time.Second, func() {})
	f.Stop(h1)
	h2 := f.Every(time.Second, func() {})

	if h2 == None {
		t.Fatal("re-registration failed")
	}
	if h1 == h2 {
		t.Fatalf("handle %v was reused", h1)
	}
}

func TestInvalidRegistrations(t *testing.T) {
	t.Parallel()
	f, _ := newTestFacility()

	if h := f.Every(0, func() {}); h != None {
		t.Fatalf("zero period accepted: %v", h)
	}
	if h := f.Every(-time.Second, func() {}); h != None {
		t.Fatalf("negative period accepted: %v", h)
	}
	if h := f.Every(time.Second, nil); h != None {
		t.Fatalf("nil callback accepted: %v", h)
	}
	if got := f.Active(); got != 0 {
		t.Fatalf("Active() = %d, want 0", got)
	}
}
