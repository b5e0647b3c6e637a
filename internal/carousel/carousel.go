package carousel

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Snapshot is the rendered state of a carousel: its machine state plus the
// item currently on screen.
type Snapshot[T any] struct {
	State
	Current T `json:"current"`
}

type options struct {
	clock    clockwork.Clock
	onChange func(State)
}

// Option configures a Carousel.
type Option func(*options)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithOnChange registers a callback run on the carousel goroutine every time
// the current slide changes. It must not call back into the carousel.
func WithOnChange(fn func(State)) Option {
	return func(o *options) { o.onChange = fn }
}

// Carousel drives a Machine from a single goroutine. User requests and timer
// expiries are serialized through that goroutine, so the machine never sees
// concurrent access.
type Carousel[T any] struct {
	clock    clockwork.Clock
	onChange func(State)

	cmds     chan func(now time.Time)
	quit     chan struct{}
	stopped  chan struct{}
	quitOnce sync.Once

	// Owned by the run goroutine.
	m        *Machine
	items    []T
	interval time.Duration
}

// New starts a carousel over items. Close must be called to release it.
func New[T any](items []T, cfg Config, opts ...Option) (*Carousel[T], error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Carousel[T]{
		clock:    o.clock,
		onChange: o.onChange,
		cmds:     make(chan func(time.Time)),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		items:    append([]T(nil), items...),
		interval: cfg.Interval,
	}
	m, err := NewMachine(len(items), cfg, c.clock.Now())
	if err != nil {
		return nil, err
	}
	c.m = m
	go c.run()
	return c, nil
}

func (c *Carousel[T]) run() {
	defer close(c.stopped)

	var timer clockwork.Timer
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}
	defer stopTimer()

	for {
		var expired <-chan time.Time
		if deadline, ok := c.m.Deadline(); ok {
			wait := deadline.Sub(c.clock.Now())
			if wait <= 0 {
				c.advance(c.clock.Now())
				continue
			}
			timer = c.clock.NewTimer(wait)
			expired = timer.Chan()
		}

		select {
		case <-c.quit:
			c.m.Stop()
			return
		case cmd := <-c.cmds:
			stopTimer()
			// Events already due apply before the request.
			now := c.clock.Now()
			before := c.m.State().Index
			c.m.SkipMissed(now)
			c.m.Advance(now)
			cmd(now)
			c.notify(before)
		case <-expired:
			timer = nil
			c.advance(c.clock.Now())
		}
	}
}

func (c *Carousel[T]) advance(now time.Time) {
	before := c.m.State().Index
	c.m.SkipMissed(now)
	c.m.Advance(now)
	c.notify(before)
}

func (c *Carousel[T]) notify(before int) {
	if c.onChange == nil {
		return
	}
	if st := c.m.State(); st.Index != before {
		c.onChange(st)
	}
}

func (c *Carousel[T]) snapshot() Snapshot[T] {
	st := c.m.State()
	return Snapshot[T]{State: st, Current: c.items[st.Index]}
}

// do runs fn on the carousel goroutine and waits for it to finish.
func (c *Carousel[T]) do(fn func(now time.Time)) error {
	done := make(chan struct{})
	select {
	case c.cmds <- func(now time.Time) { fn(now); close(done) }:
	case <-c.quit:
		return ErrClosed
	}
	<-done
	return nil
}

// Next requests the next slide. It reports whether the request was accepted;
// requests during a transition are dropped.
func (c *Carousel[T]) Next() (bool, error) {
	var ok bool
	err := c.do(func(now time.Time) { ok = c.m.Next(now) })
	return ok, err
}

// Prev requests the previous slide.
func (c *Carousel[T]) Prev() (bool, error) {
	var ok bool
	err := c.do(func(now time.Time) { ok = c.m.Prev(now) })
	return ok, err
}

// Goto requests slide i.
func (c *Carousel[T]) Goto(i int) (bool, error) {
	var ok bool
	err := c.do(func(now time.Time) { ok = c.m.Goto(now, i) })
	return ok, err
}

// PointerEnter pauses auto-play while the pointer is over the carousel.
func (c *Carousel[T]) PointerEnter() error {
	return c.do(func(now time.Time) { c.m.PointerEnter(now) })
}

// PointerLeave resumes auto-play with a fresh interval.
func (c *Carousel[T]) PointerLeave() error {
	return c.do(func(now time.Time) { c.m.PointerLeave(now) })
}

// SetAutoPlay enables or disables auto-play.
func (c *Carousel[T]) SetAutoPlay(on bool) error {
	var err error
	if doErr := c.do(func(now time.Time) { err = c.m.SetAutoPlay(now, on) }); doErr != nil {
		return doErr
	}
	return err
}

// SetReducedMotion applies the user's reduced-motion preference.
func (c *Carousel[T]) SetReducedMotion(on bool) error {
	return c.do(func(now time.Time) { c.m.SetReducedMotion(now, on) })
}

// SetInterval changes the auto-play interval. Pending timers are restarted.
func (c *Carousel[T]) SetInterval(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidInterval
	}
	var err error
	if doErr := c.do(func(now time.Time) {
		if err = c.m.Reconfigure(now, len(c.items), d); err == nil {
			c.interval = d
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// Replace swaps the item list. Pending timers are restarted and the index
// wraps into the new range.
func (c *Carousel[T]) Replace(items []T) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	items = append([]T(nil), items...)
	var err error
	if doErr := c.do(func(now time.Time) {
		if err = c.m.Reconfigure(now, len(items), c.interval); err == nil {
			c.items = items
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot returns the current state.
func (c *Carousel[T]) Snapshot() (Snapshot[T], error) {
	var snap Snapshot[T]
	err := c.do(func(time.Time) { snap = c.snapshot() })
	return snap, err
}

// Items returns a copy of the item list.
func (c *Carousel[T]) Items() ([]T, error) {
	var items []T
	err := c.do(func(time.Time) { items = append([]T(nil), c.items...) })
	return items, err
}

// Close stops both timers and the carousel goroutine. Nothing fires after
// Close returns. It is safe to call more than once.
func (c *Carousel[T]) Close() error {
	c.quitOnce.Do(func() { close(c.quit) })
	<-c.stopped
	return nil
}
