// Package carousel implements the slide carousel controller: index cycling
// with wraparound, an animation lock, auto-play and hover pause.
package carousel

import (
	"errors"
	"time"
)

var (
	// ErrNoItems is returned when a carousel would have nothing to show.
	ErrNoItems = errors.New("carousel: no items")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("carousel: closed")
	// ErrInvalidInterval is returned for non-positive auto-play intervals.
	ErrInvalidInterval = errors.New("carousel: interval must be positive")
)

// Config holds the timing of one carousel instance.
type Config struct {
	// Interval between auto-play advances.
	Interval time.Duration
	// Lock is how long a transition holds the animation lock. It must be at
	// least as long as the visual transition.
	Lock time.Duration
	// AutoPlay arms the auto-play timer.
	AutoPlay bool
	// ReducedMotion suppresses auto-play regardless of hover state.
	ReducedMotion bool
}

// DefaultLock matches the 600ms slide transition.
const DefaultLock = 600 * time.Millisecond

// State is a snapshot of a Machine.
type State struct {
	Index         int  `json:"index"`
	Count         int  `json:"count"`
	Transitioning bool `json:"transitioning"`
	AutoPlay      bool `json:"autoPlay"`
	Armed         bool `json:"armed"`
	Hovered       bool `json:"hovered"`
	ReducedMotion bool `json:"reducedMotion"`
}

// Machine is the carousel state machine. It never reads the clock: every
// operation takes the current time and pending timers are plain deadlines,
// fired by Advance. A Machine is not safe for concurrent use; Carousel owns
// one on a single goroutine.
type Machine struct {
	n             int
	index         int
	interval      time.Duration
	lock          time.Duration
	autoPlay      bool
	reducedMotion bool
	hovered       bool
	stopped       bool

	transitioning bool
	lockUntil     time.Time
	nextTick      time.Time // zero when the auto-play timer is not armed
}

// NewMachine returns an Idle machine at index 0 with n items.
func NewMachine(n int, cfg Config, now time.Time) (*Machine, error) {
	if n < 1 {
		return nil, ErrNoItems
	}
	if cfg.AutoPlay && cfg.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	m := &Machine{
		n:             n,
		interval:      cfg.Interval,
		lock:          cfg.Lock,
		autoPlay:      cfg.AutoPlay,
		reducedMotion: cfg.ReducedMotion,
	}
	m.rearm(now)
	return m, nil
}

// State returns the current state.
func (m *Machine) State() State {
	return State{
		Index:         m.index,
		Count:         m.n,
		Transitioning: m.transitioning,
		AutoPlay:      m.autoPlay,
		Armed:         !m.nextTick.IsZero(),
		Hovered:       m.hovered,
		ReducedMotion: m.reducedMotion,
	}
}

// Next advances one slide. It is a no-op while a transition is in flight.
func (m *Machine) Next(now time.Time) bool {
	if !m.idle() {
		return false
	}
	m.begin(now, (m.index+1)%m.n)
	return true
}

// Prev goes back one slide. It is a no-op while a transition is in flight.
func (m *Machine) Prev(now time.Time) bool {
	if !m.idle() {
		return false
	}
	m.begin(now, (m.index-1+m.n)%m.n)
	return true
}

// Goto jumps to slide i. It is a no-op while a transition is in flight, when
// i is the current slide, or when i is out of range.
func (m *Machine) Goto(now time.Time, i int) bool {
	if !m.idle() || i == m.index || i < 0 || i >= m.n {
		return false
	}
	m.begin(now, i)
	return true
}

// PointerEnter pauses auto-play.
func (m *Machine) PointerEnter(now time.Time) {
	if m.stopped || m.hovered {
		return
	}
	m.hovered = true
	m.rearm(now)
}

// PointerLeave resumes auto-play with a full interval.
func (m *Machine) PointerLeave(now time.Time) {
	if m.stopped || !m.hovered {
		return
	}
	m.hovered = false
	m.rearm(now)
}

// SetAutoPlay turns auto-play on or off.
func (m *Machine) SetAutoPlay(now time.Time, on bool) error {
	if on && m.interval <= 0 {
		return ErrInvalidInterval
	}
	if m.stopped || m.autoPlay == on {
		return nil
	}
	m.autoPlay = on
	m.rearm(now)
	return nil
}

// SetReducedMotion applies the reduced-motion preference.
func (m *Machine) SetReducedMotion(now time.Time, on bool) {
	if m.stopped || m.reducedMotion == on {
		return
	}
	m.reducedMotion = on
	m.rearm(now)
}

// Reconfigure replaces the item count and interval. Both timers are cleared
// so nothing scheduled against the old configuration fires; auto-play is
// re-armed from now. The index wraps into the new range.
func (m *Machine) Reconfigure(now time.Time, n int, interval time.Duration) error {
	if n < 1 {
		return ErrNoItems
	}
	if m.autoPlay && interval <= 0 {
		return ErrInvalidInterval
	}
	if m.stopped {
		return nil
	}
	m.n = n
	m.interval = interval
	m.index %= n
	m.transitioning = false
	m.lockUntil = time.Time{}
	m.rearm(now)
	return nil
}

// Deadline returns the time of the next pending event, if any.
func (m *Machine) Deadline() (time.Time, bool) {
	var d time.Time
	if m.transitioning {
		d = m.lockUntil
	}
	if !m.nextTick.IsZero() && (d.IsZero() || m.nextTick.Before(d)) {
		d = m.nextTick
	}
	return d, !d.IsZero()
}

// Advance fires every event due at or before now, in chronological order.
// A lock release due at the same instant as a tick is applied first.
// It reports whether the index changed.
func (m *Machine) Advance(now time.Time) bool {
	changed := false
	for !m.stopped {
		lockDue := m.transitioning && !m.lockUntil.After(now)
		tickDue := !m.nextTick.IsZero() && !m.nextTick.After(now)

		switch {
		case lockDue && (!tickDue || !m.nextTick.Before(m.lockUntil)):
			m.transitioning = false
			m.lockUntil = time.Time{}
		case tickDue:
			at := m.nextTick
			m.nextTick = at.Add(m.interval)
			if m.Next(at) {
				changed = true
			}
		default:
			return changed
		}
	}
	return changed
}

// SkipMissed collapses auto-play ticks missed by a late driver. When now is
// at least one full interval past the pending tick, the tick moves to the
// last slot on its grid at or before now, so the following Advance fires it
// once instead of replaying every missed slot.
func (m *Machine) SkipMissed(now time.Time) {
	if m.stopped || m.nextTick.IsZero() || m.interval <= 0 {
		return
	}
	late := now.Sub(m.nextTick)
	if late < m.interval {
		return
	}
	m.nextTick = m.nextTick.Add(late - late%m.interval)
}

// Stop clears both timers. Nothing fires afterwards.
func (m *Machine) Stop() {
	m.stopped = true
	m.transitioning = false
	m.lockUntil = time.Time{}
	m.nextTick = time.Time{}
}

func (m *Machine) idle() bool {
	return !m.stopped && !m.transitioning
}

func (m *Machine) begin(now time.Time, index int) {
	m.index = index
	if m.lock <= 0 {
		return
	}
	m.transitioning = true
	m.lockUntil = now.Add(m.lock)
}

// rearm clears the auto-play timer and arms it again from now when allowed.
func (m *Machine) rearm(now time.Time) {
	m.nextTick = time.Time{}
	if m.stopped || !m.autoPlay || m.n < 2 || m.reducedMotion || m.hovered || m.interval <= 0 {
		return
	}
	m.nextTick = now.Add(m.interval)
}
