package carousel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func newMachine(t *testing.T, n int, cfg Config) *Machine {
	t.Helper()
	m, err := NewMachine(n, cfg, t0)
	require.NoError(t, err)
	return m
}

func autoPlay(intervalMs, lockMs int) Config {
	return Config{
		Interval: time.Duration(intervalMs) * time.Millisecond,
		Lock:     time.Duration(lockMs) * time.Millisecond,
		AutoPlay: true,
	}
}

func TestMachine_AutoPlayScenario(t *testing.T) {
	for _, lock := range []int{0, 600} {
		m := newMachine(t, 5, autoPlay(1000, lock))

		m.Advance(at(4500))

		st := m.State()
		assert.Equal(t, 4, st.Index, "lock %dms", lock)
		assert.True(t, st.Armed)
	}
}

func TestMachine_AutoPlayIsDriftFree(t *testing.T) {
	m := newMachine(t, 5, autoPlay(1000, 600))

	// Advancing late still schedules from the previous tick.
	m.Advance(at(1300))
	d, ok := m.Deadline()
	require.True(t, ok)
	assert.Equal(t, at(1600), d, "lock release comes first")

	m.Advance(at(1600))
	d, _ = m.Deadline()
	assert.Equal(t, at(2000), d)
}

func TestMachine_WrapAround(t *testing.T) {
	m := newMachine(t, 3, Config{})

	require.True(t, m.Prev(t0))
	assert.Equal(t, 2, m.State().Index)

	m.Advance(at(1))
	require.True(t, m.Next(at(1)))
	assert.Equal(t, 0, m.State().Index)
}

func TestMachine_RequestsDroppedDuringTransition(t *testing.T) {
	m := newMachine(t, 5, Config{Lock: 600 * time.Millisecond})

	require.True(t, m.Next(t0))
	assert.True(t, m.State().Transitioning)

	assert.False(t, m.Next(at(100)))
	assert.False(t, m.Prev(at(200)))
	assert.False(t, m.Goto(at(300), 3))
	assert.Equal(t, 1, m.State().Index)

	m.Advance(at(599))
	assert.True(t, m.State().Transitioning)
	m.Advance(at(600))
	assert.False(t, m.State().Transitioning)

	assert.True(t, m.Goto(at(700), 3))
	assert.Equal(t, 3, m.State().Index)
}

func TestMachine_GotoNoOps(t *testing.T) {
	m := newMachine(t, 4, Config{Lock: 600 * time.Millisecond})

	assert.False(t, m.Goto(t0, 0), "current slide")
	assert.False(t, m.Goto(t0, -1))
	assert.False(t, m.Goto(t0, 4))
	assert.False(t, m.State().Transitioning)
}

func TestMachine_HoverPausesAndResumesWithFullInterval(t *testing.T) {
	m := newMachine(t, 5, autoPlay(1000, 0))

	m.PointerEnter(at(500))
	assert.False(t, m.State().Armed)
	m.Advance(at(10_000))
	assert.Equal(t, 0, m.State().Index, "no tick while hovered")

	m.PointerLeave(at(10_000))
	m.Advance(at(10_999))
	assert.Equal(t, 0, m.State().Index, "fresh interval after leave")
	m.Advance(at(11_000))
	assert.Equal(t, 1, m.State().Index)
}

func TestMachine_UserNavigationWhileHovered(t *testing.T) {
	m := newMachine(t, 5, autoPlay(1000, 600))
	m.PointerEnter(at(100))

	require.True(t, m.Next(at(200)))
	m.Advance(at(5000))
	st := m.State()
	assert.Equal(t, 1, st.Index)
	assert.False(t, st.Transitioning)
	assert.False(t, st.Armed)
}

func TestMachine_ReducedMotionSuppressesAutoPlay(t *testing.T) {
	cfg := autoPlay(1000, 600)
	cfg.ReducedMotion = true
	m := newMachine(t, 5, cfg)

	_, ok := m.Deadline()
	assert.False(t, ok)
	m.PointerEnter(at(10))
	m.PointerLeave(at(20))
	assert.False(t, m.State().Armed, "leave must not arm under reduced motion")

	require.True(t, m.Next(at(30)), "manual navigation still works")

	m.Advance(at(1000))
	m.SetReducedMotion(at(1000), false)
	d, ok := m.Deadline()
	require.True(t, ok)
	assert.Equal(t, at(2000), d)
}

func TestMachine_SingleItemNeverArms(t *testing.T) {
	m := newMachine(t, 1, autoPlay(1000, 600))
	assert.False(t, m.State().Armed)
	m.Advance(at(60_000))
	assert.Equal(t, 0, m.State().Index)
}

func TestMachine_SetAutoPlay(t *testing.T) {
	m := newMachine(t, 3, Config{Interval: time.Second})
	assert.False(t, m.State().Armed)

	require.NoError(t, m.SetAutoPlay(at(250), true))
	d, ok := m.Deadline()
	require.True(t, ok)
	assert.Equal(t, at(1250), d)

	require.NoError(t, m.SetAutoPlay(at(500), true))
	d, _ = m.Deadline()
	assert.Equal(t, at(1250), d, "no-op when unchanged")

	require.NoError(t, m.SetAutoPlay(at(600), false))
	assert.False(t, m.State().Armed)

	noInterval := newMachine(t, 3, Config{})
	assert.ErrorIs(t, noInterval.SetAutoPlay(t0, true), ErrInvalidInterval)
}

func TestMachine_Reconfigure(t *testing.T) {
	m := newMachine(t, 5, autoPlay(1000, 600))
	m.Advance(at(4000))
	require.Equal(t, 4, m.State().Index)
	require.True(t, m.State().Transitioning)

	require.NoError(t, m.Reconfigure(at(4100), 3, 2*time.Second))
	st := m.State()
	assert.Equal(t, 1, st.Index)
	assert.False(t, st.Transitioning, "lock cleared")
	d, _ := m.Deadline()
	assert.Equal(t, at(6100), d)

	assert.ErrorIs(t, m.Reconfigure(at(4200), 0, time.Second), ErrNoItems)
	assert.ErrorIs(t, m.Reconfigure(at(4200), 3, 0), ErrInvalidInterval)
}

func TestMachine_Stop(t *testing.T) {
	m := newMachine(t, 5, autoPlay(1000, 600))
	m.Next(t0)
	m.Stop()

	_, ok := m.Deadline()
	assert.False(t, ok)
	assert.False(t, m.Advance(at(60_000)))
	assert.False(t, m.Next(at(60_000)))
	assert.Equal(t, 1, m.State().Index)
}

func TestNewMachine_Errors(t *testing.T) {
	_, err := NewMachine(0, Config{}, t0)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = NewMachine(3, Config{AutoPlay: true}, t0)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

// Random interleavings of user requests, pointer moves and elapsed time.
func TestMachine_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		cfg := Config{
			Interval:      time.Duration(rapid.IntRange(1, 3000).Draw(t, "interval")) * time.Millisecond,
			Lock:          time.Duration(rapid.IntRange(0, 1000).Draw(t, "lock")) * time.Millisecond,
			AutoPlay:      rapid.Bool().Draw(t, "autoplay"),
			ReducedMotion: rapid.Bool().Draw(t, "reduced"),
		}
		m, err := NewMachine(n, cfg, t0)
		if err != nil {
			t.Fatalf("NewMachine: %v", err)
		}

		now := t0
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			now = now.Add(time.Duration(rapid.IntRange(0, 2000).Draw(t, "elapsed")) * time.Millisecond)
			m.Advance(now)

			before := m.State()
			var accepted bool
			switch op := rapid.IntRange(0, 4).Draw(t, "op"); op {
			case 0:
				accepted = m.Next(now)
			case 1:
				accepted = m.Prev(now)
			case 2:
				accepted = m.Goto(now, rapid.IntRange(-1, n).Draw(t, "goto"))
			case 3:
				m.PointerEnter(now)
			case 4:
				m.PointerLeave(now)
			}
			after := m.State()

			if after.Index < 0 || after.Index >= n {
				t.Fatalf("index %d out of range [0,%d)", after.Index, n)
			}
			if before.Transitioning && (accepted || after.Index != before.Index) {
				t.Fatalf("request accepted during transition: %+v -> %+v", before, after)
			}
			if after.Armed && (after.Hovered || after.ReducedMotion || !after.AutoPlay || n < 2) {
				t.Fatalf("timer armed when it must not be: %+v", after)
			}
		}
	})
}

func TestMachine_GotoCompletes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 10).Draw(t, "n")
		lock := time.Duration(rapid.IntRange(1, 1000).Draw(t, "lock")) * time.Millisecond
		m, _ := NewMachine(n, Config{Lock: lock}, t0)
		target := rapid.IntRange(1, n-1).Draw(t, "target")

		if !m.Goto(t0, target) {
			t.Fatalf("Goto(%d) refused from idle", target)
		}
		m.Advance(t0.Add(lock))
		st := m.State()
		if st.Transitioning || st.Index != target {
			t.Fatalf("expected idle at %d, got %+v", target, st)
		}
	})
}

func TestMachine_SkipMissedFiresOnceAfterStall(t *testing.T) {
	m := newMachine(t, 5, autoPlay(1000, 600))

	m.SkipMissed(at(7300))
	m.Advance(at(7300))

	st := m.State()
	assert.Equal(t, 1, st.Index, "one tick for the whole stall")
	d, ok := m.Deadline()
	require.True(t, ok)
	assert.Equal(t, at(7600), d)

	m.Advance(at(7600))
	d, _ = m.Deadline()
	assert.Equal(t, at(8000), d, "cadence stays on the original grid")
}

func TestMachine_SkipMissedKeepsShortDelays(t *testing.T) {
	m := newMachine(t, 5, autoPlay(1000, 0))

	m.SkipMissed(at(1900))
	m.Advance(at(1900))

	assert.Equal(t, 1, m.State().Index)
	d, _ := m.Deadline()
	assert.Equal(t, at(2000), d)
}
