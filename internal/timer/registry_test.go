package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/playback/internal/clock"
)

func TestRegistry_ScheduleFires(t *testing.T) {
	v := clock.NewVirtual()
	r := New(v)
	var got []string

	r.Schedule(200*time.Millisecond, func() { got = append(got, "late") })
	r.Schedule(100*time.Millisecond, func() { got = append(got, "early") })
	assert.Equal(t, 2, r.Pending())

	v.Advance(time.Second)
	assert.Equal(t, []string{"early", "late"}, got)
	assert.Equal(t, 0, r.Pending())
}

func TestRegistry_Cancel(t *testing.T) {
	v := clock.NewVirtual()
	r := New(v)
	fired := false
	h := r.Schedule(10*time.Millisecond, func() { fired = true })

	assert.True(t, r.Cancel(h))
	assert.False(t, r.Cancel(h))
	v.Advance(time.Second)
	assert.False(t, fired)
}

func TestRegistry_CancelAll(t *testing.T) {
	v := clock.NewVirtual()
	r := New(v)
	count := 0
	for i := 0; i < 5; i++ {
		r.Schedule(time.Duration(i)*time.Millisecond, func() { count++ })
	}

	r.CancelAll()
	assert.Equal(t, 0, r.Pending())
	assert.Equal(t, uint64(1), r.Epoch())
	v.Advance(time.Second)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, v.Pending(), "underlying timers are stopped too")
}

func TestRegistry_CancelAllIdempotent(t *testing.T) {
	r := New(clock.NewVirtual())
	r.CancelAll()
	r.CancelAll()
	assert.Equal(t, 0, r.Pending())
}

func TestRegistry_NestedSchedulesAreTracked(t *testing.T) {
	v := clock.NewVirtual()
	r := New(v)
	fired := 0
	r.Schedule(10*time.Millisecond, func() {
		fired++
		r.Schedule(10*time.Millisecond, func() { fired++ })
	})

	v.Advance(10 * time.Millisecond)
	require.Equal(t, 1, fired)
	assert.Equal(t, 1, r.Pending())

	r.CancelAll()
	v.Advance(time.Second)
	assert.Equal(t, 1, fired)
}

// leakyTimer ignores Stop, modelling a callback that a host scheduler had
// already dequeued when cancellation arrived.
type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func TestRegistry_StaleEpochCallbackIsDiscarded(t *testing.T) {
	var queued []func()
	sched := clock.SchedulerFunc(func(_ time.Duration, fn func()) clock.Timer {
		queued = append(queued, fn)
		return leakyTimer{}
	})
	r := New(sched)

	fired := false
	r.Schedule(time.Millisecond, func() { fired = true })
	r.CancelAll()

	require.Len(t, queued, 1)
	queued[0]()
	assert.False(t, fired, "callback from an old epoch must not run")
}

func TestRegistry_FreshEpochStillRuns(t *testing.T) {
	v := clock.NewVirtual()
	r := New(v)
	r.CancelAll()

	fired := false
	r.Schedule(time.Millisecond, func() { fired = true })
	v.Advance(time.Millisecond)
	assert.True(t, fired)
}
