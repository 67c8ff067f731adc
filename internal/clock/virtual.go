package clock

import (
	"container/heap"
	"time"
)

// DefaultRunLimit bounds RunUntilIdle so a self-rescheduling callback cannot
// spin forever.
const DefaultRunLimit = 100000

// Virtual is a manually advanced Scheduler.
//
// Time only moves when Advance or RunUntilIdle is called. Due callbacks fire
// in deadline order, ties broken by the order they were scheduled. Callbacks
// scheduled while firing are honoured within the same Advance if they fall
// inside the window.
//
// Virtual is not safe for concurrent use; it is meant to be driven from the
// test goroutine that also drives the engine.
type Virtual struct {
	now   time.Duration
	seq   uint64
	queue timerHeap
}

// NewVirtual creates a virtual clock at time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Now returns the elapsed virtual time.
func (v *Virtual) Now() time.Duration {
	return v.now
}

// Pending returns the number of callbacks that have not fired or been stopped.
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.queue {
		if !t.stopped {
			n++
		}
	}
	return n
}

// AfterFunc implements Scheduler. Negative delays are treated as zero.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{
		clock: v,
		at:    v.now + d,
		seq:   v.seq,
		fn:    fn,
	}
	heap.Push(&v.queue, t)
	return t
}

// Advance moves time forward by d, firing every callback due on the way.
// It returns the number of callbacks fired.
func (v *Virtual) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := v.now + d
	fired := 0
	for {
		t := v.peek()
		if t == nil || t.at > target {
			break
		}
		heap.Pop(&v.queue)
		if t.stopped {
			continue
		}
		v.now = t.at
		t.fired = true
		t.fn()
		fired++
	}
	v.now = target
	return fired
}

// RunUntilIdle fires callbacks in order until none remain or limit callbacks
// have fired. A limit <= 0 uses DefaultRunLimit. It returns the number fired.
func (v *Virtual) RunUntilIdle(limit int) int {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	fired := 0
	for fired < limit {
		t := v.peek()
		if t == nil {
			break
		}
		heap.Pop(&v.queue)
		if t.stopped {
			continue
		}
		v.now = t.at
		t.fired = true
		t.fn()
		fired++
	}
	return fired
}

// peek returns the earliest live timer, discarding stopped ones.
func (v *Virtual) peek() *virtualTimer {
	for len(v.queue) > 0 {
		t := v.queue[0]
		if !t.stopped {
			return t
		}
		heap.Pop(&v.queue)
	}
	return nil
}

type virtualTimer struct {
	clock   *Virtual
	at      time.Duration
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

// Stop implements Timer.
func (t *virtualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// timerHeap orders timers by deadline, then schedule sequence.
type timerHeap []*virtualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*virtualTimer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
