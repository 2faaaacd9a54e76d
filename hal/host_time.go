package hal

import "time"

type hostTime struct {
	ch   chan uint64
	seq  uint64
	tick time.Duration

	now  func() time.Time
	last time.Time
	acc  time.Duration
}

func newHostTime(tick time.Duration) *hostTime {
	return &hostTime{ch: make(chan uint64, 1024), tick: tick, now: time.Now}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// step emits the ticks elapsed since the previous call. The first call
// emits n ticks and starts the accumulator.
func (t *hostTime) step(n uint64) {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(n)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / t.tick)
	if ticks == 0 {
		return
	}
	t.acc = t.acc % t.tick
	t.stepN(ticks)
}

func (t *hostTime) stepN(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
