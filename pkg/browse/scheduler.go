package browse

import "time"

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Callbacks may run on any goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules on the wall clock.
var SystemScheduler Scheduler = clockScheduler{}

// debouncer collapses bursts of triggers into one call after a quiet period.
// A generation counter discards callbacks of timers that were replaced
// after they had already started firing.
type debouncer struct {
	scheduler Scheduler
	delay     time.Duration
	timer     Timer
	gen       uint64
}

// trigger must be called with the controller lock held. fire receives the
// generation it was scheduled with and should ignore stale ones.
func (d *debouncer) trigger(fire func(gen uint64)) {
	d.stop()
	d.gen++
	gen := d.gen
	d.timer = d.scheduler.AfterFunc(d.delay, func() { fire(gen) })
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *debouncer) current(gen uint64) bool {
	return d.gen == gen
}
