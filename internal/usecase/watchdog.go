package usecase

import "time"

const DefaultInactivityTimeout = 60 * time.Second

// deadline is the inactivity timer of one room. Its fields are guarded by the
// room's lock.
type deadline struct {
	timer      *time.Timer
	generation uint64
}

// Watchdog ends matches that stall. Every arm bumps the room's generation, and
// a firing timer only acts when its generation is still the current one.
type Watchdog struct {
	timeout time.Duration
}

func NewWatchdog(timeout time.Duration) *Watchdog {
	if timeout <= 0 {
		timeout = DefaultInactivityTimeout
	}

	return &Watchdog{timeout: timeout}
}

func (that *Watchdog) Timeout() time.Duration {
	return that.timeout
}

// Arm cancels any outstanding timer and schedules onExpire with the new generation.
func (that *Watchdog) Arm(d *deadline, onExpire func(generation uint64)) {
	that.Cancel(d)

	generation := d.generation
	d.timer = time.AfterFunc(that.timeout, func() {
		onExpire(generation)
	})
}

// Cancel stops the timer. A callback already in flight is invalidated by the
// generation bump.
func (that *Watchdog) Cancel(d *deadline) {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.generation++
}

// IsCurrent reports whether a firing timer still owns the deadline.
func (that *Watchdog) IsCurrent(d *deadline, generation uint64) bool {
	return d.timer != nil && d.generation == generation
}
