package clock

import "time"

// Periodic is a next-due timestamp for a recurring task. The control loop
// keeps one per background job and polls Due on every tick.
type Periodic struct {
	Interval time.Duration
	next     time.Time
}

// NewPeriodic creates a Periodic that first becomes due one interval after now.
func NewPeriodic(interval time.Duration, now time.Time) *Periodic {
	return &Periodic{Interval: interval, next: now.Add(interval)}
}

// Due reports whether the task should run at now. When it returns true the
// next due time is rescheduled to now + Interval.
func (p *Periodic) Due(now time.Time) bool {
	if now.Before(p.next) {
		return false
	}
	p.next = now.Add(p.Interval)
	return true
}

// Reset reschedules the task one interval after now.
func (p *Periodic) Reset(now time.Time) {
	p.next = now.Add(p.Interval)
}

// Next returns the next due time.
func (p *Periodic) Next() time.Time { return p.next }
