package scheduler

import (
	"context"
	"time"

	"newsdigest/internal/ports"
)

// DailyScheduler fires the job once a day at a fixed local-time hour. The
// first firing waits for the next occurrence of that hour; it never runs the
// job immediately on Start.
type DailyScheduler struct {
	hour     int
	location *time.Location
	now      func() time.Time
	stop     chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

func NewDailyScheduler(hour int, location *time.Location, now func() time.Time) *DailyScheduler {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &DailyScheduler{hour: hour, location: location, now: now}
}

// Start launches the scheduling goroutine. Calling Start twice without an
// intervening Stop is a no-op.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		timer := time.NewTimer(d.untilNext())
		defer timer.Stop()
		for {
			select {
			case t := <-timer.C:
				job(t)
				timer.Reset(d.untilNext())
			case <-ctx.Done():
				return
			case <-d.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the scheduling goroutine.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

// untilNext computes the wait to the next occurrence of the configured hour
// in the configured zone. DST transitions are handled by time.Date.
func (d *DailyScheduler) untilNext() time.Duration {
	now := d.now().In(d.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), d.hour, 0, 0, 0, d.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
