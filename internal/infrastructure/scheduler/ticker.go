package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/TrueDMGDev/FintechFinalProject/internal/ports"
)

// TickerScheduler fires a job on a fixed interval plus a random jitter, so
// two loops with the same interval drift apart instead of hitting the same
// sites in lockstep. The first run happens immediately.
type TickerScheduler struct {
	interval time.Duration
	jitter   time.Duration
	stop     chan struct{}
	done     chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler for the given period and jitter.
func NewTickerScheduler(interval, jitter time.Duration) *TickerScheduler {
	return &TickerScheduler{interval: interval, jitter: jitter}
}

// Start begins the loop; stopping is cooperative and only happens between
// runs, never mid-job.
func (t *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if t.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop = stop
	t.done = done
	go func() {
		defer close(done)
		job(time.Now())
		for {
			timer := time.NewTimer(t.nextDelay())
			select {
			case now := <-timer.C:
				job(now)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the loop and waits for any in-flight job to return, so callers
// can safely tear down the job's dependencies afterwards. The context bounds
// the wait.
func (t *TickerScheduler) Stop(ctx context.Context) error {
	if t.stop == nil {
		return nil
	}
	close(t.stop)
	t.stop = nil

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TickerScheduler) nextDelay() time.Duration {
	delay := t.interval
	if t.jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(t.jitter)))
	}
	return delay
}
