package report

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs the report job once a day at a fixed hour. The handle
// is created in main and owns the loop goroutine; Start is idempotent
// so a second call while running is a no-op, not an error.
type Scheduler struct {
	mu     sync.Mutex
	job    *Job
	hour   int
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(job *Job, hour int) *Scheduler {
	if hour < 0 || hour > 23 {
		hour = 6
	}
	return &Scheduler{job: job, hour: hour}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop cancels the loop and waits for it to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		timer := time.NewTimer(time.Until(s.nextRun(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.C:
			// Report covers the day that just ended.
			if err := s.job.Run(now.AddDate(0, 0, -1)); err != nil {
				slog.Error("daily report failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
