package janitor

import (
	"context"
	"os"
	"time"

	"FreeTunes/logger"
)

// Janitor schedules deferred, fire-and-forget deletion of temporary
// artifacts. The delay gives a client a window to finish consuming a
// packaged stream before its segments are reclaimed. Pending deletions
// lapse on Stop; nothing is persisted across restarts.
type Janitor struct {
	delay  time.Duration
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Janitor with the given reclamation delay.
func New(delay time.Duration) *Janitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Janitor{delay: delay, ctx: ctx, cancel: cancel}
}

// Schedule queues path for recursive removal after the delay. It never
// blocks the caller. A path already gone when the timer fires is a logged
// no-op, so concurrent schedules for the same path are safe. Any after
// hooks run once the timer fires, whether or not the path still existed.
func (j *Janitor) Schedule(path string, after ...func()) {
	go func() {
		select {
		case <-time.After(j.delay):
		case <-j.ctx.Done():
			return
		}

		defer func() {
			for _, fn := range after {
				fn()
			}
		}()

		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.Debug("cleanup skipped, path already gone", logger.String("path", path))
			return
		}

		if err := os.RemoveAll(path); err != nil {
			logger.Warn("cleanup failed",
				logger.String("path", path),
				logger.ErrorField(err))
			return
		}
		logger.Info("reclaimed temporary artifact", logger.String("path", path))
	}()
}

// Stop abandons all pending deletions.
func (j *Janitor) Stop() {
	j.cancel()
}
