package app

import (
	"context"
	"sync/atomic"
)

// job is one run of the worker goroutine.
type job struct {
	ctx      context.Context
	cancel   context.CancelFunc
	shutdown atomic.Bool
	done     chan struct{}
}

func newJob(parent context.Context) *job {
	ctx, cancel := context.WithCancel(parent)
	return &job{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// work polls until the job is shut down or a poll fails.
func (a *App) work(j *job) {
	defer close(j.done)
	defer j.cancel()

	a.logger.Info("worker started")
	defer a.logger.Info("worker exited")

	for !j.shutdown.Load() && j.ctx.Err() == nil {
		if err := a.poller.Poll(j.ctx); err != nil {
			a.post(request{op: opJobFailed, err: err, job: j})
			return
		}
	}
}

// checkWorker stops monitoring when the worker exited without the controller noticing.
func (a *App) checkWorker() {
	j := a.job.Load()
	if j == nil {
		return
	}

	select {
	case <-j.done:
		// The worker may have posted why it exited.
		a.drainRequests()
		if a.job.Load() != j {
			return
		}
		a.logger.Warn("worker is not running, stopping monitoring")
		a.stopMonitoring()
	default:
		a.logger.Debug("heartbeat: worker alive")
	}
}

func (a *App) drainRequests() {
	for {
		select {
		case r := <-a.requests:
			a.handle(r)
		default:
			return
		}
	}
}
