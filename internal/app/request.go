package app

type op int

const (
	opPromptRetry op = iota
	opDisplayChanged
	opStopped
	opJobFailed
	opStartMonitoring
	opStopMonitoring
)

func (o op) String() string {
	switch o {
	case opPromptRetry:
		return "prompt_retry"
	case opDisplayChanged:
		return "display_changed"
	case opStopped:
		return "stopped"
	case opJobFailed:
		return "job_failed"
	case opStartMonitoring:
		return "start_monitoring"
	case opStopMonitoring:
		return "stop_monitoring"
	default:
		return "unknown"
	}
}

// request is one operation for the controller loop. reply is set for operations
// that answer the sender.
type request struct {
	op      op
	title   string
	message string
	err     error
	job     *job
	reply   chan bool
}

// post hands r to the controller. It gives up once Run has returned.
func (a *App) post(r request) {
	select {
	case a.requests <- r:
	case <-a.done:
	}
}

// PromptRetry is called by the poller from the worker goroutine.
func (a *App) PromptRetry(title, message string) <-chan bool {
	reply := make(chan bool, 1)
	a.post(request{op: opPromptRetry, title: title, message: message, job: a.job.Load(), reply: reply})
	return reply
}

// DisplayChanged is called by the poller from the worker goroutine.
func (a *App) DisplayChanged() {
	a.post(request{op: opDisplayChanged})
}

// Stopped is called by the poller from the worker goroutine. The worker's loop ends
// before the controller gets to the request.
func (a *App) Stopped() {
	j := a.job.Load()
	if j != nil {
		j.shutdown.Store(true)
	}
	a.post(request{op: opStopped, job: j})
}

func (a *App) handle(r request) {
	a.logger.WithField("op", r.op).Debug("handling request")

	switch r.op {
	case opPromptRetry:
		j := r.job
		if j == nil || j != a.job.Load() {
			return
		}
		a.prompts.Go(func() {
			r.reply <- a.prompter.Confirm(j.ctx, r.title, r.message)
		})
	case opDisplayChanged:
		a.refreshDisplay()
	case opStopped:
		if r.job == nil || r.job != a.job.Load() {
			return
		}
		a.notifier.Notify("Spotify Ad Mute", "Monitoring stopped. Start it again when Spotify is reachable.")
		a.stopMonitoring()
	case opJobFailed:
		if r.job == nil || r.job != a.job.Load() {
			return
		}
		a.logger.WithError(r.err).Error("worker failed")
		a.notifier.Notify("Error", r.err.Error())
		a.stopMonitoring()
	case opStartMonitoring:
		a.startMonitoring()
	case opStopMonitoring:
		a.stopMonitoring()
	}
}
