// Package app runs the ad-muting poller in a worker goroutine and owns everything the
// user sees: prompts, notifications, the display status and monitoring start/stop.
//
// The worker never touches the application's state directly. Whatever it needs done
// is posted as a request and executed by the controller loop in Run.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"skidoodle/spotify-admute/internal/admute"
	"skidoodle/spotify-admute/internal/notify"
	"skidoodle/spotify-admute/internal/websocket"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

const (
	defaultHeartbeat = 10 * time.Second
	requestBuffer    = 16
)

// Broadcaster receives every display update.
type Broadcaster interface {
	Broadcast(state websocket.DisplayState)
}

// Deps are the collaborators of an App.
type Deps struct {
	Remote   admute.Remote
	Muter    admute.Muter
	Notifier notify.Notifier
	Prompter Prompter
	Logger   *logrus.Entry
}

// Options configure an App.
type Options struct {
	// Username, when set, must match the authorized account.
	Username string
	// Poll is handed to the poller.
	Poll admute.Options
	// Heartbeat is the interval of the worker liveness check.
	Heartbeat time.Duration
}

// App is the controller around one Poller.
type App struct {
	poller      *admute.Poller
	muter       admute.Muter
	notifier    notify.Notifier
	prompter    Prompter
	broadcaster Broadcaster
	logger      *logrus.Entry
	username    string
	heartbeat   time.Duration

	requests chan request
	done     chan struct{}

	// job is swapped by the controller; the worker only reads it in Stopped.
	job atomic.Pointer[job]
	// deferred holds start and stop requests that arrived while a worker was being stopped.
	deferred []request
	ctx      context.Context
	workers  conc.WaitGroup
	prompts  conc.WaitGroup

	mu      sync.RWMutex
	display websocket.DisplayState
}

// New creates an App and its poller.
func New(deps Deps, opts Options) *App {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = defaultHeartbeat
	}
	if deps.Prompter == nil {
		deps.Prompter = FixedPrompter(true)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.New(false, deps.Logger)
	}

	a := &App{
		muter:     deps.Muter,
		notifier:  deps.Notifier,
		prompter:  deps.Prompter,
		logger:    deps.Logger,
		username:  opts.Username,
		heartbeat: opts.Heartbeat,
		requests:  make(chan request, requestBuffer),
		done:      make(chan struct{}),
		display:   websocket.NewDisplayState(admute.Status{}, false),
	}
	a.poller = admute.NewPoller(deps.Remote, deps.Muter, a, deps.Logger.WithField("component", "poller"), opts.Poll)
	return a
}

// SetBroadcaster registers where display updates are pushed. It must be called before Run.
func (a *App) SetBroadcaster(b Broadcaster) {
	a.broadcaster = b
}

// Run logs in, starts monitoring and serves requests until ctx is cancelled. On the
// way out it stops the worker and unmutes the output.
func (a *App) Run(ctx context.Context) error {
	defer close(a.done)
	a.ctx = ctx

	if err := a.poller.Login(ctx, a.username); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer a.poller.Logout()

	a.intro()
	a.startMonitoring()

	ticker := time.NewTicker(a.heartbeat)
	defer ticker.Stop()

	for {
		if len(a.deferred) > 0 {
			r := a.deferred[0]
			a.deferred = a.deferred[1:]
			a.handle(r)
			continue
		}

		select {
		case <-ctx.Done():
			a.logger.Info("shutting down")
			a.stopMonitoring()
			a.restoreVolume()
			a.prompts.Wait()
			a.workers.Wait()
			return nil
		case r := <-a.requests:
			a.handle(r)
		case <-ticker.C:
			a.checkWorker()
		}
	}
}

// Monitoring reports whether a worker is polling.
func (a *App) Monitoring() bool {
	return a.job.Load() != nil
}

// DisplayState returns the status last shown to the user.
func (a *App) DisplayState() websocket.DisplayState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.display
}

// StartMonitoring asks the controller to start a worker if none is running.
func (a *App) StartMonitoring() {
	a.post(request{op: opStartMonitoring})
}

// StopMonitoring asks the controller to stop the running worker.
func (a *App) StopMonitoring() {
	a.post(request{op: opStopMonitoring})
}

func (a *App) intro() {
	status := a.poller.Status()
	a.logger.Infof("Welcome to Spotify Ad Mute, %s!", status.Account.FirstName())
	a.logger.Info("Ads will be muted while monitoring is on.")
}

func (a *App) startMonitoring() {
	if a.job.Load() != nil {
		a.logger.Debug("monitoring already running")
		return
	}

	a.poller.Rearm()
	j := newJob(a.ctx)
	a.job.Store(j)
	a.workers.Go(func() {
		a.work(j)
	})

	a.logger.Info("Started monitoring")
	a.refreshDisplay()
}

// stopMonitoring halts the worker and waits for it to exit. Requests the worker posts
// meanwhile are dropped; start and stop requests are kept for later.
func (a *App) stopMonitoring() {
	j := a.job.Swap(nil)
	if j == nil {
		return
	}

	j.shutdown.Store(true)
	a.poller.RequestStop()
	j.cancel()

	for waiting := true; waiting; {
		select {
		case <-j.done:
			waiting = false
		case r := <-a.requests:
			if r.op == opStartMonitoring || r.op == opStopMonitoring {
				a.deferred = append(a.deferred, r)
			} else {
				a.logger.WithField("op", r.op).Debug("dropping worker request while stopping")
			}
		}
	}

	a.poller.ClearSession()
	a.logger.Info("Stopped monitoring")
	a.refreshDisplay()
}

func (a *App) refreshDisplay() {
	state := websocket.NewDisplayState(a.poller.Status(), a.Monitoring())

	a.mu.Lock()
	a.display = state
	a.mu.Unlock()

	a.logger.Debug(state.Message)
	if a.broadcaster != nil {
		a.broadcaster.Broadcast(state)
	}
}

func (a *App) restoreVolume() {
	if err := a.muter.SetMute(false); err != nil {
		a.logger.WithError(err).Warn("failed to unmute output on exit")
	}
}
