// Package admute mutes the audio output while the streaming client plays an ad.
//
// The Poller fetches the currently playing item, classifies it as paused, music or
// ad, and reconciles the mute state of the output with it. One goroutine calls Poll
// in a loop; any other goroutine may call RequestStop and ClearSession.
package admute

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultAttempts     = 3
	defaultSilentRounds = 1
	defaultTimeUnit     = time.Second
)

// Remote is the streaming service the poller reads playback from.
type Remote interface {
	// CurrentlyPlaying returns the current playback. Errors wrapping ErrRemoteService
	// were reported by the service; anything else is unexpected.
	CurrentlyPlaying(ctx context.Context) (*Snapshot, error)
	// Reinitialize re-establishes the authenticated connection.
	Reinitialize(ctx context.Context) error
	// CurrentUser returns the account the connection is authorized for.
	CurrentUser(ctx context.Context) (*Account, error)
}

// Muter mutes and unmutes the default audio output.
type Muter interface {
	SetMute(muted bool) error
}

// Controller is the application side of the poller. Every call is made from the
// polling goroutine and must not block on the application's own work.
type Controller interface {
	// PromptRetry asks the user whether to keep retrying. The answer arrives on the returned channel.
	PromptRetry(title, message string) <-chan bool
	// DisplayChanged reports that the state or track shown to the user changed.
	DisplayChanged()
	// Stopped reports that monitoring halted because the user gave up retrying.
	Stopped()
}

// Account identifies the logged-in user.
type Account struct {
	ID          string
	DisplayName string
}

// FirstName returns the first word of the display name, falling back to the id.
func (a Account) FirstName() string {
	if fields := strings.Fields(a.DisplayName); len(fields) > 0 {
		return fields[0]
	}
	return a.ID
}

// Status is what the application shows about the poller.
type Status struct {
	LoggedIn bool
	Account  Account
	State    State
	Track    *Track
}

// Options tune the poll loop. Non-positive Attempts and TimeUnit, and a negative
// SilentRounds, select the defaults.
type Options struct {
	// Attempts is the number of fetch attempts in one retry round.
	Attempts int
	// SilentRounds is the number of failed rounds retried before the user is asked.
	SilentRounds int
	// TimeUnit scales every interval of the loop.
	TimeUnit time.Duration
	// LogPath is referenced by user-facing error messages.
	LogPath string
}

type sleeper interface {
	sync.Locker
	Wait(d time.Duration) bool
	AwaitReply(reply <-chan bool) (answer bool, interrupted bool)
	Notify()
	Reset()
}

// Poller turns periodic playback snapshots into mute and unmute calls.
type Poller struct {
	remote     Remote
	muter      Muter
	controller Controller
	logger     *logrus.Entry
	opts       Options

	// stop wakes the poller early; its lock guards account, state and track.
	stop    sleeper
	account *Account
	state   State
	track   *Track

	// quit is only touched by the polling goroutine.
	quit bool
}

// NewPoller creates a Poller. It must be logged in before Poll is called.
func NewPoller(remote Remote, muter Muter, controller Controller, logger *logrus.Entry, opts Options) *Poller {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.SilentRounds < 0 {
		opts.SilentRounds = defaultSilentRounds
	}
	if opts.TimeUnit <= 0 {
		opts.TimeUnit = defaultTimeUnit
	}

	p := &Poller{
		remote:     remote,
		muter:      muter,
		controller: controller,
		logger:     logger,
		opts:       opts,
		stop:       NewWaiter(),
	}

	p.logger.Debug("created poller")
	return p
}

// Login verifies the remote session and starts a fresh poller session.
// A non-empty username must match the authorized account id.
func (p *Poller) Login(ctx context.Context, username string) error {
	account, err := p.remote.CurrentUser(ctx)
	if err != nil {
		p.logger.WithError(err).Error("failed to look up current user")
		return err
	}
	if username != "" && account.ID != username {
		p.logger.WithField("username", username).WithField("account", account.ID).Error("username does not match authorized account")
		return usernameMismatch(username)
	}

	p.stop.Lock()
	p.account = account
	p.state = StateUnknown
	p.track = nil
	p.stop.Unlock()

	p.logger.WithField("account", account.ID).Info("successfully logged in")
	return nil
}

// Logout drops the session. Poll fails with ErrNotLoggedIn afterwards.
func (p *Poller) Logout() {
	p.stop.Lock()
	account := p.account
	p.account = nil
	p.state = StateUnknown
	p.track = nil
	p.stop.Unlock()

	if account != nil {
		p.logger.WithField("account", account.ID).Info("successfully logged out")
	}
}

// Poll runs one cycle: fetch, classify, reconcile the output, then sleep until the
// next cycle is due or RequestStop is called. It returns ErrNotLoggedIn without a
// session and an *ActuationError when the output could not be changed.
func (p *Poller) Poll(ctx context.Context) error {
	if !p.loggedIn() {
		return ErrNotLoggedIn
	}

	snapshot := p.currentlyPlayingWithPrompt(ctx)

	if p.quit {
		p.logger.Info("exiting poll")
		p.quit = false
		return nil
	}

	if err := p.reconcile(snapshot); err != nil {
		return err
	}

	p.stop.Wait(SleepDuration(snapshot, p.opts.TimeUnit))
	return nil
}

// RequestStop wakes the poller from whatever it is waiting on. A poll blocked in a
// retry round aborts without acting.
func (p *Poller) RequestStop() {
	p.stop.Notify()
}

// Rearm drops a stop request that no poll consumed, so a restarted loop sleeps normally.
func (p *Poller) Rearm() {
	p.stop.Reset()
}

// ClearSession forgets the current state and track so the next cycle reports afresh.
func (p *Poller) ClearSession() {
	p.stop.Lock()
	defer p.stop.Unlock()

	p.state = StateUnknown
	p.track = nil
}

// Status returns a copy of the session as the application should display it.
func (p *Poller) Status() Status {
	p.stop.Lock()
	defer p.stop.Unlock()

	status := Status{State: p.state}
	if p.account != nil {
		status.LoggedIn = true
		status.Account = *p.account
	}
	if p.track != nil {
		track := *p.track
		status.Track = &track
	}
	return status
}

func (p *Poller) loggedIn() bool {
	p.stop.Lock()
	defer p.stop.Unlock()
	return p.account != nil
}

// reconcile applies the snapshot. Music and ad states set the mute on every cycle so
// that a volume change made elsewhere is corrected; notifications fire on change only.
func (p *Poller) reconcile(snapshot *Snapshot) error {
	target := Classify(snapshot)

	switch target {
	case StateMusic:
		if err := p.setMute(false); err != nil {
			return err
		}
	case StateAd:
		if err := p.setMute(true); err != nil {
			return err
		}
	}

	p.stop.Lock()
	changed := p.state != target
	if target == StateMusic && (p.track == nil || p.track.Name != snapshot.Item.Name) {
		changed = true
	}
	if changed {
		p.state = target
		p.track = nil
		if target == StateMusic {
			track := *snapshot.Item
			p.track = &track
		}
	}
	p.stop.Unlock()

	if !changed {
		return nil
	}

	switch target {
	case StatePaused:
		p.logger.Info("Not playing music. No action taken.")
	case StateMusic:
		p.logger.Infof("Currently playing %s", snapshot.Item)
	case StateAd:
		p.logger.Info("Playing ad. Muting!")
	}
	p.controller.DisplayChanged()
	return nil
}

func (p *Poller) setMute(muted bool) error {
	if err := p.muter.SetMute(muted); err != nil {
		p.logger.WithError(err).WithField("muted", muted).Error("failed to set mute")
		return &ActuationError{Muted: muted, LogPath: p.opts.LogPath, Err: err}
	}
	return nil
}
