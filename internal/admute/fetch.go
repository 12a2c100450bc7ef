package admute

import (
	"context"
	"errors"
	"fmt"
)

const retryPromptTitle = "Error"

// errInterrupted ends a retry round that was woken by RequestStop.
var errInterrupted = errors.New("retry interrupted by stop request")

// tryCurrentlyPlaying runs one retry round of up to opts.Attempts fetches, backing off
// between attempts. Service errors re-authenticate the remote before the next attempt.
func (p *Poller) tryCurrentlyPlaying(ctx context.Context) (*Snapshot, error) {
	var lastErr error

	for attempt := 1; attempt <= p.opts.Attempts; attempt++ {
		if attempt > 1 {
			backoff := Backoff(attempt-1, p.opts.TimeUnit)
			p.logger.WithField("attempt", attempt).WithField("backoff", backoff).Debug("backing off before retry")
			if p.stop.Wait(backoff) {
				return nil, errInterrupted
			}
		}
		if ctx.Err() != nil {
			return nil, errInterrupted
		}

		snapshot, err := p.remote.CurrentlyPlaying(ctx)
		if err == nil {
			return snapshot, nil
		}
		lastErr = err

		if errors.Is(err, ErrRemoteService) {
			p.logger.WithError(err).WithField("attempt", attempt).Error("While polling for currently playing track information, got service error")
			if err := p.remote.Reinitialize(ctx); err != nil {
				p.logger.WithError(err).Warn("failed to reinitialize remote session")
			}
			continue
		}
		p.logger.WithError(err).WithField("attempt", attempt).Error("While polling for currently playing track information, got unexpected error")
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrFetchFailed, p.opts.Attempts, lastErr)
}

// currentlyPlayingWithPrompt repeats retry rounds until one succeeds. After the silent
// rounds are used up, each further round needs the user's consent. A nil result with
// p.quit set means the cycle must end without acting.
func (p *Poller) currentlyPlayingWithPrompt(ctx context.Context) *Snapshot {
	for round := 1; ; round++ {
		snapshot, err := p.tryCurrentlyPlaying(ctx)
		if err == nil {
			return snapshot
		}
		if errors.Is(err, errInterrupted) {
			p.logger.Info("retry round interrupted, stopping")
			p.quit = true
			return nil
		}

		p.logger.WithError(err).WithField("round", round).Error("retry round failed")
		if round <= p.opts.SilentRounds {
			continue
		}

		p.logger.Error("Could not poll for currently playing track information. Waiting for user input.")
		reply := p.controller.PromptRetry(retryPromptTitle, p.retryPromptMessage())

		retry, interrupted := p.stop.AwaitReply(reply)
		switch {
		case interrupted:
			p.logger.Info("retry prompt interrupted, stopping")
			p.quit = true
			return nil
		case !retry:
			p.logger.Info("user chose to stop monitoring")
			p.controller.Stopped()
			p.quit = true
			return nil
		}
		p.logger.Info("user chose to retry")
	}
}

func (p *Poller) retryPromptMessage() string {
	if p.opts.LogPath == "" {
		return "Could not poll for currently playing track information.\n\nTry again?"
	}
	return fmt.Sprintf("Could not poll for currently playing track information. Check %s for more info.\n\nTry again?", p.opts.LogPath)
}
