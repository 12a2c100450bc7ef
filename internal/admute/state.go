package admute

import (
	"fmt"
	"time"
)

// State is the playback state the audio output is reconciled against.
type State int

const (
	StateUnknown State = iota
	StatePaused
	StateMusic
	StateAd
)

func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StateMusic:
		return "music"
	case StateAd:
		return "ad"
	default:
		return "unknown"
	}
}

// Track is the part of a playing item the poller cares about.
type Track struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

func (t Track) String() string {
	return fmt.Sprintf("%q by %s", t.Name, t.Artist)
}

// Snapshot is one fetched description of remote playback.
// A nil Item while IsPlaying means an advertisement or other unknown content.
type Snapshot struct {
	IsPlaying  bool
	Item       *Track
	ProgressMs int
	DurationMs int
}

const (
	adInterval  = 4  // units between polls while no item is known
	maxInterval = 10 // units between polls during a track
)

// Classify maps a snapshot to the state the output should be in.
// A missing snapshot counts as paused.
func Classify(s *Snapshot) State {
	switch {
	case s == nil || !s.IsPlaying:
		return StatePaused
	case s.Item != nil:
		return StateMusic
	default:
		return StateAd
	}
}

// SleepDuration returns how long to wait before the next cycle.
// Without an item the poller checks back after a short fixed interval; during a track it
// wakes one unit after the track should end, but never later than maxInterval units.
func SleepDuration(s *Snapshot, unit time.Duration) time.Duration {
	if s == nil || s.Item == nil {
		return adInterval * unit
	}

	remainingMs := s.DurationMs - s.ProgressMs
	if remainingMs < 0 {
		remainingMs = 0
	}
	remaining := unit*time.Duration(remainingMs)/1000 + unit

	return min(remaining, maxInterval*unit)
}

// Backoff returns the pause before the given retry attempt (1-based): half a unit, doubling each time.
func Backoff(attempt int, unit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return unit / 2 << (attempt - 1)
}
