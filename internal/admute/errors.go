package admute

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoggedIn is returned by Poll when no session is active.
	ErrNotLoggedIn = errors.New("cannot poll because not logged in")

	// ErrRemoteService marks an error the remote service itself reported.
	// The poller re-authenticates before the next attempt when it sees one.
	ErrRemoteService = errors.New("remote service error")

	// ErrAuthExpired is a remote service error caused by an expired or revoked token.
	ErrAuthExpired = fmt.Errorf("%w: authorization expired", ErrRemoteService)

	// ErrFetchFailed is logged when every attempt of a retry round failed.
	ErrFetchFailed = errors.New("could not poll for currently playing track information")

	// ErrUsernameMismatch is returned by Login when the authorized account is not the expected one.
	ErrUsernameMismatch = errors.New("could not verify username")
)

// ActuationError is returned when the audio output could not be muted or unmuted.
// Its message points the user at the log file instead of carrying the driver detail.
type ActuationError struct {
	Muted   bool
	LogPath string
	Err     error
}

func (e *ActuationError) Error() string {
	if e.LogPath == "" {
		return "got an unexpected error while setting mute"
	}
	return fmt.Sprintf("got an unexpected error while setting mute, check %s for more info", e.LogPath)
}

func (e *ActuationError) Unwrap() error {
	return e.Err
}

func usernameMismatch(username string) error {
	return fmt.Errorf("%w: %s, make sure it is the same username as that of the logged-in account", ErrUsernameMismatch, username)
}
