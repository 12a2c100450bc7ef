package websocket

import (
	"fmt"

	"skidoodle/spotify-admute/internal/admute"
)

// DisplayState is the client-facing data structure.
type DisplayState struct {
	Monitoring bool          `json:"monitoring"`
	State      string        `json:"state"`
	Track      *admute.Track `json:"track"`
	Account    string        `json:"account,omitempty"`
	Message    string        `json:"message"`
}

// NewDisplayState creates a client-facing DisplayState from the poller status.
func NewDisplayState(status admute.Status, monitoring bool) DisplayState {
	state := DisplayState{
		Monitoring: monitoring,
		State:      status.State.String(),
	}
	if status.LoggedIn {
		state.Account = status.Account.ID
	}
	if !monitoring {
		state.State = admute.StateUnknown.String()
		state.Message = "Monitoring is off."
		return state
	}

	state.Track = status.Track
	switch {
	case status.State == admute.StateMusic && status.Track != nil:
		state.Message = fmt.Sprintf("Currently playing %s.", status.Track)
	case status.State == admute.StateAd:
		state.Message = "Currently playing an ad."
	case status.State == admute.StatePaused:
		state.Message = "Currently playing nothing."
	default:
		state.Message = "Waiting for playback information."
	}
	return state
}
