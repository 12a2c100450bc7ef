package spotify

import (
	"skidoodle/spotify-admute/internal/admute"

	"github.com/zmb3/spotify"
)

// snapshotFrom converts the currently playing object from the Spotify API.
// A nil object means the API answered 204 No Content, so nothing is playing.
// The item is null while an ad plays, which is what the poller keys on.
func snapshotFrom(current *spotify.CurrentlyPlaying) *admute.Snapshot {
	if current == nil {
		return &admute.Snapshot{IsPlaying: false}
	}

	snapshot := &admute.Snapshot{
		IsPlaying:  current.Playing,
		ProgressMs: current.Progress,
	}
	if current.Item != nil {
		snapshot.Item = trackFrom(current.Item)
		snapshot.DurationMs = current.Item.Duration
	}
	return snapshot
}

// trackFrom keeps the track name and its first listed artist.
func trackFrom(item *spotify.FullTrack) *admute.Track {
	track := &admute.Track{Name: item.Name}
	if len(item.Artists) > 0 {
		track.Artist = item.Artists[0].Name
	}
	return track
}

func accountFrom(user *spotify.PrivateUser) *admute.Account {
	return &admute.Account{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	}
}
