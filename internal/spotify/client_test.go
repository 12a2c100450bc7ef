package spotify

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"skidoodle/spotify-admute/internal/admute"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

func TestClassifyError(t *testing.T) {
	plain := errors.New("dial tcp: i/o timeout")

	tests := []struct {
		name        string
		err         error
		wantService bool
		wantExpired bool
	}{
		{"api error", spotify.Error{Status: http.StatusBadGateway, Message: "Bad gateway"}, true, false},
		{"unauthorized", spotify.Error{Status: http.StatusUnauthorized, Message: "The access token expired"}, true, true},
		{"wrapped api error", fmt.Errorf("get: %w", spotify.Error{Status: http.StatusTooManyRequests}), true, false},
		{"token refresh", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}, true, true},
		{"token expired text", errors.New("oauth2: token expired and refresh token is not set"), true, true},
		{"network", plain, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if errors.Is(got, admute.ErrRemoteService) != tt.wantService {
				t.Errorf("errors.Is(ErrRemoteService) = %v, want %v (err %v)", !tt.wantService, tt.wantService, got)
			}
			if errors.Is(got, admute.ErrAuthExpired) != tt.wantExpired {
				t.Errorf("errors.Is(ErrAuthExpired) = %v, want %v (err %v)", !tt.wantExpired, tt.wantExpired, got)
			}
		})
	}

	if got := classifyError(plain); got != plain {
		t.Errorf("classifyError(plain) = %v, want it unchanged", got)
	}
}

func TestSnapshotFrom(t *testing.T) {
	if got := snapshotFrom(nil); got.IsPlaying || got.Item != nil {
		t.Fatalf("snapshotFrom(nil) = %+v, want not playing", got)
	}

	ad := snapshotFrom(&spotify.CurrentlyPlaying{Playing: true, Progress: 1200})
	if !ad.IsPlaying || ad.Item != nil || ad.ProgressMs != 1200 {
		t.Fatalf("ad snapshot = %+v", ad)
	}
	if admute.Classify(ad) != admute.StateAd {
		t.Fatalf("ad snapshot classified as %v", admute.Classify(ad))
	}

	item := &spotify.FullTrack{}
	item.Name = "Roygbiv"
	item.Duration = 151000
	item.Artists = []spotify.SimpleArtist{{Name: "Boards of Canada"}, {Name: "Someone Else"}}

	track := snapshotFrom(&spotify.CurrentlyPlaying{Playing: true, Progress: 1000, Item: item})
	if track.Item == nil || track.Item.Name != "Roygbiv" || track.Item.Artist != "Boards of Canada" {
		t.Fatalf("track snapshot item = %+v", track.Item)
	}
	if track.DurationMs != 151000 {
		t.Fatalf("DurationMs = %d, want 151000", track.DurationMs)
	}
}

func TestTrackFrom_NoArtists(t *testing.T) {
	item := &spotify.FullTrack{}
	item.Name = "Untitled"

	if got := trackFrom(item); got.Artist != "" || got.Name != "Untitled" {
		t.Fatalf("trackFrom() = %+v", got)
	}
}

func TestAccountFrom(t *testing.T) {
	user := &spotify.PrivateUser{}
	user.ID = "listener"
	user.DisplayName = "Test Listener"

	account := accountFrom(user)
	if account.ID != "listener" || account.FirstName() != "Test" {
		t.Fatalf("accountFrom() = %+v", account)
	}
}
