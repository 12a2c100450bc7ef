package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// redirectTransport sends every request to target, keeping the path.
type redirectTransport struct {
	target *url.URL
}

func (t redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	req.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

// fakeSpotify serves the token endpoint and the currently-playing endpoint. Tokens
// expire at once, so every API call forces a refresh.
type fakeSpotify struct {
	tokens atomic.Int32
}

func (f *fakeSpotify) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/token":
		n := f.tokens.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":1}`, n)
	case "/v1/me/player/currently-playing":
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"is_playing":true,"progress_ms":1000,"item":{"name":"Roygbiv","duration_ms":151000,"artists":[{"name":"Boards of Canada"}]}}`)
	default:
		http.NotFound(w, r)
	}
}

func newRedirectedClient(t *testing.T) (*Client, *fakeSpotify, context.Context) {
	t.Helper()

	fake := &fakeSpotify{}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	target, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: redirectTransport{target: target}})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewClient(ctx, "id", "secret", "refresh", logrus.NewEntry(logger)), fake, ctx
}

func TestClient_CurrentlyPlaying(t *testing.T) {
	c, _, _ := newRedirectedClient(t)

	snapshot, err := c.CurrentlyPlaying(context.Background())
	if err != nil {
		t.Fatalf("CurrentlyPlaying returned error: %v", err)
	}
	if !snapshot.IsPlaying || snapshot.Item == nil || snapshot.Item.Name != "Roygbiv" || snapshot.DurationMs != 151000 {
		t.Fatalf("snapshot = %+v", snapshot)
	}
}

func TestClient_RefreshesAfterReinitializeContextEnds(t *testing.T) {
	c, fake, base := newRedirectedClient(t)

	callCtx, cancel := context.WithCancel(base)
	if err := c.Reinitialize(callCtx); err != nil {
		t.Fatalf("Reinitialize returned error: %v", err)
	}
	cancel()

	before := fake.tokens.Load()
	for i := 0; i < 2; i++ {
		if _, err := c.CurrentlyPlaying(context.Background()); err != nil {
			t.Fatalf("CurrentlyPlaying #%d after the reinitialize context ended: %v", i+1, err)
		}
	}
	if got := fake.tokens.Load(); got <= before {
		t.Fatalf("token requests = %d, want refreshes after %d", got, before)
	}
}

func TestClient_ReinitializeHonoursCallContext(t *testing.T) {
	c, _, base := newRedirectedClient(t)

	callCtx, cancel := context.WithCancel(base)
	cancel()

	if err := c.Reinitialize(callCtx); err == nil {
		t.Fatal("Reinitialize succeeded with a cancelled context")
	}
	if _, err := c.CurrentlyPlaying(context.Background()); err != nil {
		t.Fatalf("CurrentlyPlaying after a failed reinitialize: %v", err)
	}
}
