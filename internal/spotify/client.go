package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"skidoodle/spotify-admute/internal/admute"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

const (
	authURL        = "https://accounts.spotify.com/authorize"
	tokenURL       = "https://accounts.spotify.com/api/token"
	requestTimeout = 10 * time.Second
)

// Client reads playback for the account a refresh token was issued to.
// It is safe for concurrent use.
type Client struct {
	// ctx carries every token refresh and API request the client makes after construction.
	ctx    context.Context
	conf   *oauth2.Config
	logger *logrus.Entry

	mu           sync.Mutex
	refreshToken string
	api          *spotify.Client
}

// NewClient creates a Spotify API client using the refresh token flow.
// ctx must stay alive for as long as the client is used.
func NewClient(ctx context.Context, clientID, clientSecret, refreshToken string, logger *logrus.Entry) *Client {
	c := &Client{
		ctx:  ctx,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{spotify.ScopeUserReadCurrentlyPlaying},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		refreshToken: refreshToken,
		logger:       logger,
	}

	// The TokenSource refreshes the access token on demand.
	c.setAPI(c.newAPI(c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})))
	return c
}

// CurrentlyPlaying fetches the user's current playback.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*admute.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := c.client().PlayerCurrentlyPlaying()
	if err != nil {
		return nil, classifyError(err)
	}
	return snapshotFrom(current), nil
}

// CurrentUser returns the account the refresh token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*admute.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := c.client().CurrentUser()
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", classifyError(err))
	}
	return accountFrom(user), nil
}

// Reinitialize drops the cached access token, refreshes it right away and swaps in
// a client built on the new token. ctx bounds only the immediate refresh; later
// refreshes run on the context the client was created with.
func (c *Client) Reinitialize(ctx context.Context) error {
	c.logger.Info("reinitializing spotify session")

	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	token, err := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return fmt.Errorf("refresh token: %w", classifyError(err))
	}
	if token.RefreshToken != "" {
		refreshToken = token.RefreshToken
	}

	tokenSource := oauth2.ReuseTokenSource(token, c.conf.TokenSource(c.ctx, &oauth2.Token{RefreshToken: refreshToken}))

	c.mu.Lock()
	c.refreshToken = refreshToken
	c.api = c.newAPI(tokenSource)
	c.mu.Unlock()

	c.logger.WithField("expiry", token.Expiry).Debug("spotify session reinitialized")
	return nil
}

func (c *Client) newAPI(tokenSource oauth2.TokenSource) *spotify.Client {
	httpClient := oauth2.NewClient(c.ctx, tokenSource)
	httpClient.Timeout = requestTimeout

	api := spotify.NewClient(httpClient)
	return &api
}

func (c *Client) setAPI(api *spotify.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.api = api
}

func (c *Client) client() *spotify.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.api
}

// classifyError marks errors the service reported, and failed token refreshes, as
// service errors so the poller re-authenticates. Everything else is passed through.
func classifyError(err error) error {
	if apiErr, ok := asAPIError(err); ok {
		if apiErr.Status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", admute.ErrAuthExpired, apiErr.Message)
		}
		return fmt.Errorf("%w: %d %s", admute.ErrRemoteService, apiErr.Status, apiErr.Message)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) || strings.Contains(err.Error(), "token expired") {
		return fmt.Errorf("%w: %w", admute.ErrAuthExpired, err)
	}
	return err
}

func asAPIError(err error) (spotify.Error, bool) {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return spotify.Error{}, false
}
