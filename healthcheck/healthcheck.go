// Command healthcheck probes the status server of a running spotify-admute and
// exits non-zero when it is unreachable or unhealthy.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	defaultPort    = "3000"
	requestTimeout = 5 * time.Second
)

type health struct {
	Status     string `json:"status"`
	Monitoring bool   `json:"monitoring"`
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = defaultPort
	}

	h, err := check(ctx, fmt.Sprintf("http://localhost:%s", port))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		os.Exit(1)
	}

	_, _ = fmt.Fprintf(os.Stdout, "status=%s monitoring=%t\n", h.Status, h.Monitoring)
	os.Exit(0)
}

func check(ctx context.Context, baseURL string) (*health, error) {
	url := baseURL + "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "warning: failed to close response body: %v\n", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	var h health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	if h.Status != "ok" {
		return nil, fmt.Errorf("reported status %q", h.Status)
	}
	return &h, nil
}
