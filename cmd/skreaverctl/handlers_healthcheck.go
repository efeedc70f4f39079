package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// runHealthcheck issues GET <url>/ready and classifies the response by
// status code alone: /ready already encodes healthy/degraded/unhealthy
// as 200/503, so there is no body to parse.
func runHealthcheck(ctx context.Context, baseURL string, timeout time.Duration) error {
	url := strings.TrimRight(baseURL, "/") + "/ready"

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return usageErrorf("healthcheck: build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return unavailableErrorf("healthcheck: %s unreachable: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unavailableErrorf("healthcheck: %s reported status %d", url, resp.StatusCode)
	}

	fmt.Printf("%s is ready\n", baseURL)
	return nil
}
