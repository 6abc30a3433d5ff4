package reputation

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultEndpoint is the public URLhaus query API.
const DefaultEndpoint = "https://urlhaus-api.abuse.ch/v1/url/"

// Remote queries an external reputation feed. Every failure mode
// (transport error, rate limiting, malformed body) is fail-open: the URL
// is treated as not listed and the scan is never aborted.
type Remote struct {
	Endpoint string
	Client   *http.Client
	Limiter  *rate.Limiter
}

// NewRemote builds a feed client with a per-request timeout and a modest
// request rate so bulk scans do not hammer the feed.
func NewRemote(endpoint string, timeout time.Duration) *Remote {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Remote{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		Limiter:  rate.NewLimiter(rate.Limit(5), 5),
	}
}

type feedResponse struct {
	QueryStatus string `json:"query_status"`
	ID          string `json:"id"`
}

// Listed reports whether the feed knows the URL. A definitive listing
// requires a 200 response with query_status "ok" and a non-empty id.
func (r *Remote) Listed(ctx context.Context, target string) bool {
	if target == "" {
		return false
	}
	if err := r.Limiter.Wait(ctx); err != nil {
		return false
	}

	form := url.Values{"url": {target}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Printf("warning: reputation feed rate limit exceeded")
		return false
	case resp.StatusCode != http.StatusOK:
		return false
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.QueryStatus == "ok" && body.ID != ""
}

// Checker combines the local denylist with an optional remote feed. The
// two checks are independent and carry distinct weights in the rule
// table.
type Checker struct {
	Denylist map[string]struct{}
	Remote   *Remote
}

// DenylistHit reports whether any target's hostname is in the local
// denylist. The first hit wins.
func (c *Checker) DenylistHit(targets []string) bool {
	if len(c.Denylist) == 0 {
		return false
	}
	for _, t := range targets {
		u, err := url.Parse(t)
		if err != nil {
			continue
		}
		if _, ok := c.Denylist[strings.ToLower(u.Hostname())]; ok {
			return true
		}
	}
	return false
}

// RemoteHit fans the targets out to the feed concurrently; the first hit
// cancels the remaining lookups.
func (c *Checker) RemoteHit(ctx context.Context, targets []string) bool {
	if c.Remote == nil || len(targets) == 0 {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hits := make(chan struct{}, len(targets))
	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			if c.Remote.Listed(ctx, target) {
				hits <- struct{}{}
				cancel()
			}
		}(t)
	}
	wg.Wait()

	select {
	case <-hits:
		return true
	default:
		return false
	}
}
