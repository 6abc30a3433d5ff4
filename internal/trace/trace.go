package trace

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/htmlscan"
	"github.com/selimozcann/LinkVerdict/internal/model"
)

const defaultBodyLimit = 512 * 1024

// Outcome carries the observational trace plus the terminal-response
// evidence the rule engine needs (body, disposition) and the conditions
// only the tracer can observe.
type Outcome struct {
	Result        model.TraceResult
	LimitExceeded bool
	NetworkFailed bool
	Body          []byte
	Disposition   string
}

// Tracer performs manual redirect tracing.
type Tracer struct {
	Client    *http.Client
	BodyLimit int64
}

// New creates a new Tracer.
func New(c *http.Client) *Tracer {
	return &Tracer{Client: c, BodyLimit: defaultBodyLimit}
}

// Trace follows redirects starting from start, at most limit of them.
// The (limit+1)th response that is still a redirect marks the limit as
// exceeded without issuing a further request. Transport failures abort
// the loop but never propagate: the hops collected so far are returned
// with a network error recorded.
func (t *Tracer) Trace(ctx context.Context, start *url.URL, limit int) Outcome {
	out := Outcome{Result: model.TraceResult{InputURL: start.String()}}
	res := &out.Result
	current := start

	for i := 0; i <= limit; i++ {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, "Network error: "+err.Error())
			out.NetworkFailed = true
			return out
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			res.Errors = append(res.Errors, "Network error: "+err.Error())
			out.NetworkFailed = true
			return out
		}
		began := time.Now()
		resp, err := t.Client.Do(req)
		elapsed := time.Since(began).Milliseconds()
		if err != nil {
			res.Hops = append(res.Hops, model.TraceHop{URL: current.String(), TimeMs: elapsed})
			res.Errors = append(res.Errors, "Network error: "+err.Error())
			out.NetworkFailed = true
			return out
		}

		hopURL := resp.Request.URL
		status := resp.StatusCode
		reason := http.StatusText(status)
		res.Hops = append(res.Hops, model.TraceHop{
			URL:    hopURL.String(),
			Status: &status,
			Reason: &reason,
			TimeMs: elapsed,
		})

		loc := resp.Header.Get("Location")
		if status >= 300 && status < 400 && loc != "" {
			_ = resp.Body.Close()
			if i == limit {
				out.LimitExceeded = true
				res.FinalURL = hopURL.String()
				return out
			}
			next, err := url.Parse(loc)
			if err != nil {
				res.FinalURL = hopURL.String()
				return out
			}
			current = hopURL.ResolveReference(next)
			continue
		}

		// Terminal response.
		res.FinalURL = hopURL.String()
		res.ContentType = resp.Header.Get("Content-Type")
		out.Disposition = resp.Header.Get("Content-Disposition")
		if htmlscan.ShouldScanBody(res.ContentType) {
			out.Body = htmlscan.ReadBody(resp.Body, t.BodyLimit)
			_ = resp.Body.Close()
			if next, ok := htmlscan.FindRedirect(out.Body, hopURL); ok {
				// Single level of client-side redirect resolution; the
				// target is not traced further.
				res.FinalURL = next.String()
				res.JSOrMetaFollowed = true
			}
		} else {
			_ = resp.Body.Close()
		}
		return out
	}
	return out
}
