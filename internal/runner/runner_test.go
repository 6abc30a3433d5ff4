package runner_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/httpclient"
	"github.com/selimozcann/LinkVerdict/internal/model"
	"github.com/selimozcann/LinkVerdict/internal/reputation"
	"github.com/selimozcann/LinkVerdict/internal/rules"
	"github.com/selimozcann/LinkVerdict/internal/runner"
	"github.com/selimozcann/LinkVerdict/internal/scan"
)

func newTestPipeline(t *testing.T, timeout time.Duration) *scan.Pipeline {
	t.Helper()
	table := rules.Default()
	return scan.New(scan.Config{
		Rules:      table,
		Client:     httpclient.New(httpclient.Config{Timeout: timeout}),
		Reputation: &reputation.Checker{Denylist: table.Denylist},
	})
}

func TestRunPreservesOrder(t *testing.T) {
	t.Parallel()
	var served atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served.Add(1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body>%s</body></html>", r.URL.Path)
	}))
	defer srv.Close()

	targets := make([]string, 8)
	for i := range targets {
		targets[i] = fmt.Sprintf("%s/page/%d", srv.URL, i)
	}

	r := runner.New(runner.Config{Threads: 4}, newTestPipeline(t, 5*time.Second))
	items := r.Run(context.Background(), targets)

	if len(items) != len(targets) {
		t.Fatalf("got %d items, want %d", len(items), len(targets))
	}
	if served.Load() != int64(len(targets)) {
		t.Fatalf("served %d requests, want %d", served.Load(), len(targets))
	}
	for i, it := range items {
		if it.Trace.InputURL != targets[i] {
			t.Errorf("item %d: input %q, want %q", i, it.Trace.InputURL, targets[i])
		}
		if it.Verdict.Label != model.LabelSafe {
			t.Errorf("item %d: label %v, want SAFE", i, it.Verdict.Label)
		}
		if it.StartedAt.IsZero() {
			t.Errorf("item %d: zero start time", i)
		}
	}
}

func TestRunCancellation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	targets := []string{srv.URL, srv.URL, srv.URL}
	// Rate limited so workers must wait on the ticker and observe ctx.
	r := runner.New(runner.Config{Threads: 2, RateLimit: 1}, newTestPipeline(t, time.Second))
	items := r.Run(ctx, targets)

	if len(items) != len(targets) {
		t.Fatalf("got %d items, want %d", len(items), len(targets))
	}
	for i, it := range items {
		if it.Verdict.Label == model.LabelSafe {
			t.Errorf("item %d completed despite canceled context", i)
		}
	}
}
