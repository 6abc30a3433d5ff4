package trace_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/httpclient"
	"github.com/selimozcann/LinkVerdict/internal/trace"
)

func setupServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/302", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	})
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<meta http-equiv="refresh" content="0;url=/landing">`))
	})
	mux.HandleFunc("/js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<script>window.location='/landing'</script>`))
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc(
		"/download", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Disposition", `attachment; filename="x.bin"`)
			_, _ = w.Write([]byte{0x4d, 0x5a})
		})
	return httptest.NewServer(mux)
}

func newTracer(t *testing.T) *trace.Tracer {
	t.Helper()
	return trace.New(httpclient.New(httpclient.Config{Timeout: 5 * time.Second}))
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestTraceBasic(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t)

	out := tr.Trace(context.Background(), mustParse(t, srv.URL+"/302"), 3)
	res := out.Result
	if len(res.Hops) != 2 {
		t.Fatalf("expected 2 hops, got %d", len(res.Hops))
	}
	if res.Hops[1].Status == nil || *res.Hops[1].Status != 200 {
		t.Fatalf("expected final 200")
	}
	if res.FinalURL != srv.URL+"/final" {
		t.Fatalf("final URL = %q", res.FinalURL)
	}
	if out.LimitExceeded || out.NetworkFailed {
		t.Fatalf("unexpected flags: %+v", out)
	}
	if res.ContentType == "" {
		t.Fatal("expected content type recorded")
	}
}

func TestTraceMetaAndJSRedirect(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t)

	for _, path := range []string{"/meta", "/js"} {
		out := tr.Trace(context.Background(), mustParse(t, srv.URL+path), 3)
		res := out.Result
		if !res.JSOrMetaFollowed {
			t.Fatalf("%s: expected client-side redirect followed", path)
		}
		if res.FinalURL != srv.URL+"/landing" {
			t.Fatalf("%s: final URL = %q, want %q", path, res.FinalURL, srv.URL+"/landing")
		}
		// single level of resolution, no extra HTTP hop
		if len(res.Hops) != 1 {
			t.Fatalf("%s: expected 1 hop, got %d", path, len(res.Hops))
		}
	}
}

func TestTraceLimitExceeded(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t)

	limit := 3
	out := tr.Trace(context.Background(), mustParse(t, srv.URL+"/loop"), limit)
	if !out.LimitExceeded {
		t.Fatal("expected limit exceeded")
	}
	// the (limit+1)th redirect response is recorded but not followed
	if len(out.Result.Hops) != limit+1 {
		t.Fatalf("expected %d hops, got %d", limit+1, len(out.Result.Hops))
	}
	if out.Result.FinalURL == "" {
		t.Fatal("expected final URL set from last response")
	}
}

func TestTraceNetworkError(t *testing.T) {
	srv := setupServer()
	srv.Close() // connection refused from now on
	tr := newTracer(t)

	out := tr.Trace(context.Background(), mustParse(t, srv.URL+"/302"), 3)
	if !out.NetworkFailed {
		t.Fatal("expected network failure flagged")
	}
	if len(out.Result.Errors) != 1 {
		t.Fatalf("expected 1 error entry, got %d", len(out.Result.Errors))
	}
	if len(out.Result.Hops) != 1 {
		t.Fatalf("expected the failed request recorded as one hop, got %d", len(out.Result.Hops))
	}
	if out.Result.Hops[0].Status != nil {
		t.Fatal("failed hop must have nil status")
	}
	if out.Result.FinalURL != "" {
		t.Fatal("final URL must stay empty when no response was obtained")
	}
}

func TestTraceCancellation(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := tr.Trace(ctx, mustParse(t, srv.URL+"/302"), 3)
	if !out.NetworkFailed {
		t.Fatal("expected canceled trace flagged as failed")
	}
	if len(out.Result.Hops) != 0 {
		t.Fatalf("expected no hops after pre-canceled context, got %d", len(out.Result.Hops))
	}
}

func TestTraceBinaryDownload(t *testing.T) {
	srv := setupServer()
	defer srv.Close()
	tr := newTracer(t)

	out := tr.Trace(context.Background(), mustParse(t, srv.URL+"/download"), 3)
	if out.Result.ContentType != "application/octet-stream" {
		t.Fatalf("content type = %q", out.Result.ContentType)
	}
	if out.Disposition == "" {
		t.Fatal("expected content disposition carried forward")
	}
	if out.Body != nil {
		t.Fatal("non-HTML body must not be read")
	}
}
