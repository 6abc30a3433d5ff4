package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/model"
	"github.com/selimozcann/LinkVerdict/internal/runner"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func sampleItem() runner.Item {
	return runner.Item{
		Trace: model.TraceResult{
			InputURL: "https://example.com/?q=a&b=c",
			FinalURL: "https://landing.example.net/",
			Hops: []model.TraceHop{
				{URL: "https://example.com/?q=a&b=c", Status: intPtr(302), Reason: strPtr("Found"), TimeMs: 12},
				{URL: "https://landing.example.net/", Status: intPtr(200), Reason: strPtr("OK"), TimeMs: 30},
			},
			ContentType:  "text/html",
			HasLoginForm: true,
		},
		Verdict: model.Verdict{
			Label:   model.LabelSuspicious,
			Score:   50,
			Reasons: []string{"Redirected to a different domain", "Page contains a sensitive data form (password, etc.)"},
		},
		StartedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		DurationMs: 431,
	}
}

func TestBuildRecord(t *testing.T) {
	t.Parallel()
	rec := BuildRecord(sampleItem())

	if rec.Timestamp != "2025-06-01T12:00:00Z" {
		t.Fatalf("timestamp = %q", rec.Timestamp)
	}
	if rec.Label != model.LabelSuspicious || rec.Score != 50 {
		t.Fatalf("verdict fields = %v / %d", rec.Label, rec.Score)
	}
	if len(rec.Hops) != 2 || !rec.HasLoginForm || rec.DurationMs != 431 {
		t.Fatalf("trace fields lost: %+v", rec)
	}
}

func TestJSONLWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	if err := w.Write(BuildRecord(sampleItem())); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "\n") {
		t.Fatal("record spans more than one line")
	}
	// URLs must survive without HTML escaping.
	if !strings.Contains(line, "?q=a&b=c") {
		t.Fatalf("query string was escaped: %s", line)
	}

	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.InputURL != "https://example.com/?q=a&b=c" || rec.Score != 50 {
		t.Fatalf("round trip lost fields: %+v", rec)
	}
}

func TestBuildSummary(t *testing.T) {
	t.Parallel()
	items := []runner.Item{
		{Verdict: model.Verdict{Label: model.LabelSafe}},
		{Verdict: model.Verdict{Label: model.LabelSafe}},
		{Verdict: model.Verdict{Label: model.LabelSuspicious}},
		{Verdict: model.Verdict{Label: model.LabelUnsafe}},
		{
			Verdict: model.Verdict{Label: model.LabelUnknown},
			Trace:   model.TraceResult{Errors: []string{"Network error during scan"}},
		},
	}
	sum := BuildSummary(items)
	want := Summary{TotalTargets: 5, Safe: 2, Suspicious: 1, Unsafe: 1, Unknown: 1, Errors: 1}
	if sum != want {
		t.Fatalf("summary = %+v, want %+v", sum, want)
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()
	items := []runner.Item{sampleItem()}
	var buf bytes.Buffer
	err := RenderHTML(&buf, PageData{
		Title:       "LinkVerdict Report",
		GeneratedAt: time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
		Params:      map[string]string{"threads": "5", "max-redirects": "3"},
		Summary:     BuildSummary(items),
		Results:     []Record{BuildRecord(items[0])},
	})
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"LinkVerdict Report",
		"label-SUSPICIOUS",
		"https://landing.example.net/",
		"Redirected to a different domain",
		"max-redirects",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("report missing %q", want)
		}
	}
	// Params render in sorted key order.
	if strings.Index(html, "max-redirects") > strings.Index(html, "threads") {
		t.Fatal("parameters not sorted")
	}
}
