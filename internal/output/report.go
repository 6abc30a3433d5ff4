package output

import (
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/model"
	"github.com/selimozcann/LinkVerdict/internal/runner"
)

// Summary contains counters for the HTML summary section.
type Summary struct {
	TotalTargets int
	Safe         int
	Suspicious   int
	Unsafe       int
	Unknown      int
	Errors       int
}

// PageData provides the full context for the HTML report.
type PageData struct {
	Title         string
	GeneratedAt   time.Time
	Params        map[string]string
	OrderedParams []Param
	Summary       Summary
	Results       []Record
}

// Param represents a rendered CLI argument/value pair.
type Param struct {
	Key   string
	Value string
}

// BuildSummary derives high level counters from the results.
func BuildSummary(items []runner.Item) Summary {
	sum := Summary{TotalTargets: len(items)}
	for _, it := range items {
		switch it.Verdict.Label {
		case model.LabelSafe:
			sum.Safe++
		case model.LabelSuspicious:
			sum.Suspicious++
		case model.LabelUnsafe:
			sum.Unsafe++
		default:
			sum.Unknown++
		}
		if len(it.Trace.Errors) > 0 {
			sum.Errors++
		}
	}
	return sum
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatTime": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"status": func(h model.TraceHop) int {
		if h.Status == nil {
			return 0
		}
		return *h.Status
	},
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { color-scheme: light dark; }
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; background:#fafafa; color:#111; }
h1 { font-size: 26px; margin: 0 0 8px; }
h2 { font-size: 20px; margin: 0 0 12px; }
.section { border:1px solid #e5e7eb; border-radius:16px; padding:16px 20px; margin-bottom:18px; background:#fff; }
.summary-grid { display:grid; gap:12px; grid-template-columns: repeat(auto-fit,minmax(140px,1fr)); }
.summary-card { padding:12px; border-radius:12px; border:1px solid #cbd5f5; background:#eef2ff; }
.summary-card .count { font-size:22px; font-weight:700; display:block; }
.meta { color:#6b7280; font-size:12px; }
.label { display:inline-block; padding:2px 10px; border-radius:999px; color:#fff; font-size:12px; font-weight:600; }
.label-SAFE { background:#16a34a; }
.label-SUSPICIOUS { background:#ca8a04; }
.label-UNSAFE { background:#dc2626; }
.label-UNKNOWN { background:#6b7280; }
.reason-list { list-style:disc; margin:8px 0 8px 20px; }
.table { width:100%; border-collapse:collapse; font-size:14px; }
.table th, .table td { border-bottom:1px solid #e5e7eb; padding:6px 8px; text-align:left; }
.url { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; font-size:13px; }
@media (prefers-color-scheme: dark) {
        body { background:#0f172a; color:#e2e8f0; }
        .section { background:#1e293b; border-color:#334155; }
        .summary-card { background:#312e81; border-color:#4338ca; color:#e0e7ff; }
        .meta { color:#94a3b8; }
}
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p class="meta">Generated at {{formatTime .GeneratedAt}}</p>
</header>
<section class="section">
  <h2>Summary</h2>
  <div class="summary-grid">
    <div class="summary-card"><span class="count">{{.Summary.TotalTargets}}</span>Targets</div>
    <div class="summary-card"><span class="count">{{.Summary.Safe}}</span>Safe</div>
    <div class="summary-card"><span class="count">{{.Summary.Suspicious}}</span>Suspicious</div>
    <div class="summary-card"><span class="count">{{.Summary.Unsafe}}</span>Unsafe</div>
    <div class="summary-card"><span class="count">{{.Summary.Unknown}}</span>Unknown</div>
    <div class="summary-card"><span class="count">{{.Summary.Errors}}</span>Errors</div>
  </div>
</section>
<section class="section">
  <h2>Parameters</h2>
  <dl>
  {{- range .OrderedParams }}
    <dt><strong>{{.Key}}</strong></dt>
    <dd><span class="url">{{.Value}}</span></dd>
  {{- end }}
  </dl>
</section>
<section class="section">
  <h2>Verdicts</h2>
  {{range .Results}}
    <details open>
      <summary><span class="label label-{{.Label}}">{{.Label}}</span> <span class="url">{{.InputURL}}</span> <span class="meta">score {{.Score}}</span></summary>
      {{if .FinalURL}}<p class="meta">Final URL: <span class="url">{{.FinalURL}}</span>{{if .JSOrMetaFollowed}} (via HTML/JS redirect){{end}}</p>{{end}}
      {{if .Reasons}}
      <ul class="reason-list">
        {{range .Reasons}}<li>{{.}}</li>{{end}}
      </ul>
      {{end}}
      {{if .Hops}}
      <table class="table">
        <thead><tr><th>#</th><th>URL</th><th>Status</th><th>Time (ms)</th></tr></thead>
        <tbody>
        {{range $i, $h := .Hops}}
          <tr><td>{{$i}}</td><td class="url">{{$h.URL}}</td><td>{{status $h}}</td><td>{{$h.TimeMs}}</td></tr>
        {{end}}
        </tbody>
      </table>
      {{end}}
      {{range .Errors}}<p class="meta">Error: {{.}}</p>{{end}}
      <p class="meta">Scanned {{.Timestamp}} • {{.DurationMs}}ms</p>
    </details>
  {{end}}
</section>
</body>
</html>
`))

// RenderHTML renders the HTML report using the provided data.
func RenderHTML(w io.Writer, data PageData) error {
	if data.Params != nil {
		keys := make([]string, 0, len(data.Params))
		for k := range data.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make([]Param, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, Param{Key: k, Value: data.Params[k]})
		}
		data.OrderedParams = ordered
	}
	return htmlTemplate.Execute(w, data)
}
