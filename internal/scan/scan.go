package scan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/detect"
	"github.com/selimozcann/LinkVerdict/internal/httpclient"
	"github.com/selimozcann/LinkVerdict/internal/model"
	"github.com/selimozcann/LinkVerdict/internal/reputation"
	"github.com/selimozcann/LinkVerdict/internal/rules"
	"github.com/selimozcann/LinkVerdict/internal/trace"
	"github.com/selimozcann/LinkVerdict/internal/urlx"
)

// Progress receives checkpoint reports during a scan: a non-decreasing
// fraction in [0,1] and a short phase description. The final call carries
// the resolved label. It is invoked synchronously from the scanning
// goroutine and must be cheap.
type Progress func(fraction float64, message string)

// NopProgress discards progress reports.
func NopProgress(float64, string) {}

// Config assembles a Pipeline. Zero values get sensible defaults; tests
// inject their own rule tables and reputation checkers.
type Config struct {
	Rules      *rules.Table
	Timeout    time.Duration
	Client     *http.Client
	Reputation *reputation.Checker
}

// Pipeline runs the full triage sequence for one URL at a time. It holds
// only immutable state and is safe for concurrent scans.
type Pipeline struct {
	rules   *rules.Table
	tracer  *trace.Tracer
	checker *reputation.Checker
}

// New builds a Pipeline from cfg.
func New(cfg Config) *Pipeline {
	table := cfg.Rules
	if table == nil {
		table = rules.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = httpclient.New(httpclient.Config{Timeout: timeout})
	}
	checker := cfg.Reputation
	if checker == nil {
		checker = &reputation.Checker{
			Denylist: table.Denylist,
			Remote:   reputation.NewRemote(reputation.DefaultEndpoint, timeout),
		}
	}
	return &Pipeline{
		rules:   table,
		tracer:  trace.New(client),
		checker: checker,
	}
}

// Scan triages rawURL and returns the trace and verdict. It never
// returns an error and never panics out: input errors, transport errors
// and internal faults are all folded into the returned structures.
func (p *Pipeline) Scan(ctx context.Context, rawURL string, report Progress) (tr model.TraceResult, v model.Verdict) {
	if report == nil {
		report = NopProgress
	}
	tr = model.TraceResult{InputURL: rawURL}
	v = model.Verdict{Label: model.LabelUnknown}

	defer func() {
		if r := recover(); r != nil {
			tr.Errors = append(tr.Errors, fmt.Sprintf("An unexpected error occurred: %v", r))
			v.Label = model.LabelUnknown
			v.Reasons = append(v.Reasons, "An internal error occurred")
		}
	}()

	hit := func(h *detect.Hit) bool {
		if h == nil {
			return false
		}
		v.Score += h.Score
		v.Reasons = append(v.Reasons, h.Reason)
		return true
	}

	report(0.1, "Validating URL...")
	u, err := urlx.Normalize(rawURL)
	if err != nil {
		reason := "Invalid URL"
		if errors.Is(err, urlx.ErrScheme) {
			reason = "Invalid URL scheme"
		}
		tr.Errors = append(tr.Errors, reason)
		v.Reasons = append(v.Reasons, reason)
		report(1.0, string(model.LabelUnknown))
		return tr, v
	}

	// Static heuristics on the input domain, before any network access.
	inputHost := u.Hostname()
	hit(detect.SuspiciousTLD(p.rules, inputHost))
	hit(detect.BrandLookalike(p.rules, inputHost))

	report(0.25, "Following redirects...")
	out := p.tracer.Trace(ctx, u, p.rules.RedirectLimit)
	tr = mergeTrace(rawURL, tr, out.Result)
	hit(detect.RedirectLimit(p.rules, out.LimitExceeded))

	if out.Body != nil {
		report(0.45, "Parsing HTML redirects...")
		if tr.JSOrMetaFollowed {
			// informational, no weight
			v.Reasons = append(v.Reasons, "Followed HTML/JS redirect")
		}
	}

	if out.NetworkFailed {
		hit(detect.NetworkError(p.rules, true))
	} else {
		report(0.65, "Analyzing page...")
		if tr.FinalURL != "" {
			hit(detect.DomainMismatch(p.rules, inputHost, tr.FinalURL))
			hit(detect.BinaryDownload(p.rules, tr.ContentType, out.Disposition))
			if hit(detect.SensitiveForm(p.rules, out.Body)) {
				tr.HasLoginForm = true
			}
		}

		report(0.85, "Checking reputation...")
		targets := distinctURLs(tr)
		if p.checker.DenylistHit(targets) {
			hit(&detect.Hit{Score: p.rules.ScoreDenylistHit, Reason: "Domain found in local denylist"})
		} else if p.checker.RemoteHit(ctx, targets) {
			hit(&detect.Hit{Score: p.rules.ScoreReputationHit, Reason: "URL listed by reputation service"})
		}
	}

	v.Label = labelFor(p.rules, v.Score, len(tr.Errors) > 0)
	report(1.0, string(v.Label))
	return tr, v
}

// labelFor maps a score and the presence of errors to a label. Pure, so
// the mapping is testable on its own.
func labelFor(t *rules.Table, score int, hasErrors bool) model.Label {
	switch {
	case score >= t.UnsafeThreshold:
		return model.LabelUnsafe
	case score >= t.SuspiciousThreshold:
		return model.LabelSuspicious
	case !hasErrors:
		return model.LabelSafe
	default:
		return model.LabelUnknown
	}
}

// mergeTrace carries earlier errors into the tracer's result and keeps
// the caller's raw input URL.
func mergeTrace(rawURL string, prev, traced model.TraceResult) model.TraceResult {
	traced.InputURL = rawURL
	traced.Errors = append(prev.Errors, traced.Errors...)
	return traced
}

// distinctURLs collects the unique hop URLs plus the final URL, in
// chain order.
func distinctURLs(tr model.TraceResult) []string {
	seen := make(map[string]struct{}, len(tr.Hops)+1)
	var out []string
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	for _, hop := range tr.Hops {
		add(hop.URL)
	}
	add(tr.FinalURL)
	return out
}
