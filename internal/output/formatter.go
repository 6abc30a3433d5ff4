package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/selimozcann/LinkVerdict/internal/model"
	"github.com/selimozcann/LinkVerdict/internal/runner"
)

var (
	labelColors = map[model.Label]*color.Color{
		model.LabelSafe:       color.New(color.FgGreen, color.Bold),
		model.LabelSuspicious: color.New(color.FgYellow, color.Bold),
		model.LabelUnsafe:     color.New(color.FgRed, color.Bold),
		model.LabelUnknown:    color.New(color.FgHiBlack, color.Bold),
	}
	dim = color.New(color.FgHiBlack)
)

// SprintLabel returns the colorized verdict label.
func SprintLabel(l model.Label) string {
	c, ok := labelColors[l]
	if !ok {
		c = dim
	}
	return c.Sprint(string(l))
}

func sprintStatus(h model.TraceHop) string {
	if h.Status == nil {
		return dim.Sprint("—")
	}
	s := *h.Status
	switch {
	case s >= 400:
		return color.RedString("%d", s)
	case s >= 300:
		return color.GreenString("%d", s)
	default:
		return color.YellowString("%d", s)
	}
}

// PrintResult renders one scan's chain and verdict to w.
func PrintResult(w io.Writer, idx, total int, it runner.Item) {
	fmt.Fprintf(w, "=== Target %d/%d: %s ===\n", idx+1, total, it.Trace.InputURL)
	for i, hop := range it.Trace.Hops {
		fmt.Fprintf(w, "[%d] %s %s (%dms)\n", i, hop.URL, sprintStatus(hop), hop.TimeMs)
	}
	if it.Trace.FinalURL != "" {
		via := "http"
		if it.Trace.JSOrMetaFollowed {
			via = "html/js redirect"
		}
		fmt.Fprintf(w, "Final: %s %s\n", it.Trace.FinalURL, dim.Sprintf("(via %s)", via))
	}

	fmt.Fprintf(w, "Verdict: %s (score %d)\n", SprintLabel(it.Verdict.Label), it.Verdict.Score)
	if len(it.Verdict.Reasons) > 0 {
		fmt.Fprintln(w, "Reasons:")
		for _, r := range it.Verdict.Reasons {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
	for _, e := range it.Trace.Errors {
		fmt.Fprintf(w, "%s\n", color.RedString("Error: %s", e))
	}
	fmt.Fprintf(w, "Duration: %dms\n\n", it.DurationMs)
}

// PrintSummaryLine renders a one-line summary for one scan.
func PrintSummaryLine(w io.Writer, idx, total int, it runner.Item) {
	final := it.Trace.FinalURL
	if final == "" {
		final = "-"
	}
	fmt.Fprintf(w, "[%d/%d] %s -> %s | %s | score=%d | reasons=%d | duration=%dms\n",
		idx+1, total, it.Trace.InputURL, final, SprintLabel(it.Verdict.Label),
		it.Verdict.Score, len(it.Verdict.Reasons), it.DurationMs)
	if len(it.Trace.Errors) > 0 {
		fmt.Fprintf(w, "    error: %s\n", strings.Join(it.Trace.Errors, "; "))
	}
}
