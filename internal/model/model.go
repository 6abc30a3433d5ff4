package model

// Label classifies the outcome of a scan.
type Label string

const (
	LabelSafe       Label = "SAFE"
	LabelSuspicious Label = "SUSPICIOUS"
	LabelUnsafe     Label = "UNSAFE"
	LabelUnknown    Label = "UNKNOWN"
)

// TraceHop represents a single observed HTTP response in a redirect chain.
// Status and Reason are nil when the request failed before a response was
// received.
type TraceHop struct {
	URL    string  `json:"url"`
	Status *int    `json:"status_code"`
	Reason *string `json:"reason"`
	TimeMs int64   `json:"elapsed_ms"`
}

// TraceResult is the full observational record for one scan. FinalURL is
// empty unless at least one response was obtained or an HTML/script
// redirect was resolved.
type TraceResult struct {
	InputURL         string     `json:"input_url"`
	FinalURL         string     `json:"final_url,omitempty"`
	Hops             []TraceHop `json:"hops"`
	JSOrMetaFollowed bool       `json:"js_or_meta_followed"`
	ContentType      string     `json:"content_type,omitempty"`
	HasLoginForm     bool       `json:"has_login_form"`
	Errors           []string   `json:"errors,omitempty"`
}

// Verdict is the final judgment for one scan. Score is the exact sum of
// the weights of the triggered rules; Reasons are appended in evaluation
// order and may include zero-weight informational entries.
type Verdict struct {
	Label   Label    `json:"label"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}
