package output

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/model"
	"github.com/selimozcann/LinkVerdict/internal/runner"
)

// Record represents one line in the JSONL report.
type Record struct {
	Timestamp        string           `json:"timestamp"`
	InputURL         string           `json:"input_url"`
	FinalURL         string           `json:"final_url,omitempty"`
	Label            model.Label      `json:"label"`
	Score            int              `json:"score"`
	Reasons          []string         `json:"reasons,omitempty"`
	Hops             []model.TraceHop `json:"hops,omitempty"`
	JSOrMetaFollowed bool             `json:"js_or_meta_followed"`
	ContentType      string           `json:"content_type,omitempty"`
	HasLoginForm     bool             `json:"has_login_form"`
	Errors           []string         `json:"errors,omitempty"`
	DurationMs       int64            `json:"duration_ms"`
}

// BuildRecord converts a runner.Item into a Record for JSONL output.
func BuildRecord(it runner.Item) Record {
	return Record{
		Timestamp:        it.StartedAt.UTC().Format(time.RFC3339),
		InputURL:         it.Trace.InputURL,
		FinalURL:         it.Trace.FinalURL,
		Label:            it.Verdict.Label,
		Score:            it.Verdict.Score,
		Reasons:          append([]string(nil), it.Verdict.Reasons...),
		Hops:             append([]model.TraceHop(nil), it.Trace.Hops...),
		JSOrMetaFollowed: it.Trace.JSOrMetaFollowed,
		ContentType:      it.Trace.ContentType,
		HasLoginForm:     it.Trace.HasLoginForm,
		Errors:           append([]string(nil), it.Trace.Errors...),
		DurationMs:       it.DurationMs,
	}
}

// JSONLWriter writes one Record per line as JSON.
type JSONLWriter struct {
	w  *bufio.Writer
	mu sync.Mutex
}

// NewJSONLWriter wraps an io.Writer with buffering.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write writes a single record as a JSON line.
func (j *JSONLWriter) Write(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	enc := json.NewEncoder(j.w)
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}

// Flush flushes the underlying buffer.
func (j *JSONLWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.w.Flush()
}

// Close flushes the buffer; keep the signature similar to io.Closer.
func (j *JSONLWriter) Close() error {
	return j.Flush()
}
