package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/model"
)

// ErrNotFound is returned when a scan id is unknown or expired.
var ErrNotFound = errors.New("scan not found")

// Status of a stored scan record.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Record mirrors one scan for asynchronous polling: identity, live
// progress, and the terminal trace/verdict once the scan finishes.
type Record struct {
	ScanID      string             `json:"scan_id"`
	URL         string             `json:"url"`
	Status      Status             `json:"status"`
	Progress    float64            `json:"progress"`
	Message     string             `json:"message"`
	Trace       *model.TraceResult `json:"trace_result,omitempty"`
	Verdict     *model.Verdict     `json:"verdict,omitempty"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	LastUpdate  time.Time          `json:"last_update"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// Store persists scan records for polling consumers.
type Store interface {
	Create(ctx context.Context, id, url string) error
	UpdateProgress(ctx context.Context, id string, progress float64, message string) error
	Complete(ctx context.Context, id string, tr model.TraceResult, v model.Verdict) error
	Fail(ctx context.Context, id, errMsg string) error
	Get(ctx context.Context, id string) (Record, error)
}

// retention is how long records remain visible after completion, or
// after their last update for scans that never finished.
const retention = time.Hour

// Memory is an in-process Store; expired records are dropped on reads
// of their id and swept out whenever a new scan is created.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func expired(rec Record, now time.Time) bool {
	if rec.CompletedAt != nil {
		return now.Sub(*rec.CompletedAt) > retention
	}
	return now.Sub(rec.LastUpdate) > retention
}

func (m *Memory) Create(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for staleID, rec := range m.records {
		if expired(rec, now) {
			delete(m.records, staleID)
		}
	}
	m.records[id] = Record{
		ScanID:     id,
		URL:        url,
		Status:     StatusProcessing,
		Message:    "Starting scan...",
		StartedAt:  now,
		LastUpdate: now,
	}
	return nil
}

func (m *Memory) UpdateProgress(_ context.Context, id string, progress float64, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Progress = progress
	rec.Message = message
	rec.LastUpdate = time.Now()
	m.records[id] = rec
	return nil
}

func (m *Memory) Complete(_ context.Context, id string, tr model.TraceResult, v model.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	rec.Status = StatusCompleted
	rec.Trace = &tr
	rec.Verdict = &v
	rec.LastUpdate = now
	rec.CompletedAt = &now
	m.records[id] = rec
	return nil
}

func (m *Memory) Fail(_ context.Context, id, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	rec.Status = StatusError
	rec.Error = errMsg
	rec.LastUpdate = now
	rec.CompletedAt = &now
	m.records[id] = rec
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if expired(rec, time.Now()) {
		delete(m.records, id)
		return Record{}, ErrNotFound
	}
	return rec, nil
}
