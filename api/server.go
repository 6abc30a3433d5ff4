package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selimozcann/LinkVerdict/internal/scan"
	"github.com/selimozcann/LinkVerdict/internal/store"
)

// Server exposes the scan pipeline over HTTP for polling consumers:
// a scan is started in the background and its record is retrieved by id.
type Server struct {
	pipeline    *scan.Pipeline
	store       store.Store
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
	scanBudget  time.Duration
}

// Config contains server configuration.
type Config struct {
	Addr        string
	CORSEnabled bool
	// ScanBudget is the wall-clock deadline for one background scan, so
	// abandoned scans cannot hold a worker forever.
	ScanBudget time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		CORSEnabled: true,
		ScanBudget:  2 * time.Minute,
	}
}

// NewServer creates an API server around an assembled pipeline and store.
func NewServer(cfg Config, pipeline *scan.Pipeline, st store.Store) *Server {
	if cfg.ScanBudget <= 0 {
		cfg.ScanBudget = 2 * time.Minute
	}
	s := &Server{
		pipeline:    pipeline,
		store:       st,
		addr:        cfg.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: cfg.CORSEnabled,
		scanBudget:  cfg.ScanBudget,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.middleware(s.mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/scan", s.handleStartScan)
	s.mux.HandleFunc("/api/scan/", s.handleScanStatus) // /api/scan/{id}
}

// Start starts the API server.
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.middleware(s.mux)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type startScanRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	target := ""
	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		var req startScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		target = strings.TrimSpace(req.URL)
	} else {
		target = strings.TrimSpace(r.FormValue("url"))
	}
	if target == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	id := uuid.NewString()
	if err := s.store.Create(r.Context(), id, target); err != nil {
		log.Printf("create scan record: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create scan")
		return
	}

	scansStarted.Inc()
	go s.runScan(id, target)

	writeJSON(w, http.StatusAccepted, map[string]string{"scan_id": id})
}

// runScan executes one scan on a background goroutine, streaming
// progress into the store.
func (s *Server) runScan(id, target string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.scanBudget)
	defer cancel()

	began := time.Now()
	progress := func(fraction float64, message string) {
		if err := s.store.UpdateProgress(context.Background(), id, fraction, message); err != nil {
			log.Printf("update scan %s progress: %v", id, err)
		}
	}

	tr, v := s.pipeline.Scan(ctx, target, progress)
	scanDuration.Observe(time.Since(began).Seconds())
	scansCompleted.WithLabelValues(string(v.Label)).Inc()

	if err := s.store.Complete(context.Background(), id, tr, v); err != nil {
		log.Printf("complete scan %s: %v", id, err)
	}
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/scan/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		log.Printf("load scan %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load scan")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
