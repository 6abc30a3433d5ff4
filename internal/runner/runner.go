package runner

import (
	"context"
	"sync"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/model"
	"github.com/selimozcann/LinkVerdict/internal/scan"
)

// Config holds settings for the runner.
type Config struct {
	Threads   int
	RateLimit int // scans per second, 0 = unlimited
}

// Item pairs the two pipeline outputs for one target.
type Item struct {
	Trace      model.TraceResult
	Verdict    model.Verdict
	StartedAt  time.Time
	DurationMs int64
}

// Runner coordinates concurrent scans over multiple targets. Each scan
// is independent; the pipeline itself is shared read-only.
type Runner struct {
	cfg      Config
	pipeline *scan.Pipeline
}

// New creates a new Runner.
func New(cfg Config, p *scan.Pipeline) *Runner {
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	return &Runner{cfg: cfg, pipeline: p}
}

// Run scans targets and returns results in input order.
func (r *Runner) Run(ctx context.Context, targets []string) []Item {
	out := make([]Item, len(targets))
	mu := &sync.Mutex{}
	var (
		rateCh <-chan time.Time
		ticker *time.Ticker
	)
	if r.cfg.RateLimit > 0 {
		ticker = time.NewTicker(time.Second / time.Duration(r.cfg.RateLimit))
		rateCh = ticker.C
		defer ticker.Stop()
	}

	type job struct {
		idx    int
		target string
	}

	jobs := make(chan job)
	wg := sync.WaitGroup{}
	for i := 0; i < r.cfg.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range jobs {
				if rateCh != nil {
					select {
					case <-ctx.Done():
						return
					case <-rateCh:
					}
				}
				began := time.Now()
				tr, v := r.pipeline.Scan(ctx, jb.target, scan.NopProgress)
				mu.Lock()
				out[jb.idx] = Item{
					Trace:      tr,
					Verdict:    v,
					StartedAt:  began,
					DurationMs: time.Since(began).Milliseconds(),
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		for i, t := range targets {
			if ctx.Err() != nil {
				break
			}
			jobs <- job{idx: i, target: t}
		}
		close(jobs)
	}()

	wg.Wait()
	return out
}
