package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/selimozcann/LinkVerdict/api"
	"github.com/selimozcann/LinkVerdict/internal/reputation"
	"github.com/selimozcann/LinkVerdict/internal/rules"
	"github.com/selimozcann/LinkVerdict/internal/scan"
	"github.com/selimozcann/LinkVerdict/internal/store"
)

func main() {
	var (
		addr          = flag.String("addr", ":8080", "Listen address")
		timeout       = flag.Duration("timeout", 8*time.Second, "Per-request timeout")
		maxRedirects  = flag.Int("max-redirects", 3, "Max HTTP redirects to follow")
		tldsFile      = flag.String("tlds", "resources/suspicious_tlds.txt", "Suspicious TLDs file")
		denylistFile  = flag.String("denylist", "resources/denylist.txt", "Denylist file")
		noReputation  = flag.Bool("no-reputation", false, "Skip the remote reputation feed")
		reputationURL = flag.String("reputation-url", reputation.DefaultEndpoint, "Reputation feed endpoint")
		dsn           = flag.String("dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN (empty = in-memory store)")
	)
	flag.Parse()

	table := rules.Default()
	table.RedirectLimit = *maxRedirects
	table.LoadSuspiciousTLDs(*tldsFile)
	table.LoadDenylist(*denylistFile)

	checker := &reputation.Checker{Denylist: table.Denylist}
	if !*noReputation {
		checker.Remote = reputation.NewRemote(*reputationURL, *timeout)
	}

	pipeline := scan.New(scan.Config{
		Rules:      table,
		Timeout:    *timeout,
		Reputation: checker,
	})

	var st store.Store
	if *dsn != "" {
		pg, err := store.NewPostgres(store.PostgresConfig{DSN: *dsn})
		if err != nil {
			log.Fatalf("connect to database: %v", err)
		}
		defer pg.Close()
		st = pg
	} else {
		log.Println("no DSN configured, using in-memory scan store")
		st = store.NewMemory()
	}

	cfg := api.DefaultConfig()
	cfg.Addr = *addr
	// Hop loop plus the reputation fan-out, each bounded by the
	// per-request timeout.
	cfg.ScanBudget = time.Duration(2*(*maxRedirects+2)) * *timeout

	server := api.NewServer(cfg, pipeline, st)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
