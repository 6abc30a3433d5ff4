package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/selimozcann/LinkVerdict/internal/banner"
	"github.com/selimozcann/LinkVerdict/internal/httpclient"
	"github.com/selimozcann/LinkVerdict/internal/output"
	"github.com/selimozcann/LinkVerdict/internal/reputation"
	"github.com/selimozcann/LinkVerdict/internal/rules"
	"github.com/selimozcann/LinkVerdict/internal/runner"
	"github.com/selimozcann/LinkVerdict/internal/scan"
)

type options struct {
	url           string
	inputFile     string
	timeout       time.Duration
	maxRedirects  int
	threads       int
	rateLimit     int
	tldsFile      string
	denylistFile  string
	noReputation  bool
	reputationURL string
	proxy         string
	insecure      bool
	verbose       bool
	silent        bool
	summary       bool
	outputJSONL   string
	outputHTML    string
}

func main() {
	opts := parseFlags()
	banner.PrintBanner()
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.url, "u", "", "Target URL")
	flag.StringVar(&opts.inputFile, "f", "", "File with one target URL per line")
	flag.DurationVar(&opts.timeout, "timeout", 8*time.Second, "Per-request timeout")
	flag.IntVar(&opts.maxRedirects, "max-redirects", 3, "Max HTTP redirects to follow")
	flag.IntVar(&opts.threads, "t", 5, "Threads")
	flag.IntVar(&opts.rateLimit, "rl", 0, "Global rate limit (scans per second)")
	flag.StringVar(&opts.tldsFile, "tlds", "resources/suspicious_tlds.txt", "Suspicious TLDs file")
	flag.StringVar(&opts.denylistFile, "denylist", "resources/denylist.txt", "Denylist file")
	flag.BoolVar(&opts.noReputation, "no-reputation", false, "Skip the remote reputation feed")
	flag.StringVar(&opts.reputationURL, "reputation-url", reputation.DefaultEndpoint, "Reputation feed endpoint")
	flag.StringVar(&opts.proxy, "proxy", "", "HTTP(S) proxy URL")
	flag.BoolVar(&opts.insecure, "insecure", false, "Skip TLS verification")
	flag.BoolVar(&opts.verbose, "v", false, "Enable verbose output")
	flag.BoolVar(&opts.silent, "silent", false, "Suppress per-target output")
	flag.BoolVar(&opts.summary, "summary", false, "Show one-line summary per target")
	flag.StringVar(&opts.outputJSONL, "o", "", "JSONL output file")
	flag.StringVar(&opts.outputHTML, "html", "", "HTML report output file")
	flag.Parse()
	return opts
}

func run(opts options) error {
	if opts.url == "" && opts.inputFile == "" {
		return errors.New("-u (target URL) or -f (target file) is required")
	}
	if opts.url != "" && opts.inputFile != "" {
		return errors.New("-u and -f are mutually exclusive")
	}
	if opts.threads <= 0 {
		return fmt.Errorf("-t must be greater than zero (got %d)", opts.threads)
	}
	if opts.rateLimit < 0 {
		return fmt.Errorf("-rl must be >= 0 (got %d)", opts.rateLimit)
	}
	if opts.timeout <= 0 {
		return fmt.Errorf("-timeout must be > 0 (got %s)", opts.timeout)
	}
	if opts.maxRedirects <= 0 {
		return fmt.Errorf("-max-redirects must be > 0 (got %d)", opts.maxRedirects)
	}

	targets, err := buildTargets(opts.url, opts.inputFile)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no targets to scan")
	}

	table := rules.Default()
	table.RedirectLimit = opts.maxRedirects
	table.LoadSuspiciousTLDs(opts.tldsFile)
	table.LoadDenylist(opts.denylistFile)

	var proxyFunc func(*http.Request) (*url.URL, error)
	if opts.proxy != "" {
		proxyURL, perr := url.Parse(opts.proxy)
		if perr != nil {
			return fmt.Errorf("invalid proxy URL: %w", perr)
		}
		proxyFunc = http.ProxyURL(proxyURL)
	}

	checker := &reputation.Checker{Denylist: table.Denylist}
	if !opts.noReputation {
		checker.Remote = reputation.NewRemote(opts.reputationURL, opts.timeout)
	}

	pipeline := scan.New(scan.Config{
		Rules:   table,
		Timeout: opts.timeout,
		Client: httpclient.New(httpclient.Config{
			Timeout:  opts.timeout,
			Proxy:    proxyFunc,
			Insecure: opts.insecure,
		}),
		Reputation: checker,
	})

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[config] targets=%d threads=%d rate-limit=%d max-redirects=%d timeout=%s reputation=%t\n",
			len(targets), opts.threads, opts.rateLimit, opts.maxRedirects, opts.timeout, !opts.noReputation)
	}

	ctx := context.Background()
	var items []runner.Item
	if len(targets) == 1 && !opts.silent {
		items = []runner.Item{scanWithProgress(ctx, pipeline, targets[0], opts.verbose)}
	} else {
		runr := runner.New(runner.Config{Threads: opts.threads, RateLimit: opts.rateLimit}, pipeline)
		items = runr.Run(ctx, targets)
	}

	if !opts.silent {
		for i, it := range items {
			if opts.summary {
				output.PrintSummaryLine(os.Stdout, i, len(items), it)
			} else {
				output.PrintResult(os.Stdout, i, len(items), it)
			}
		}
	}

	records := make([]output.Record, len(items))
	for i, it := range items {
		records[i] = output.BuildRecord(it)
	}

	if opts.outputJSONL != "" {
		if err := writeJSONLFile(opts.outputJSONL, records, opts.verbose); err != nil {
			return err
		}
	}
	if opts.outputHTML != "" {
		page := output.PageData{
			Title:       "LinkVerdict Report",
			GeneratedAt: time.Now().UTC(),
			Params:      buildParamsMap(opts, len(targets)),
			Summary:     output.BuildSummary(items),
			Results:     records,
		}
		if err := writeHTMLFile(opts.outputHTML, page, opts.verbose); err != nil {
			return err
		}
	}
	return nil
}

// scanWithProgress runs one scan on the calling goroutine, rendering
// progress checkpoints as they arrive.
func scanWithProgress(ctx context.Context, pipeline *scan.Pipeline, target string, verbose bool) runner.Item {
	report := scan.NopProgress
	if verbose {
		report = func(fraction float64, message string) {
			fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", fraction*100, message)
		}
	}
	began := time.Now()
	tr, v := pipeline.Scan(ctx, target, report)
	return runner.Item{
		Trace:      tr,
		Verdict:    v,
		StartedAt:  began,
		DurationMs: time.Since(began).Milliseconds(),
	}
}

func buildTargets(target, inputFile string) ([]string, error) {
	if target != "" {
		return []string{target}, nil
	}
	file, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file %q: %w", inputFile, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	var targets []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("target file read error: %w", err)
	}
	return targets, nil
}

func buildParamsMap(opts options, targetCount int) map[string]string {
	params := map[string]string{
		"target":        opts.url,
		"target_file":   opts.inputFile,
		"threads":       strconv.Itoa(opts.threads),
		"rate_limit":    strconv.Itoa(opts.rateLimit),
		"timeout":       opts.timeout.String(),
		"max_redirects": strconv.Itoa(opts.maxRedirects),
		"reputation":    strconv.FormatBool(!opts.noReputation),
		"insecure":      strconv.FormatBool(opts.insecure),
		"targets":       strconv.Itoa(targetCount),
	}
	if opts.proxy != "" {
		params["proxy"] = opts.proxy
	}
	return params
}

func writeJSONLFile(path string, records []output.Record, verbose bool) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create JSONL directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create JSONL file: %w", err)
	}
	defer f.Close()
	jw := output.NewJSONLWriter(f)
	for _, rec := range records {
		if err := jw.Write(rec); err != nil {
			return fmt.Errorf("write JSONL: %w", err)
		}
	}
	if err := jw.Flush(); err != nil {
		return fmt.Errorf("flush JSONL: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "[write] JSONL report -> %s\n", path)
	}
	return nil
}

func writeHTMLFile(path string, page output.PageData, verbose bool) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create HTML directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML file: %w", err)
	}
	defer f.Close()
	if err := output.RenderHTML(f, page); err != nil {
		return fmt.Errorf("write HTML: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "[write] HTML report -> %s\n", path)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
