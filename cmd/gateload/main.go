package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// gateload drives a running gateway with synthetic clients. Each worker
// performs full session cycles: auth, verify, a burst of sends, release.

type options struct {
	baseURL string
	authKey string
	qq      int64
	workers int
	cycles  int
	sends   int
	timeout time.Duration
	verbose bool
}

type envelope struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Session   string `json:"session"`
	MessageID int64  `json:"messageId"`
}

type cycleStats struct {
	mu        sync.Mutex
	latencies []time.Duration
	failures  int
}

func (s *cycleStats) record(d time.Duration) {
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.mu.Unlock()
}

func (s *cycleStats) fail() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gateload: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "gateload: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var timeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "gateway base URL")
	flag.StringVar(&cfg.authKey, "auth-key", "", "shared authorization key (required)")
	flag.Int64Var(&cfg.qq, "qq", 100, "bot id to bind sessions to")
	flag.IntVar(&cfg.workers, "workers", 8, "number of concurrent clients")
	flag.IntVar(&cfg.cycles, "cycles", 10, "session cycles per worker")
	flag.IntVar(&cfg.sends, "sends", 5, "messages sent per session cycle")
	flag.IntVar(&timeoutMS, "timeout-ms", 10000, "per-request timeout in milliseconds")
	flag.BoolVar(&cfg.verbose, "verbose", false, "print per-cycle progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if strings.TrimSpace(cfg.authKey) == "" {
		return options{}, fmt.Errorf("auth-key is required")
	}
	if cfg.qq <= 0 {
		return options{}, fmt.Errorf("qq must be > 0")
	}
	if cfg.workers <= 0 || cfg.cycles <= 0 || cfg.sends < 0 {
		return options{}, fmt.Errorf("workers and cycles must be > 0, sends must be >= 0")
	}
	if timeoutMS < 100 {
		timeoutMS = 100
	}
	cfg.timeout = time.Duration(timeoutMS) * time.Millisecond
	return cfg, nil
}

func run(cfg options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client := &http.Client{Timeout: cfg.timeout}
	stats := &cycleStats{}

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for c := 0; c < cfg.cycles; c++ {
				cycleStart := time.Now()
				if err := oneCycle(ctx, client, cfg); err != nil {
					stats.fail()
					if cfg.verbose {
						fmt.Fprintf(os.Stderr, "gateload: worker=%d cycle=%d: %v\n", worker, c, err)
					}
					continue
				}
				stats.record(time.Since(cycleStart))
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	report(cfg, stats, elapsed)
	if stats.failures > 0 {
		return fmt.Errorf("%d cycles failed", stats.failures)
	}
	return nil
}

func oneCycle(ctx context.Context, client *http.Client, cfg options) error {
	var auth envelope
	if err := post(ctx, client, cfg.baseURL+"/auth", map[string]any{}, &auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if auth.Code != 0 || auth.Session == "" {
		return fmt.Errorf("auth: code=%d session=%q", auth.Code, auth.Session)
	}
	token := auth.Session

	var verify envelope
	err := post(ctx, client, cfg.baseURL+"/verify", map[string]any{
		"sessionKey": token,
		"qq":         cfg.qq,
		"authKey":    cfg.authKey,
	}, &verify)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if verify.Code != 0 {
		return fmt.Errorf("verify: code=%d msg=%q", verify.Code, verify.Msg)
	}

	for i := 0; i < cfg.sends; i++ {
		var sent envelope
		err := post(ctx, client, cfg.baseURL+"/sendFriendMessage", map[string]any{
			"sessionKey": token,
			"target":     cfg.qq + 1,
			"messageChain": []map[string]any{
				{"type": "Plain", "text": fmt.Sprintf("load probe %d", i)},
			},
		}, &sent)
		if err != nil {
			return fmt.Errorf("send %d: %w", i, err)
		}
		if sent.Code != 0 {
			return fmt.Errorf("send %d: code=%d msg=%q", i, sent.Code, sent.Msg)
		}
	}

	var release envelope
	err = post(ctx, client, cfg.baseURL+"/release", map[string]any{
		"sessionKey": token,
		"qq":         cfg.qq,
	}, &release)
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	if release.Code != 0 {
		return fmt.Errorf("release: code=%d msg=%q", release.Code, release.Msg)
	}
	return nil
}

func post(ctx context.Context, client *http.Client, url string, body any, out *envelope) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}

func report(cfg options, stats *cycleStats, elapsed time.Duration) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	total := len(stats.latencies) + stats.failures
	fmt.Printf("gateload: cycles=%d ok=%d failed=%d workers=%d elapsed=%s\n",
		total, len(stats.latencies), stats.failures, cfg.workers, elapsed.Round(time.Millisecond))
	if len(stats.latencies) == 0 {
		return
	}
	sorted := append([]time.Duration(nil), stats.latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	fmt.Printf("gateload: cycle latency p50=%s p90=%s p99=%s max=%s\n",
		percentile(sorted, 50).Round(time.Microsecond),
		percentile(sorted, 90).Round(time.Microsecond),
		percentile(sorted, 99).Round(time.Microsecond),
		sorted[len(sorted)-1].Round(time.Microsecond))
}

// percentile expects a sorted slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p + 99) / 100
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}
