package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peopledeck/peopledeck/internal/metrics"
	"github.com/peopledeck/peopledeck/internal/models"
	"github.com/peopledeck/peopledeck/internal/utils"
)

const (
	// MaxPageSize is the upstream limit on results per page.
	MaxPageSize = 100

	defaultCacheTTL      = 5 * time.Minute
	defaultCacheCapacity = 100
)

// Options configures a Client. BaseURL and Seed are required; the seed keeps
// the upstream generator deterministic across a paging session.
type Options struct {
	BaseURL       string
	Seed          string
	Timeout       time.Duration
	CacheTTL      time.Duration
	CacheCapacity int
	Logger        *slog.Logger
}

// Client fetches pages from the upstream user generator. It owns its own
// response cache and in-flight registry, so independent instances never
// share state. All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	seed       string
	httpClient *http.Client
	logger     *slog.Logger
	cache      *pageCache
	latencies  *utils.LatencyTracker

	mu       sync.Mutex
	inflight map[string]*flight
}

// flight is one outstanding physical request. Concurrent callers with the
// same signature wait on done and share page/err.
type flight struct {
	done chan struct{}
	page *models.Page
	err  error
}

// New constructs a Client from Options.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("client: base URL is required")
	}
	if strings.TrimSpace(opts.Seed) == "" {
		return nil, fmt.Errorf("client: seed is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = defaultCacheCapacity
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		seed:       opts.Seed,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     opts.Logger,
		cache:      newPageCache(opts.CacheTTL, opts.CacheCapacity),
		latencies:  utils.NewLatencyTracker(512),
		inflight:   make(map[string]*flight),
	}, nil
}

// FetchPage returns one page of users. Identical concurrent requests share a
// single network call; live cached responses are served without any network.
// Cancellation through ctx yields a KindCancelled error that callers treat as
// a silent outcome, not a failure.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int, nationalities []string) (*models.Page, error) {
	if page < 1 {
		return nil, invalidInput("page must be a positive integer, got %d", page)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, invalidInput("page size must be in [1,%d], got %d", MaxPageSize, pageSize)
	}
	for _, nat := range nationalities {
		if strings.TrimSpace(nat) == "" {
			return nil, invalidInput("nationality filters must be non-empty strings")
		}
	}

	sig := c.signature(page, pageSize, nationalities)

	if cached, ok := c.cache.get(sig); ok {
		metrics.CacheLookup(true)
		return cached, nil
	}
	metrics.CacheLookup(false)

	c.mu.Lock()
	if f, ok := c.inflight[sig]; ok {
		c.mu.Unlock()
		metrics.CoalescedWaiter()
		select {
		case <-f.done:
			return f.page, f.err
		case <-ctx.Done():
			return nil, &Error{Kind: KindCancelled, Err: ctx.Err()}
		}
	}
	f := &flight{done: make(chan struct{})}
	c.inflight[sig] = f
	c.mu.Unlock()

	start := time.Now()
	f.page, f.err = c.doFetch(ctx, page, pageSize, nationalities)
	duration := time.Since(start)

	c.mu.Lock()
	delete(c.inflight, sig)
	c.mu.Unlock()
	close(f.done)

	if f.err != nil {
		metrics.ObserveFetch(duration, string(KindOf(f.err)))
		return nil, f.err
	}

	c.cache.put(sig, f.page)
	c.latencies.Observe(duration)
	metrics.ObserveFetch(duration, metrics.OutcomeSuccess)
	if count := c.latencies.Count(); count >= 20 && count%20 == 0 {
		c.logger.Info("upstream fetch latency",
			slog.Duration("p95", c.latencies.Percentile(95)),
			slog.Int("samples", count))
	}
	return f.page, nil
}

// signature builds the canonical request key. Nationality filters are sorted
// so equivalent filter sets coalesce regardless of caller ordering.
func (c *Client) signature(page, pageSize int, nationalities []string) string {
	nats := append([]string(nil), nationalities...)
	sort.Strings(nats)
	return fmt.Sprintf("page=%d&results=%d&seed=%s&nat=%s", page, pageSize, c.seed, strings.Join(nats, ","))
}

func (c *Client) doFetch(ctx context.Context, page, pageSize int, nationalities []string) (*models.Page, error) {
	endpoint, err := c.buildURL(page, pageSize, nationalities)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, &Error{Kind: KindCancelled, Err: err}
		}
		// Client-side timeouts land here too and surface as network failures.
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindHTTP, Status: resp.StatusCode}
	}

	var fetched models.Page
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Err: fmt.Errorf("decode body: %w", err)}
	}
	if fetched.Results == nil {
		return nil, &Error{Kind: KindInvalidResponse, Err: errors.New("response is missing the results array")}
	}
	return &fetched, nil
}

func (c *Client) buildURL(page, pageSize int, nationalities []string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("results", fmt.Sprintf("%d", pageSize))
	q.Set("seed", c.seed)
	if len(nationalities) > 0 {
		nats := append([]string(nil), nationalities...)
		sort.Strings(nats)
		q.Set("nat", strings.Join(nats, ","))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
