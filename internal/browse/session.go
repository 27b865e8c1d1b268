// Package browse implements the client-side pagination, accumulation and
// search engine over the upstream user directory.
package browse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/peopledeck/peopledeck/internal/client"
	"github.com/peopledeck/peopledeck/internal/models"
)

// PageFetcher is the fetch-client behaviour the session depends on.
type PageFetcher interface {
	FetchPage(ctx context.Context, page, pageSize int, nationalities []string) (*models.Page, error)
}

// Session is one continuous pagination sequence under a fixed
// nationality-filter set. It accumulates fetched users into a deduplicated,
// insertion-ordered set bounded by maxUsers. Changing the filter set resets
// the session and cancels any in-flight fetch.
type Session struct {
	fetcher  PageFetcher
	logger   *slog.Logger
	pageSize int
	maxUsers int

	mu            sync.Mutex
	nationalities []string
	users         []models.User
	seen          map[string]struct{}
	page          int // highest page number merged so far
	hasMore       bool
	loading       bool
	lastErr       error
	cancel        context.CancelFunc
	gen           int // bumped on every reset; stale fetches are dropped
	filter        *Filter
}

// NewSession creates an idle session with an empty accumulated set.
func NewSession(fetcher PageFetcher, pageSize, maxUsers int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		fetcher:  fetcher,
		logger:   logger,
		pageSize: pageSize,
		maxUsers: maxUsers,
		seen:     make(map[string]struct{}),
		hasMore:  true,
		filter:   NewFilter(),
	}
}

// LoadMore fetches and merges the next page. It is a no-op while a load is
// already in progress or the session is exhausted. A cancelled fetch merges
// nothing and surfaces no error. Within a session pages are requested
// strictly in order: page N+1 only after page N merged.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	target := s.page + 1
	gen := s.gen
	nats := append([]string(nil), s.nationalities...)
	fctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	page, err := s.fetcher.FetchPage(fctx, target, s.pageSize, nats)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		// The session was reset while this fetch was in flight.
		return nil
	}
	s.loading = false
	s.cancel = nil

	if err != nil {
		if client.IsCancelled(err) {
			return nil
		}
		s.lastErr = err
		s.logger.Warn("page fetch failed",
			slog.Int("page", target), slog.Any("error", err))
		return err
	}

	s.lastErr = nil
	s.merge(page)
	s.page = target
	return nil
}

// Retry clears the last error and re-issues the same page request that
// failed. The session never retries automatically.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
	return s.LoadMore(ctx)
}

// SetNationalities replaces the filter set. If it differs from the current
// set, the in-flight fetch (if any) is cancelled and the session resets:
// the accumulated set empties and the next LoadMore starts at page 1.
func (s *Session) SetNationalities(nationalities []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if equalStrings(s.nationalities, nationalities) {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.nationalities = append([]string(nil), nationalities...)
	s.users = nil
	s.seen = make(map[string]struct{})
	s.page = 0
	s.hasMore = true
	s.loading = false
	s.lastErr = nil
	s.filter.Reset()
}

// Search returns the accumulated users filtered by term. It is a pure view:
// no network calls, no state changes.
func (s *Session) Search(term string) []models.User {
	s.mu.Lock()
	snapshot := s.users
	s.mu.Unlock()
	return s.filter.Apply(snapshot, term)
}

// Users returns the accumulated set in insertion order.
func (s *Session) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.users...)
}

// Len returns the size of the accumulated set.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// HasMore reports whether another page may be requested.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Loading reports whether a fetch is in progress.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last surfaced fetch error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Nationalities returns the active filter set.
func (s *Session) Nationalities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.nationalities...)
}

// merge adds incoming users by identity; duplicates are dropped, never
// overwritten. The has-more flag is recomputed afterwards: false once the
// cap is reached or the upstream returned an empty page.
func (s *Session) merge(page *models.Page) {
	for _, u := range page.Results {
		if len(s.users) >= s.maxUsers {
			break
		}
		if _, dup := s.seen[u.ID]; dup {
			continue
		}
		s.seen[u.ID] = struct{}{}
		s.users = append(s.users, u)
	}
	s.hasMore = len(s.users) < s.maxUsers && len(page.Results) > 0
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
