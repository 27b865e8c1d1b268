package browse_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledeck/peopledeck/internal/browse"
	"github.com/peopledeck/peopledeck/internal/client"
	"github.com/peopledeck/peopledeck/internal/models"
	"github.com/peopledeck/peopledeck/internal/utils"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int]*models.Page
	err   error
	calls []int
}

func (f *fakeFetcher) FetchPage(_ context.Context, page, _ int, _ []string) (*models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.pages[page]; ok {
		return p, nil
	}
	return &models.Page{Info: models.PageInfo{Page: page}}, nil
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) pagesRequested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

func userPage(page int, ids ...string) *models.Page {
	p := &models.Page{Info: models.PageInfo{Page: page, Results: len(ids)}}
	for _, id := range ids {
		p.Results = append(p.Results, models.User{
			ID:   id,
			Name: models.Name{First: id, Last: "Tester"},
		})
	}
	return p
}

func newSession(f *fakeFetcher, maxUsers int) *browse.Session {
	return browse.NewSession(f, 2, maxUsers, utils.NewLoggerTo(io.Discard, "error", false))
}

func TestSessionDeduplicatesAcrossPages(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*models.Page{
		1: userPage(1, "a", "b"),
		2: userPage(2, "b", "c"),
	}}
	s := newSession(f, 1000)
	ctx := context.Background()

	require.NoError(t, s.LoadMore(ctx))
	require.NoError(t, s.LoadMore(ctx))

	users := s.Users()
	require.Len(t, users, 3, "overlapping identity must not double-count")
	assert.Equal(t, []string{"a", "b", "c"}, ids(users))
}

func TestSessionEnforcesCap(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*models.Page{
		1: userPage(1, "a", "b"),
		2: userPage(2, "c", "d"),
		3: userPage(3, "e", "f"),
	}}
	s := newSession(f, 3)
	ctx := context.Background()

	require.NoError(t, s.LoadMore(ctx))
	require.NoError(t, s.LoadMore(ctx))
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.HasMore())

	before := len(f.pagesRequested())
	require.NoError(t, s.LoadMore(ctx))
	assert.Equal(t, before, len(f.pagesRequested()), "exhausted session must not fetch")
	assert.Equal(t, 3, s.Len())
}

func TestSessionExhaustsOnEmptyPage(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*models.Page{
		1: userPage(1, "a"),
		2: userPage(2),
	}}
	s := newSession(f, 1000)
	ctx := context.Background()

	require.NoError(t, s.LoadMore(ctx))
	assert.True(t, s.HasMore())
	require.NoError(t, s.LoadMore(ctx))
	assert.False(t, s.HasMore())
}

func TestSessionFailureKeepsAccumulatedAndRetriesSamePage(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*models.Page{
		1: userPage(1, "a", "b"),
		2: userPage(2, "c"),
	}}
	s := newSession(f, 1000)
	ctx := context.Background()

	require.NoError(t, s.LoadMore(ctx))

	f.setErr(&client.Error{Kind: client.KindNetwork})
	err := s.LoadMore(ctx)
	require.Error(t, err)
	assert.Equal(t, client.KindNetwork, client.KindOf(s.Err()))
	assert.Equal(t, 2, s.Len(), "loaded data is preserved on failure")

	f.setErr(nil)
	require.NoError(t, s.Retry(ctx))
	assert.NoError(t, s.Err())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{1, 2, 2}, f.pagesRequested(), "retry must re-issue the failed page")
}

func TestSessionResetsOnNationalityChange(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*models.Page{
		1: userPage(1, "a", "b"),
		2: userPage(2, "c", "d"),
	}}
	s := newSession(f, 1000)
	ctx := context.Background()

	require.NoError(t, s.LoadMore(ctx))
	require.NoError(t, s.LoadMore(ctx))
	require.Equal(t, 4, s.Len())

	s.SetNationalities([]string{"FR"})
	assert.Zero(t, s.Len(), "filter change empties the accumulated set")
	assert.True(t, s.HasMore())
	assert.NoError(t, s.Err())

	require.NoError(t, s.LoadMore(ctx))
	calls := f.pagesRequested()
	assert.Equal(t, 1, calls[len(calls)-1], "new session starts again at page 1")
}

func TestSessionIgnoresRedundantNationalityUpdate(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*models.Page{1: userPage(1, "a")}}
	s := newSession(f, 1000)
	ctx := context.Background()

	s.SetNationalities([]string{"GB", "FR"})
	require.NoError(t, s.LoadMore(ctx))
	require.Equal(t, 1, s.Len())

	s.SetNationalities([]string{"GB", "FR"})
	assert.Equal(t, 1, s.Len(), "identical filter set must not reset the session")
}

func TestSessionCancelledFetchIsSilent(t *testing.T) {
	f := &fakeFetcher{}
	f.setErr(&client.Error{Kind: client.KindCancelled, Err: context.Canceled})
	s := newSession(f, 1000)

	require.NoError(t, s.LoadMore(context.Background()))
	assert.NoError(t, s.Err(), "cancellation never surfaces as a failure")
	assert.Zero(t, s.Len())
	assert.True(t, s.HasMore())
}

func TestSessionSearchIsAPureView(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*models.Page{
		1: userPage(1, "ada", "grace", "adam"),
	}}
	s := newSession(f, 1000)
	require.NoError(t, s.LoadMore(context.Background()))

	before := len(f.pagesRequested())
	matched := s.Search("ada")
	assert.Equal(t, []string{"ada", "adam"}, ids(matched))
	assert.Equal(t, before, len(f.pagesRequested()), "search must not fetch")
	assert.Equal(t, 3, s.Len())
}

func ids(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}
