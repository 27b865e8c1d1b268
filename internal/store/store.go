package store

import (
	"context"
	"errors"
)

// Provider defines the key-value operations the service needs: plain get/set
// for the stats snapshot and nationality preferences, list append/read for
// the search-event stream. Append is atomic at the store level, so multiple
// writers may push concurrently; the aggregator only ever reads the list
// wholesale.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	RPush(ctx context.Context, key string, values ...[]byte) error
	// LRange returns list elements from start to stop inclusive; negative
	// indices count from the tail, so (0, -1) reads the whole list.
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Close() error
}

// ErrNotFound signals that a key was absent.
var ErrNotFound = errors.New("store: key not found")
