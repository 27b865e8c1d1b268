package browse

import (
	"strings"
	"sync"

	"github.com/peopledeck/peopledeck/internal/models"
)

// Filter performs case-insensitive substring search over "first last" names.
// The normalized comparison key is derived once per record and cached by
// identity, so repeated filtering of a growing set stays cheap. Records are
// immutable, so the cache only needs invalidation when the set is reset.
type Filter struct {
	mu   sync.Mutex
	keys map[string]string
}

// NewFilter creates a filter with an empty key cache.
func NewFilter() *Filter {
	return &Filter{keys: make(map[string]string)}
}

// Apply returns the users whose full name contains the trimmed, lower-cased
// term. An empty term returns the input unchanged, in existing order.
func (f *Filter) Apply(users []models.User, term string) []models.User {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return users
	}

	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(f.key(u), term) {
			out = append(out, u)
		}
	}
	return out
}

// Reset drops all cached keys.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = make(map[string]string)
}

func (f *Filter) key(u models.User) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if k, ok := f.keys[u.ID]; ok {
		return k
	}
	k := strings.ToLower(u.Name.First + " " + u.Name.Last)
	f.keys[u.ID] = k
	return k
}
