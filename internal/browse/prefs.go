package browse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peopledeck/peopledeck/internal/store"
)

// Prefs persists the selected nationality filters through the shared store.
type Prefs struct {
	store store.Provider
	key   string
}

// NewPrefs creates a preference accessor bound to the given key.
func NewPrefs(p store.Provider, key string) *Prefs {
	return &Prefs{store: p, key: key}
}

// Load returns the stored selection, or nil when none has been saved yet.
func (p *Prefs) Load(ctx context.Context) ([]string, error) {
	raw, err := p.store.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load nationality selection: %w", err)
	}
	var nats []string
	if err := json.Unmarshal(raw, &nats); err != nil {
		return nil, fmt.Errorf("decode nationality selection: %w", err)
	}
	return nats, nil
}

// Save replaces the stored selection.
func (p *Prefs) Save(ctx context.Context, nationalities []string) error {
	raw, err := json.Marshal(nationalities)
	if err != nil {
		return fmt.Errorf("encode nationality selection: %w", err)
	}
	if err := p.store.Set(ctx, p.key, raw); err != nil {
		return fmt.Errorf("save nationality selection: %w", err)
	}
	return nil
}
