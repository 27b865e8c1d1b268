package browse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledeck/peopledeck/internal/store"
)

func TestPrefsRoundTrip(t *testing.T) {
	kv := store.NewMemory()
	p := NewPrefs(kv, "selected_nationalities")
	ctx := context.Background()

	nats, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, nats, "no selection saved yet")

	require.NoError(t, p.Save(ctx, []string{"gb", "fr"}))
	nats, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gb", "fr"}, nats)

	require.NoError(t, p.Save(ctx, nil))
	nats, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, nats)
}
