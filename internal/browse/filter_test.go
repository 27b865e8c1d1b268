package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledeck/peopledeck/internal/models"
)

func namedUser(id, first, last string) models.User {
	return models.User{ID: id, Name: models.Name{First: first, Last: last}}
}

func TestFilterEmptyTermReturnsInputUnchanged(t *testing.T) {
	users := []models.User{
		namedUser("1", "Ada", "Lovelace"),
		namedUser("2", "Grace", "Hopper"),
	}
	f := NewFilter()

	assert.Equal(t, users, f.Apply(users, ""))
	assert.Equal(t, users, f.Apply(users, "   "))
}

func TestFilterMatchesCaseInsensitiveSubstring(t *testing.T) {
	users := []models.User{
		namedUser("1", "Ada", "Lovelace"),
		namedUser("2", "Grace", "Hopper"),
		namedUser("3", "Adam", "West"),
	}
	f := NewFilter()

	got := f.Apply(users, "  ADA ")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	// Matches across the first/last boundary.
	got = f.Apply(users, "a love")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestFilterIsIdempotent(t *testing.T) {
	users := []models.User{
		namedUser("1", "Ada", "Lovelace"),
		namedUser("2", "Grace", "Hopper"),
		namedUser("3", "Adam", "West"),
	}
	f := NewFilter()

	once := f.Apply(users, "ada")
	twice := f.Apply(once, "ada")
	assert.Equal(t, once, twice)
}

func TestFilterCachesComparisonKeys(t *testing.T) {
	users := []models.User{namedUser("1", "Ada", "Lovelace")}
	f := NewFilter()

	f.Apply(users, "ada")
	require.Contains(t, f.keys, "1")
	cached := f.keys["1"]

	f.Apply(users, "lovelace")
	assert.Equal(t, cached, f.keys["1"])

	f.Reset()
	assert.Empty(t, f.keys)
}
