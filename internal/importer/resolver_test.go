package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocationCreatesThenReuses(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	first, err := resolver.ResolveLocation(ctx, "Westlands")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Same name again, different case and padding, must reuse the entity.
	second, err := resolver.ResolveLocation(ctx, "  WESTLANDS ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.locationCreates)

	loc := store.locations["westlands"]
	require.NotNil(t, loc)
	assert.Equal(t, "Westlands", loc.Name)
	assert.Equal(t, "westlands", loc.Slug)
}

func TestResolveLocationEmptyNameFails(t *testing.T) {
	resolver := NewResolver(newFakeStore())

	_, err := resolver.ResolveLocation(context.Background(), "   ")
	require.Error(t, err)
}

func TestResolveNeighbourhoodScopedToLocation(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	karen, err := resolver.ResolveLocation(ctx, "Karen")
	require.NoError(t, err)
	kilimani, err := resolver.ResolveLocation(ctx, "Kilimani")
	require.NoError(t, err)

	// The same neighbourhood name in two locations is two entities.
	a, err := resolver.ResolveNeighbourhood(ctx, "Riverside", karen)
	require.NoError(t, err)
	b, err := resolver.ResolveNeighbourhood(ctx, "riverside", kilimani)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// Within one location it resolves to the existing entity.
	again, err := resolver.ResolveNeighbourhood(ctx, "RIVERSIDE", karen)
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestResolveNeighbourhoodEmptyNameSkipped(t *testing.T) {
	resolver := NewResolver(newFakeStore())

	id, err := resolver.ResolveNeighbourhood(context.Background(), "  ", "loc-1")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestResolveAmenitiesDedupsAndSkipsEmpties(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)

	ids, err := resolver.ResolveAmenities(context.Background(),
		[]string{"Pool", " Gym ", "pool", "", "  "})
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
	assert.Equal(t, 2, store.amenityCreates)
}

func TestResolveAmenitiesReusesExisting(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	first, err := resolver.ResolveAmenities(ctx, []string{"Pool"})
	require.NoError(t, err)
	second, err := resolver.ResolveAmenities(ctx, []string{"POOL"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.amenityCreates)
}

func TestResolveAmenitiesPropagatesStoreError(t *testing.T) {
	store := newFakeStore()
	store.failAmenityLookup = true
	resolver := NewResolver(store)

	_, err := resolver.ResolveAmenities(context.Background(), []string{"Pool"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "amenity lookup failed"))
}
