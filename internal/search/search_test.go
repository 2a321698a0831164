package search_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func places() []models.Place {
	return []models.Place{
		{ID: 1, Key: "KA", Code: "KA", Name: "Karnataka", Type: models.PlaceTypeState},
		{ID: 2, Key: "KA/AC162", Code: "AC162", Name: "AC162 - Shivajinagar", Type: models.PlaceTypeAC},
		{ID: 3, Key: "KA/AC162/PB0119", Code: "PB0119", Name: "PB0119 - Govt Urdu School", Type: models.PlaceTypePB},
		{ID: 4, Key: "KA/AC162/PB0019", Code: "PB0019", Name: "PB0019 - Govt Kannada School", Type: models.PlaceTypePB},
	}
}

func open(t *testing.T, path string) *search.Index {
	t.Helper()
	ix, err := search.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	ix := open(t, "")
	require.NoError(t, ix.IndexPlaces(ctx, places()...))

	res, err := ix.Search(ctx, "pb0119", 0)
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, uint(3), res.Hits[0].ID, "codes match exactly, PB0119 is not PB0019")
	assert.Equal(t, "KA/AC162/PB0119", res.Hits[0].Key)
	assert.Equal(t, "PB", res.Hits[0].Type)

	res, err = ix.Search(ctx, "govt school", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Total)

	res, err = ix.Search(ctx, "shivajinagar", 0)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "AC162 - Shivajinagar", res.Hits[0].Name)

	res, err = ix.Search(ctx, "govt school", 1)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	res, err = ix.Search(ctx, "   ", 0)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestDeleteAndReindex(t *testing.T) {
	ctx := context.Background()
	ix := open(t, filepath.Join(t.TempDir(), "places.bleve"))
	all := places()
	require.NoError(t, ix.IndexPlaces(ctx, all...))

	require.NoError(t, ix.DeletePlaces(ctx, 3))
	res, err := ix.Search(ctx, "urdu", 0)
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	renamed := all[1]
	renamed.Name = "AC162 - Shivaji Nagar"
	require.NoError(t, ix.Reindex(ctx, []models.Place{all[0], renamed}))

	n, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	res, err = ix.Search(ctx, "nagar", 0)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, uint(2), res.Hits[0].ID)
}
