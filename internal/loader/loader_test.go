package loader_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/localnerve/voternet/internal/cache"
	"github.com/localnerve/voternet/internal/loader"
	"github.com/localnerve/voternet/internal/logging"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoader(t *testing.T) (*loader.Loader, *services.PlaceStore) {
	t.Helper()
	db := testutil.NewDB(t)
	c := cache.New()
	log := logging.Discard()
	ledger := services.NewLedger(db, c, clockwork.NewFakeClock(), time.UTC, log)
	places := services.NewPlaceStore(db, c, ledger, log)
	people := services.NewPersonStore(db, c, places, ledger, nil, log)
	return loader.New(places, people, log), places
}

var stateFiles = fstest.MapFS{
	loader.PCFile: {Data: []byte("pc_code,pc_name\n1,Chikkodi\n2,Belgaum\n")},
	loader.ACFile: {Data: []byte("1,1,Nippani\n1,2,Chikkodi-Sadalga\n2,7,\"Belgaum, North\"\n\n")},
	loader.BoothFile: {Data: []byte("ac_code,pb_code,pb_name\n1,1,Govt School\n1,2,Town Hall\n7,119,Urdu School\n")},
}

func TestLoadState(t *testing.T) {
	ctx := context.Background()
	l, places := newLoader(t)

	stats, err := l.LoadState(ctx, stateFiles, "KA", "Karnataka")
	require.NoError(t, err)
	assert.Equal(t, loader.Stats{Added: 1 + 2 + 3 + 3}, stats)

	pb, err := places.FindByKey(ctx, "KA/PC02/AC007/PB0119")
	require.NoError(t, err)
	assert.Equal(t, "119 - Urdu School", pb.Name)
	require.NotNil(t, pb.PCID)

	ac, err := places.FindByKey(ctx, "KA/PC02/AC007")
	require.NoError(t, err)
	assert.Equal(t, "7 - Belgaum, North", ac.Name)
	assert.Equal(t, *pb.PCID, *ac.PCID)

	stats, err = l.LoadState(ctx, stateFiles, "KA", "Karnataka")
	require.NoError(t, err)
	assert.Equal(t, loader.Stats{Skipped: 2 + 3 + 3}, stats, "loading twice adds nothing")

	all, err := places.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 9)
}

func TestLoadStateUnknownParent(t *testing.T) {
	ctx := context.Background()
	l, _ := newLoader(t)
	files := fstest.MapFS{
		loader.PCFile:    {Data: []byte("1,Chikkodi\n")},
		loader.ACFile:    {Data: []byte("9,1,Nowhere\n")},
		loader.BoothFile: {Data: []byte("")},
	}
	_, err := l.LoadState(ctx, files, "KA", "Karnataka")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAddAdmin(t *testing.T) {
	ctx := context.Background()
	l, places := newLoader(t)
	_, err := places.AddRoot(ctx, models.PlaceTypeState, "KA", "Karnataka")
	require.NoError(t, err)

	p, added, err := l.AddAdmin(ctx, "KA", "Admin@Example.com")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, models.RoleAdmin, p.Role)
	assert.Equal(t, "admin@example.com", p.Email)

	again, added, err := l.AddAdmin(ctx, "KA", "admin@example.com")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, p.ID, again.ID)

	_, _, err = l.AddAdmin(ctx, "TN", "admin@example.com")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestFormatCode(t *testing.T) {
	assert.Equal(t, "AC007", loader.FormatCode(models.PlaceTypeAC, " 7 "))
	assert.Equal(t, "PB0119", loader.FormatCode(models.PlaceTypePB, "119"))
	assert.Equal(t, "PC02", loader.FormatCode(models.PlaceTypePC, "2"))
	assert.Equal(t, "W01", loader.FormatCode(models.PlaceTypeWard, "W01"))
	assert.Equal(t, "3", loader.FormatCode(models.PlaceTypeWard, "3"))
}

func TestReadContacts(t *testing.T) {
	in := "Asha K.\t9876543210\tasha@example.com\n\nRavi (BTM)!\t9876543211\n"
	got, err := loader.ReadContacts(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []loader.Contact{
		{Name: "Asha K.", Phone: "9876543210", Email: "asha@example.com"},
		{Name: "Ravi BTM", Phone: "9876543211"},
	}, got)

	_, err = loader.ReadContacts(strings.NewReader("only a name\n"))
	assert.Error(t, err)
}
