package services_test

import (
	"testing"

	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByKeyRoundTrip(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	pb := f.add(t, ac, models.PlaceTypePB, "PB0001")

	assert.Equal(t, "KA/AC001/PB0001", pb.Key)
	assert.Equal(t, ka.ID, *pb.StateID)
	assert.Equal(t, ac.ID, *pb.ACID)
	assert.Nil(t, pb.WardID)

	for _, p := range []models.Place{ka, ac, pb} {
		got, err := f.places.FindByKey(f.ctx, p.Key)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID, p.Key)
	}

	got, err := f.places.FindByKey(f.ctx, "/KA/AC001/")
	require.NoError(t, err)
	assert.Equal(t, ac.ID, got.ID)

	_, err = f.places.FindByKey(f.ctx, "KA/AC999")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.places.FindByKey(f.ctx, "")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAncestorColumnsMatchParentChain(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	r := f.add(t, ka, models.PlaceTypeRegion, "R01")
	pc := f.add(t, r, models.PlaceTypePC, "PC01")
	ac := f.add(t, pc, models.PlaceTypeAC, "AC001")
	w := f.add(t, ac, models.PlaceTypeWard, "W01")
	px := f.add(t, w, models.PlaceTypePX, "PX01")
	pb := f.add(t, px, models.PlaceTypePB, "PB0001")
	loose := f.add(t, ac, models.PlaceTypePB, "PB0002")

	all, err := f.places.All(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 8)

	for _, p := range all {
		chain := map[models.PlaceType]uint{}
		cur := p
		for {
			parent, ok, err := f.places.Parent(f.ctx, &cur)
			require.NoError(t, err)
			if !ok {
				break
			}
			assert.True(t, parent.Type.Above(cur.Type), "%s above %s", parent.Key, cur.Key)
			chain[parent.Type] = parent.ID
			cur = parent
		}
		for _, typ := range models.PlaceTypes[:p.Type.Level()] {
			col := p.AncestorID(typ)
			want, ok := chain[typ]
			if !ok {
				assert.Nil(t, col, "%s has no %s ancestor", p.Key, typ)
				continue
			}
			require.NotNil(t, col, "%s %s column", p.Key, typ)
			assert.Equal(t, want, *col, "%s %s column", p.Key, typ)
		}
	}

	parent, ok, err := f.places.Parent(f.ctx, &pb)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, px.ID, parent.ID)

	parent, ok, err = f.places.Parent(f.ctx, &loose)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ac.ID, parent.ID, "a booth without a ward reports its AC")

	ancestors, err := f.places.Ancestors(f.ctx, &pb)
	require.NoError(t, err)
	keys := make([]string, len(ancestors))
	for i, a := range ancestors {
		keys[i] = a.Key
	}
	assert.Equal(t, []string{"KA", "KA/R01", "KA/R01/PC01", "KA/R01/PC01/AC001", "KA/R01/PC01/AC001/W01", "KA/R01/PC01/AC001/W01/PX01"}, keys)
}

func TestAddSubplaceGeneratesCodes(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")

	w1, err := f.places.AddSubplace(f.ctx, &ac, "First", models.PlaceTypeWard, "")
	require.NoError(t, err)
	w2, err := f.places.AddSubplace(f.ctx, &ac, "Second", models.PlaceTypeWard, "")
	require.NoError(t, err)
	assert.Equal(t, "W01", w1.Code)
	assert.Equal(t, "W02", w2.Code)

	f.add(t, ac, models.PlaceTypeWard, "W07")
	w8, err := f.places.AddSubplace(f.ctx, &ac, "", models.PlaceTypeWard, "")
	require.NoError(t, err)
	assert.Equal(t, "W08", w8.Code)
	assert.Equal(t, "W08", w8.Name)

	_, err = f.places.AddSubplace(f.ctx, &ac, "Again", models.PlaceTypeWard, "W01")
	assert.True(t, services.IsValidation(err), "duplicate key: %v", err)

	_, err = f.places.AddSubplace(f.ctx, &ac, "Up", models.PlaceTypeState, "X")
	assert.True(t, services.IsValidation(err))

	_, err = f.places.AddRoot(f.ctx, models.PlaceTypeState, "KA", "dup")
	assert.True(t, services.IsValidation(err))
}

func TestChildrenDefaultsToNextType(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	f.add(t, ac, models.PlaceTypeWard, "W02")
	f.add(t, ac, models.PlaceTypeWard, "W01")
	f.add(t, ac, models.PlaceTypePB, "PB0001")

	wards, err := f.places.Children(f.ctx, &ac)
	require.NoError(t, err)
	require.Len(t, wards, 2)
	assert.Equal(t, "W01", wards[0].Code)
	assert.Equal(t, "W02", wards[1].Code)

	booths, err := f.places.Children(f.ctx, &ac, models.PlaceTypePB)
	require.NoError(t, err)
	require.Len(t, booths, 1)

	_, err = f.places.Children(f.ctx, &ac, models.PlaceTypeState)
	assert.True(t, services.IsValidation(err))

	f.add(t, ac, models.PlaceTypeWard, "W03")
	wards, err = f.places.Children(f.ctx, &ac)
	require.NoError(t, err)
	assert.Len(t, wards, 3, "a new child is visible after the cache is invalidated")
}

func TestBulkAddPlaces(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	f.add(t, ac, models.PlaceTypeWard, "W01")

	res, err := f.places.BulkAddPlaces(f.ctx, nil, &ac, "Example Ward {{ W01 }}\nNew Ward\n\n")
	require.NoError(t, err)
	require.Len(t, res.Updated, 1)
	require.Len(t, res.Added, 1)
	assert.Equal(t, "Example Ward", res.Updated[0].Name)
	assert.Equal(t, "newward", res.Added[0].Code)
	assert.Equal(t, "KA/AC001/newward", res.Added[0].Key)

	w1, err := f.places.FindByKey(f.ctx, "KA/AC001/W01")
	require.NoError(t, err)
	assert.Equal(t, "Example Ward", w1.Name)

	res, err = f.places.BulkAddPlaces(f.ctx, nil, &ac, "New Ward\nNew-Ward")
	require.NoError(t, err)
	require.Len(t, res.Added, 2)
	assert.Equal(t, "newward2", res.Added[0].Code)
	assert.Equal(t, "newward3", res.Added[1].Code)

	_, err = f.places.BulkAddPlaces(f.ctx, nil, &ac, "Good Ward\nMissing {{ W99 }}")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.places.FindByKey(f.ctx, "KA/AC001/goodward")
	assert.ErrorIs(t, err, services.ErrNotFound, "a failed bulk add leaves nothing behind")

	res, err = f.places.BulkAddPlaces(f.ctx, nil, &ac, "१२३")
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	assert.Equal(t, "W02", res.Added[0].Code, "names without letters get a sequential code")
}

func TestBulkAddPlacesRecordsActivity(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	admin := f.person(t, ka, "Admin", "admin@example.com", "9876543210", models.RoleAdmin)

	_, err := f.places.BulkAddPlaces(f.ctx, &admin, &ka, "North\nSouth")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.count(t, &models.Activity{}, "type = ? AND place_id = ?", models.ActivityPlacesAdded, ka.ID))

	regions, err := f.places.Children(f.ctx, &ka)
	require.NoError(t, err)
	assert.Len(t, regions, 2)
	assert.Equal(t, models.PlaceTypeRegion, regions[0].Type)
}

func TestSetParentUpdatesSubtree(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	r1 := f.add(t, ka, models.PlaceTypeRegion, "R01")
	pc := f.add(t, ka, models.PlaceTypePC, "PC01")
	ac := f.add(t, pc, models.PlaceTypeAC, "AC001")
	pb := f.add(t, ac, models.PlaceTypePB, "PB0001")

	counts, err := f.places.Counts(f.ctx, &r1)
	require.NoError(t, err)
	assert.Zero(t, counts.Places[models.PlaceTypePC])

	require.NoError(t, f.places.SetParent(f.ctx, &pc, models.PlaceTypeRegion, &r1))
	assert.Equal(t, r1.ID, *pc.RegionID)

	for _, key := range []string{pc.Key, ac.Key, pb.Key} {
		got, err := f.places.FindByKey(f.ctx, key)
		require.NoError(t, err)
		require.NotNil(t, got.RegionID, key)
		assert.Equal(t, r1.ID, *got.RegionID, key)
	}
	assert.Equal(t, "KA/PC01", pc.Key, "a moved place keeps its key")

	counts, err = f.places.Counts(f.ctx, &r1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Places[models.PlaceTypePC])
	assert.Equal(t, int64(1), counts.Places[models.PlaceTypePB])

	require.NoError(t, f.places.SetParent(f.ctx, &pc, models.PlaceTypeRegion, &r1), "setting the same parent is a no-op")

	other := f.root(t, "TN")
	otherRegion := f.add(t, other, models.PlaceTypeRegion, "R01")
	err = f.places.SetParent(f.ctx, &pc, models.PlaceTypeRegion, &otherRegion)
	assert.True(t, services.IsValidation(err), "a region of another state is rejected: %v", err)

	err = f.places.SetParent(f.ctx, &pc, models.PlaceTypeAC, &ac)
	assert.True(t, services.IsValidation(err))

	require.NoError(t, f.places.SetParent(f.ctx, &pc, models.PlaceTypeRegion, nil))
	got, err := f.places.FindByKey(f.ctx, pb.Key)
	require.NoError(t, err)
	assert.Nil(t, got.RegionID)
}

func TestDeleteRemovesSubtree(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	keep := f.add(t, ka, models.PlaceTypeAC, "AC002")
	pb1 := f.add(t, ac, models.PlaceTypePB, "PB0001")
	pb2 := f.add(t, ac, models.PlaceTypePB, "PB0002")

	f.person(t, ka, "State Lead", "lead@example.com", "9876543210", models.RoleCoordinator)
	agent := f.person(t, pb1, "Agent", "agent@example.com", "9876543211", models.RolePBAgent)
	f.person(t, pb2, "Volunteer", "", "9876543212", models.RoleVolunteer)
	f.person(t, keep, "Other", "", "9876543213", models.RoleVolunteer)

	_, err := f.ledger.AddCoverage(f.ctx, &agent, &pb1, "2026-03-09", []map[string]any{{"house": 1}})
	require.NoError(t, err)
	_, err = f.ledger.AddCoverage(f.ctx, &agent, &keep, "2026-03-09", []map[string]any{{"house": 2}})
	require.NoError(t, err)
	require.NoError(t, f.things.SetPlaceInfo(f.ctx, &pb2, services.PlaceInfo{Notes: "school"}))

	_, err = f.places.FindByKey(f.ctx, ac.Key)
	require.NoError(t, err)
	before, err := f.places.Counts(f.ctx, &ka)
	require.NoError(t, err)
	assert.Equal(t, int64(2), before.Places[models.PlaceTypePB])

	require.NoError(t, f.places.Delete(f.ctx, &ac))

	_, err = f.places.FindByKey(f.ctx, ac.Key)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.places.FindByID(f.ctx, pb1.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.Zero(t, f.count(t, &models.Place{}, "id = ? OR ac_id = ?", ac.ID, ac.ID))
	assert.Zero(t, f.count(t, &models.Person{}, "place_id NOT IN (?)", f.db.Model(&models.Place{}).Select("id")))
	assert.Zero(t, f.count(t, &models.Coverage{}, "place_id NOT IN (?)", f.db.Model(&models.Place{}).Select("id")))
	assert.Zero(t, f.count(t, &models.Thing{}, "place_id IS NOT NULL AND place_id NOT IN (?)", f.db.Model(&models.Place{}).Select("id")))
	assert.Equal(t, int64(1), f.count(t, &models.Coverage{}, "place_id = ?", keep.ID))

	var cov models.Coverage
	require.NoError(t, f.db.Where("place_id = ?", keep.ID).First(&cov).Error)
	assert.Nil(t, cov.EditorID, "coverage edited by a deleted person is kept without the editor")

	people, err := f.people.FindByEmail(f.ctx, "agent@example.com")
	require.NoError(t, err)
	assert.Empty(t, people)

	after, err := f.places.Counts(f.ctx, &ka)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.Places[models.PlaceTypeAC])
	assert.Zero(t, after.Places[models.PlaceTypePB])
	assert.Equal(t, int64(1), after.People[models.RoleCoordinator])
	assert.Equal(t, int64(1), after.People[models.RoleVolunteer])

	assert.ErrorIs(t, f.places.Delete(f.ctx, &ac), services.ErrNotFound)
}

func TestRenameRefreshesLookups(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")

	_, err := f.places.FindByKey(f.ctx, ac.Key)
	require.NoError(t, err)
	require.NoError(t, f.places.Rename(f.ctx, &ac, "  Shivajinagar "))

	got, err := f.places.FindByKey(f.ctx, ac.Key)
	require.NoError(t, err)
	assert.Equal(t, "Shivajinagar", got.Name)

	assert.True(t, services.IsValidation(f.places.Rename(f.ctx, &ac, " ")))
}
