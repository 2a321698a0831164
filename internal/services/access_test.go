package services_test

import (
	"testing"

	"github.com/localnerve/voternet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritableBy(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac1 := f.add(t, ka, models.PlaceTypeAC, "AC001")
	ac2 := f.add(t, ka, models.PlaceTypeAC, "AC002")
	pb := f.add(t, ac1, models.PlaceTypePB, "PB0001")
	f.person(t, ac1, "Coordinator", "coord@example.com", "9876543210", models.RoleCoordinator)
	f.person(t, ac1, "Volunteer", "vol@example.com", "9876543211", models.RoleVolunteer)

	tests := []struct {
		name  string
		place models.Place
		email string
		roles []models.Role
		want  bool
	}{
		{"coordinator at own place", ac1, "coord@example.com", nil, true},
		{"coordinator below own place", pb, "Coord@Example.com", nil, true},
		{"coordinator above own place", ka, "coord@example.com", nil, false},
		{"coordinator at sibling", ac2, "coord@example.com", nil, false},
		{"volunteer with default roles", pb, "vol@example.com", nil, false},
		{"volunteer with volunteer role", pb, "vol@example.com", []models.Role{models.RoleVolunteer}, true},
		{"super admin anywhere", ac2, "ROOT@example.com", nil, true},
		{"unknown email", ac1, "nobody@example.com", nil, false},
		{"no email", ac1, "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.access.WritableBy(f.ctx, &tt.place, tt.email, tt.roles...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWritableBySeesNewPeople(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")

	ok, err := f.access.WritableBy(f.ctx, &ka, "new@example.com")
	require.NoError(t, err)
	require.False(t, ok)

	f.person(t, ka, "New Admin", "new@example.com", "9876543210", models.RoleAdmin)

	ok, err = f.access.WritableBy(f.ctx, &ka, "new@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestViewableBy(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac1 := f.add(t, ka, models.PlaceTypeAC, "AC001")
	ac2 := f.add(t, ka, models.PlaceTypeAC, "AC002")
	pb := f.add(t, ac1, models.PlaceTypePB, "PB0001")
	f.person(t, pb, "Agent", "agent@example.com", "9876543210", models.RolePBAgent)
	f.person(t, ka, "Viewer", "viewer@example.com", "9876543211", models.RoleUser)

	for _, p := range []models.Place{pb, ac1, ka} {
		ok, err := f.access.ViewableBy(f.ctx, &p, "agent@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "agent sees %s", p.Key)
	}
	ok, err := f.access.ViewableBy(f.ctx, &ac2, "agent@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, p := range []models.Place{ka, ac2, pb} {
		ok, err := f.access.ViewableBy(f.ctx, &p, "viewer@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "user role sees %s", p.Key)
	}
	ok, err = f.access.WritableBy(f.ctx, &ac2, "viewer@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActor(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	p := f.person(t, ka, "Admin", "admin@example.com", "9876543210", models.RoleAdmin)

	actor, err := f.access.Actor(f.ctx, "Admin@Example.com")
	require.NoError(t, err)
	require.NotNil(t, actor)
	assert.Equal(t, p.ID, actor.ID)

	actor, err = f.access.Actor(f.ctx, superAdmin)
	require.NoError(t, err)
	require.NotNil(t, actor)
	assert.Zero(t, actor.ID)
	assert.Equal(t, superAdmin, actor.Email)

	_, err = f.ledger.AddCoverage(f.ctx, actor, &ka, "2026-03-10", nil)
	require.NoError(t, err)
	acts, err := f.ledger.RecentActivity(f.ctx, &ka, 1)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Nil(t, acts[0].PersonID)
	var data map[string]any
	require.NoError(t, acts[0].Data.Decode(&data))
	assert.Equal(t, superAdmin, data["actor_email"])

	actor, err = f.access.Actor(f.ctx, " ")
	require.NoError(t, err)
	assert.Nil(t, actor)
}
