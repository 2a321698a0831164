package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddVolunteerRefreshesCounts(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	pb := f.add(t, ac, models.PlaceTypePB, "PB0001")

	counts, err := f.places.Counts(f.ctx, &ka)
	require.NoError(t, err)
	assert.Empty(t, counts.People)
	_, err = f.places.Counts(f.ctx, &ac)
	require.NoError(t, err)

	f.person(t, pb, "Asha", "asha@example.com", "9876543210", models.RoleVolunteer)

	for _, p := range []models.Place{ka, ac, pb} {
		counts, err := f.places.Counts(f.ctx, &p)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts.People[models.RoleVolunteer], p.Key)
	}
}

func TestAddVolunteerValidates(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")

	_, err := f.people.AddVolunteer(f.ctx, nil, &ka, services.VolunteerInput{Name: "Ravi", Phone: "12345"})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phone", ve.Fields[0].Field)

	_, err = f.people.AddVolunteer(f.ctx, nil, &ka, services.VolunteerInput{Phone: "9876543210", Email: "not-an-email"})
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 2)

	p, err := f.people.AddVolunteer(f.ctx, nil, &ka, services.VolunteerInput{
		Name: " Ravi ", Email: "Ravi@Example.COM", Phone: "+91 98765-43210", Role: "PB_Agent", VoterID: "abc1234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", p.Name)
	assert.Equal(t, "ravi@example.com", p.Email)
	assert.Equal(t, models.RolePBAgent, p.Role)
	assert.Equal(t, "ABC1234567", p.VoterID)
	assert.Zero(t, f.count(t, &models.Activity{}, ""), "nothing is recorded without an actor")
}

func TestAddVolunteerRecordsActivity(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	admin := f.person(t, ka, "Admin", "admin@example.com", "9876543210", models.RoleAdmin)

	_, err := f.people.AddVolunteer(f.ctx, &admin, &ka, services.VolunteerInput{Name: "Ravi", Phone: "9876543211"})
	require.NoError(t, err)

	acts, err := f.ledger.RecentActivity(f.ctx, &ka, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, models.ActivityVolunteerAdded, acts[0].Type)
	require.NotNil(t, acts[0].PersonID)
	assert.Equal(t, admin.ID, *acts[0].PersonID)

	var data map[string]any
	require.NoError(t, acts[0].Data.Decode(&data))
	assert.Equal(t, "Ravi", data["name"])
}

func TestCoordinatorsForFallsBackToAC(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	pb := f.add(t, ac, models.PlaceTypePB, "PB0001")
	f.person(t, ac, "AC Lead", "lead@example.com", "9876543210", models.RoleCoordinator)

	coords, err := f.people.CoordinatorsFor(f.ctx, &pb)
	require.NoError(t, err)
	require.Len(t, coords, 1)
	assert.Equal(t, "AC Lead", coords[0].Name)

	f.person(t, pb, "Booth Lead", "booth@example.com", "9876543211", models.RoleCoordinator)
	coords, err = f.people.CoordinatorsFor(f.ctx, &pb)
	require.NoError(t, err)
	require.Len(t, coords, 1)
	assert.Equal(t, "Booth Lead", coords[0].Name)
}

func TestPopulateVoterIDInfoMovesAgent(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	pb1 := f.add(t, ac, models.PlaceTypePB, "PB0001")
	pb2 := f.add(t, ac, models.PlaceTypePB, "PB0002")
	f.lookup.add("ABC1234567", "1", "2")

	agent, err := f.people.AddVolunteer(f.ctx, nil, &pb1, services.VolunteerInput{
		Name: "Agent", Phone: "9876543210", Role: "pb_agent", VoterID: "abc1234567",
	})
	require.NoError(t, err)
	assert.Equal(t, pb2.ID, agent.PlaceID)

	stored, err := f.people.FindByID(f.ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, pb2.ID, stored.PlaceID)

	info, err := f.people.VoterInfo(f.ctx, "abc1234567")
	require.NoError(t, err)
	require.NotNil(t, info.PBID)
	assert.Equal(t, pb2.ID, *info.PBID)
	assert.Equal(t, "Test Voter", info.Name)

	counts, err := f.places.Counts(f.ctx, &pb2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.People[models.RolePBAgent])

	volunteer, err := f.people.AddVolunteer(f.ctx, nil, &pb1, services.VolunteerInput{
		Name: "Volunteer", Phone: "9876543211", VoterID: "ABC1234567",
	})
	require.NoError(t, err)
	assert.Equal(t, pb1.ID, volunteer.PlaceID, "only polling booth agents are moved")
	assert.Equal(t, int32(1), f.lookup.calls.Load(), "a stored voter id is not fetched again")
}

func TestPopulateVoterIDInfoStoresOneRow(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	f.add(t, ac, models.PlaceTypePB, "PB0001")
	f.lookup.add("ABC1234567", "1", "1")
	f.lookup.delay = 50 * time.Millisecond

	people := make([]models.Person, 6)
	for i := range people {
		people[i] = f.person(t, ac, "Voter", "", fmt.Sprintf("98765432%02d", i), models.RoleVolunteer)
		people[i].VoterID = "ABC1234567"
	}

	var wg sync.WaitGroup
	errs := make([]error, len(people))
	for i := range people {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.people.PopulateVoterIDInfo(f.ctx, nil, &people[i])
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), f.count(t, &models.VoterIDInfo{}, "voterid = ?", "ABC1234567"))
}

func TestPopulateVoterIDInfoOutlivesCancelledCaller(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	pb := f.add(t, ac, models.PlaceTypePB, "PB0001")
	f.lookup.add("ABC1234567", "1", "1")
	f.lookup.delay = 100 * time.Millisecond

	first := f.person(t, ac, "Asha", "", "9876543210", models.RolePBAgent)
	second := f.person(t, ac, "Ravi", "", "9876543211", models.RolePBAgent)
	first.VoterID, second.VoterID = "ABC1234567", "ABC1234567"

	ctx, cancel := context.WithCancel(f.ctx)
	var wg sync.WaitGroup
	var firstErr, secondErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		firstErr = f.people.PopulateVoterIDInfo(ctx, nil, &first)
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		secondErr = f.people.PopulateVoterIDInfo(f.ctx, nil, &second)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	wg.Wait()

	assert.ErrorIs(t, firstErr, context.Canceled)
	require.NoError(t, secondErr)
	assert.Equal(t, int32(1), f.lookup.calls.Load())
	assert.Equal(t, pb.ID, second.PlaceID, "the waiting caller still gets the booth")

	info, err := f.people.VoterInfo(f.ctx, "ABC1234567")
	require.NoError(t, err)
	require.NotNil(t, info.PBID)
	assert.Equal(t, pb.ID, *info.PBID)
}

func TestPopulateVoterIDInfoLookupFailure(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	f.lookup.err = errors.New("roll unavailable")

	p, err := f.people.AddVolunteer(f.ctx, nil, &ka, services.VolunteerInput{Name: "Ravi", Phone: "9876543210", VoterID: "ABC1234567"})
	require.NoError(t, err)
	assert.Equal(t, ka.ID, p.PlaceID)
	assert.Zero(t, f.count(t, &models.VoterIDInfo{}, ""))

	_, err = f.people.VoterInfo(f.ctx, "ABC1234567")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdatePerson(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	f.add(t, ac, models.PlaceTypePB, "PB0001")
	admin := f.person(t, ka, "Admin", "admin@example.com", "9876543210", models.RoleAdmin)
	p := f.person(t, ac, "Ravi", "ravi@example.com", "9876543211", models.RoleVolunteer)
	f.lookup.add("XYZ7654321", "1", "1")

	ok, err := f.access.WritableBy(f.ctx, &ac, "ravi@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	voterID, email, role := "xyz7654321", "Ravi.K@example.com", "coordinator"
	require.NoError(t, f.people.Update(f.ctx, &admin, &p, services.PersonUpdate{VoterID: &voterID, Email: &email, Role: &role}))
	assert.Equal(t, "XYZ7654321", p.VoterID)
	assert.Equal(t, "ravi.k@example.com", p.Email)

	assert.Equal(t, int64(1), f.count(t, &models.Activity{}, "type = ?", models.ActivityVoterIDAdded))
	assert.Equal(t, int64(1), f.count(t, &models.Activity{}, "type = ?", models.ActivityPersonUpdated))
	_, err = f.people.VoterInfo(f.ctx, "XYZ7654321")
	require.NoError(t, err)

	old, err := f.people.FindByEmail(f.ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.Empty(t, old)
	ok, err = f.access.WritableBy(f.ctx, &ac, "RAVI.K@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	bad := "123"
	assert.True(t, services.IsValidation(f.people.Update(f.ctx, &admin, &p, services.PersonUpdate{Phone: &bad})))

	require.NoError(t, f.people.Update(f.ctx, &admin, &p, services.PersonUpdate{}))
	assert.Equal(t, int64(1), f.count(t, &models.Activity{}, "type = ?", models.ActivityPersonUpdated), "an empty update records nothing")
}

func TestDeletePersonKeepsHistory(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	pb := f.add(t, ka, models.PlaceTypePB, "PB0001")
	editor := f.person(t, ka, "Editor", "editor@example.com", "9876543210", models.RoleCoordinator)

	_, err := f.ledger.AddCoverage(f.ctx, &editor, &pb, "2026-03-10", []map[string]any{{"house": 1}})
	require.NoError(t, err)

	require.NoError(t, f.people.Delete(f.ctx, nil, &editor))

	_, err = f.people.FindByID(f.ctx, editor.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Zero(t, f.count(t, &models.Coverage{}, "editor_id IS NOT NULL"))
	assert.Zero(t, f.count(t, &models.Activity{}, "person_id IS NOT NULL"))
	assert.Equal(t, int64(1), f.count(t, &models.Coverage{}, ""))
	assert.Equal(t, int64(1), f.count(t, &models.Activity{}, ""))

	ok, err := f.access.WritableBy(f.ctx, &ka, "editor@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, f.people.Delete(f.ctx, nil, &editor), services.ErrNotFound)
}

func TestImportVolunteers(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	other := f.add(t, ka, models.PlaceTypeAC, "AC002")
	pb := f.add(t, ac, models.PlaceTypePB, "PB0001")

	rows := []services.ImportRow{
		{VolunteerInput: services.VolunteerInput{Name: "Asha", Email: "asha@example.com", Phone: "9876500001"}},
		{VolunteerInput: services.VolunteerInput{Name: "Asha again", Email: "ASHA@example.com", Phone: "9876500002"}},
		{VolunteerInput: services.VolunteerInput{Name: "Bad phone", Phone: "42"}},
		{VolunteerInput: services.VolunteerInput{Name: "Booth", Phone: "9876500003"}, PlaceKey: pb.Key},
		{VolunteerInput: services.VolunteerInput{Name: "Elsewhere", Phone: "9876500004"}, PlaceKey: other.Key},
		{VolunteerInput: services.VolunteerInput{Name: "Agent", Phone: "9876500001", Role: "pb_agent"}},
	}
	res, err := f.people.ImportVolunteers(f.ctx, nil, &ac, rows, "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Batch)
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Failed)

	booth, err := f.people.People(f.ctx, &pb)
	require.NoError(t, err)
	require.Len(t, booth, 1)
	assert.Equal(t, res.Batch, booth[0].Notes)

	again, err := f.people.ImportVolunteers(f.ctx, nil, &ac, rows[:1], "second")
	require.NoError(t, err)
	assert.Equal(t, services.ImportResult{Batch: "second", Skipped: 1}, again)

	dup, err := f.people.IsDuplicate(f.ctx, &other, rows[0].VolunteerInput)
	require.NoError(t, err)
	assert.False(t, dup, "duplicates are only checked inside the subtree")
}
