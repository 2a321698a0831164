package services_test

import (
	"testing"
	"time"

	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimAndRelease(t *testing.T) {
	f := newFixture(t)
	marker := services.SentOnceKey("voterid-pending", "Asha@Example.com")
	assert.Equal(t, "sent/voterid-pending/asha@example.com", marker)

	ok, err := f.things.Claim(f.ctx, marker)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.things.Claim(f.ctx, marker)
	require.NoError(t, err)
	assert.False(t, ok, "a claimed marker is not claimed twice")

	require.NoError(t, f.things.Release(f.ctx, marker))
	ok, err = f.things.Claim(f.ctx, marker)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSentOncePerDayKeyRollsOver(t *testing.T) {
	f := newFixture(t)
	today := f.things.SentOncePerDayKey("reminder", "asha@example.com")
	assert.Equal(t, "sent/reminder/asha@example.com/2026-03-10", today)

	ok, err := f.things.Claim(f.ctx, today)
	require.NoError(t, err)
	require.True(t, ok)

	f.clock.Advance(24 * time.Hour)
	tomorrow := f.things.SentOncePerDayKey("reminder", "asha@example.com")
	assert.NotEqual(t, today, tomorrow)
	ok, err = f.things.Claim(f.ctx, tomorrow)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPlaceInfo(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")

	info, err := f.things.PlaceInfo(f.ctx, &ka)
	require.NoError(t, err)
	assert.Empty(t, info.Links)

	want := services.PlaceInfo{
		Links:      []services.Link{{Title: " Booth list ", URL: "https://example.com/booths"}},
		Localities: []string{"Jayanagar", "BTM"},
		Notes:      "meet at the park",
	}
	require.NoError(t, f.things.SetPlaceInfo(f.ctx, &ka, want))
	require.NoError(t, f.things.SetPlaceInfo(f.ctx, &ka, want))

	got, err := f.things.PlaceInfo(f.ctx, &ka)
	require.NoError(t, err)
	assert.Equal(t, "Booth list", got.Links[0].Title)
	assert.Equal(t, want.Localities, got.Localities)
	assert.Equal(t, int64(1), f.count(t, &models.Thing{}, "type = ?", services.ThingPlaceInfo))

	err = f.things.SetPlaceInfo(f.ctx, &ka, services.PlaceInfo{Links: []services.Link{{Title: "x", URL: "not a url"}}})
	assert.True(t, services.IsValidation(err))
}

func TestInvites(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")

	added, err := f.things.AddInvite(f.ctx, services.Invite{Name: "Asha", Email: "Asha@example.com", Batch: "b1", PlaceID: ka.ID})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = f.things.AddInvite(f.ctx, services.Invite{Name: "Asha K", Email: "asha@example.com", Batch: "b1", PlaceID: ka.ID})
	require.NoError(t, err)
	assert.False(t, added)
	added, err = f.things.AddInvite(f.ctx, services.Invite{Name: "Ravi", Phone: "9876543210", Batch: "b1", PlaceID: ka.ID})
	require.NoError(t, err)
	assert.True(t, added)

	_, err = f.things.AddInvite(f.ctx, services.Invite{Name: "Nobody", Batch: "b1"})
	assert.True(t, services.IsValidation(err))

	invites, err := f.things.Invites(f.ctx)
	require.NoError(t, err)
	require.Len(t, invites, 2)
}
