package services_test

import (
	"testing"
	"time"

	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCoverageReplacesRows(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	pb := f.add(t, ka, models.PlaceTypePB, "PB0001")
	editor := f.person(t, ka, "Editor", "editor@example.com", "9876543210", models.RoleCoordinator)

	rows := []map[string]any{{"house": "12"}, {"house": "14"}}
	_, err := f.ledger.AddCoverage(f.ctx, &editor, &pb, "2026-03-09", rows)
	require.NoError(t, err)
	c, err := f.ledger.AddCoverage(f.ctx, &editor, &pb, "2026-03-09", rows[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count)

	assert.Equal(t, int64(1), f.count(t, &models.Coverage{}, "place_id = ? AND date = ?", pb.ID, "2026-03-09"))
	stored, err := f.ledger.Coverage(f.ctx, &pb, "2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Count)
	require.NotNil(t, stored.EditorID)
	assert.Equal(t, editor.ID, *stored.EditorID)

	var updated models.Activity
	require.NoError(t, f.db.Where("type = ?", models.ActivityCoverageUpdated).First(&updated).Error)
	var data map[string]any
	require.NoError(t, updated.Data.Decode(&data))
	assert.EqualValues(t, 2, data["old_count"])
	assert.EqualValues(t, 1, data["count"])
	assert.Equal(t, int64(1), f.count(t, &models.Activity{}, "type = ?", models.ActivityCoverageAdded))

	_, err = f.ledger.AddCoverage(f.ctx, &editor, &pb, "9 March", rows)
	assert.True(t, services.IsValidation(err))
	_, err = f.ledger.Coverage(f.ctx, &pb, "2026-03-08")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRollupAndSummary(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "2026-03-10", f.ledger.Today())

	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	pb1 := f.add(t, ac, models.PlaceTypePB, "PB0001")
	pb2 := f.add(t, ac, models.PlaceTypePB, "PB0002")
	other := f.add(t, ka, models.PlaceTypeAC, "AC002")

	cover := func(p models.Place, date string, n int) {
		rows := make([]map[string]any, n)
		for i := range rows {
			rows[i] = map[string]any{"house": i}
		}
		_, err := f.ledger.AddCoverage(f.ctx, nil, &p, date, rows)
		require.NoError(t, err)
	}
	cover(pb1, "2026-03-08", 3)
	cover(pb2, "2026-03-08", 2)
	cover(pb1, "2026-03-10", 4)
	cover(other, "2026-03-09", 7)

	byDate, err := f.ledger.Rollup(f.ctx, &ac, services.MetricCoverage)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2026-03-08": 5, "2026-03-10": 4}, byDate)

	s, err := f.ledger.Summary(f.ctx, &ac, services.MetricCoverage)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Today)
	assert.Equal(t, 0, s.Yesterday)
	assert.Equal(t, 9, s.ThisWeek)
	assert.Equal(t, 9, s.Total)
	assert.Equal(t, []services.DayCount{
		{Date: "2026-03-08", Count: 5, Total: 5},
		{Date: "2026-03-09", Count: 0, Total: 5},
		{Date: "2026-03-10", Count: 4, Total: 9},
	}, s.Series)

	cover(pb2, "2026-03-09", 1)
	s, err = f.ledger.Summary(f.ctx, &ac, services.MetricCoverage)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Yesterday, "new coverage invalidates the rollup of every ancestor")
	assert.Equal(t, 10, s.Total)

	f.clock.Advance(6 * 24 * time.Hour)
	s, err = f.ledger.Summary(f.ctx, &ac, services.MetricCoverage)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Today)
	assert.Equal(t, 4, s.ThisWeek, "the week is the last seven days including today")
	assert.Len(t, s.Series, 9)
}

func TestSummaryWithoutData(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")

	out, err := f.ledger.Summaries(f.ctx, &ka, services.MetricCoverage, services.MetricVolunteers)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, s := range out {
		assert.Zero(t, s.Total)
		require.Len(t, s.Series, 2)
		assert.Equal(t, "2026-03-09", s.Series[0].Date)
		assert.Equal(t, "2026-03-10", s.Series[1].Date)
	}
	assert.Equal(t, services.MetricVolunteers, out[1].Metric)
}

func TestVolunteerRollup(t *testing.T) {
	f := newFixture(t)
	ka := f.root(t, "KA")
	ac := f.add(t, ka, models.PlaceTypeAC, "AC001")
	a := f.person(t, ac, "A", "", "9876543210", models.RoleVolunteer)
	b := f.person(t, ac, "B", "", "9876543211", models.RoleVolunteer)
	f.person(t, ka, "C", "", "9876543212", models.RoleVolunteer)

	// 20:00 UTC is already the next day in India
	require.NoError(t, f.db.Model(&a).Update("created_at", time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)).Error)
	require.NoError(t, f.db.Model(&b).Update("created_at", time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)).Error)

	byDate, err := f.ledger.Rollup(f.ctx, &ac, services.MetricVolunteers)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2026-03-09": 2}, byDate)

	_, err = services.ParseMetric("donations")
	assert.True(t, services.IsValidation(err))
	m, err := services.ParseMetric("Volunteers")
	require.NoError(t, err)
	assert.Equal(t, services.MetricVolunteers, m)
}
