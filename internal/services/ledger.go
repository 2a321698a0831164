package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/localnerve/voternet/internal/cache"
	"github.com/localnerve/voternet/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// Metric names a rollup series.
type Metric string

const (
	MetricCoverage   Metric = "coverage"
	MetricVolunteers Metric = "volunteers"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(s)); m {
	case MetricCoverage, MetricVolunteers:
		return m, nil
	}
	return "", NewValidationError("metric", "unknown metric %q", s)
}

// DayCount is one day of a summary series. Total is the running total up to and including Date.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Total int    `json:"total"`
}

// Summary is the dashboard view of one metric.
type Summary struct {
	Metric    Metric     `json:"metric"`
	Today     int        `json:"today"`
	Yesterday int        `json:"yesterday"`
	ThisWeek  int        `json:"this_week"`
	Total     int        `json:"total"`
	Series    []DayCount `json:"series"`
}

// Ledger records activity and coverage and aggregates them over subtrees.
type Ledger struct {
	db    *gorm.DB
	cache *cache.Cache
	clock clockwork.Clock
	loc   *time.Location
	log   *slog.Logger
}

// NewLedger creates a Ledger. Dates are computed in loc.
func NewLedger(db *gorm.DB, c *cache.Cache, clock clockwork.Clock, loc *time.Location, log *slog.Logger) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{db: db, cache: c, clock: clock, loc: loc, log: log}
}

// Today is the current date in the ledger's time zone.
func (l *Ledger) Today() string {
	return l.clock.Now().In(l.loc).Format(models.DateLayout)
}

func (l *Ledger) read(ctx context.Context) *gorm.DB {
	return l.db.WithContext(ctx).Session(&gorm.Session{Logger: l.db.Logger.LogMode(logger.Silent)})
}

// RecordActivity appends an activity row using tx, or the ledger's own connection when
// tx is nil. Without an actor nothing is recorded. An actor without an id, such as a
// session user with no person row, is recorded by email in the payload. A nil Ledger
// records nothing.
func (l *Ledger) RecordActivity(ctx context.Context, tx *gorm.DB, place *models.Place, t models.ActivityType, actor *models.Person, payload map[string]any) error {
	if l == nil || actor == nil {
		return nil
	}
	if tx == nil {
		tx = l.db.WithContext(ctx)
	}

	data := make(map[string]any, len(payload)+1)
	maps.Copy(data, payload)
	var personID *uint
	if actor.ID != 0 {
		id := actor.ID
		personID = &id
	} else if actor.Email != "" {
		data["actor_email"] = actor.Email
	}

	js, err := models.NewJSON(data)
	if err != nil {
		return err
	}
	a := models.Activity{
		Type:      t,
		PlaceID:   place.ID,
		PersonID:  personID,
		Data:      js,
		CreatedAt: l.clock.Now().UTC(),
	}
	if err := tx.Create(&a).Error; err != nil {
		return fmt.Errorf("record %s activity: %w", t, err)
	}
	return nil
}

// AddCoverage replaces the coverage of place on date with rows.
func (l *Ledger) AddCoverage(ctx context.Context, actor *models.Person, place *models.Place, date string, rows []map[string]any) (models.Coverage, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.Coverage{}, NewValidationError("date", "must be YYYY-MM-DD")
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	js, err := models.NewJSON(rows)
	if err != nil {
		return models.Coverage{}, err
	}

	c := models.Coverage{PlaceID: place.ID, Date: date, Data: js, Count: len(rows), CreatedAt: l.clock.Now().UTC()}
	if actor != nil && actor.ID != 0 {
		id := actor.ID
		c.EditorID = &id
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old []models.Coverage
		if err := tx.Where("place_id = ? AND date = ?", place.ID, date).Find(&old).Error; err != nil {
			return err
		}
		if err := tx.Where("place_id = ? AND date = ?", place.ID, date).Delete(&models.Coverage{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&c).Error; err != nil {
			return err
		}

		payload := map[string]any{"date": date, "count": c.Count}
		kind := models.ActivityCoverageAdded
		if len(old) > 0 {
			kind = models.ActivityCoverageUpdated
			payload["old_count"] = old[0].Count
		}
		return l.RecordActivity(ctx, tx, place, kind, actor, payload)
	})
	if err != nil {
		return models.Coverage{}, fmt.Errorf("add coverage for %s on %s: %w", place.Key, date, err)
	}

	invalidatePlaces(l.cache, place)
	return c, nil
}

// Coverage returns the coverage of place on date.
func (l *Ledger) Coverage(ctx context.Context, place *models.Place, date string) (models.Coverage, error) {
	var c models.Coverage
	if err := l.read(ctx).Where("place_id = ? AND date = ?", place.ID, date).First(&c).Error; err != nil {
		return models.Coverage{}, notFound(err, fmt.Sprintf("coverage of %s on %s", place.Key, date))
	}
	return c, nil
}

// Rollup totals metric per date over the subtree of place.
func (l *Ledger) Rollup(ctx context.Context, place *models.Place, metric Metric) (map[string]int, error) {
	byDate, err := cache.Memoize(l.cache, place, "rollup:"+string(metric), func() (map[string]int, error) {
		q := l.read(ctx).Clauses(hints.Comment("select", "rollup"))
		out := make(map[string]int)

		switch metric {
		case MetricCoverage:
			var rows []struct {
				Date  string
				Count int
			}
			if err := q.Model(&models.Coverage{}).Select("date", "count").
				Where("place_id IN (?)", subtreeIDs(l.read(ctx), place)).Scan(&rows).Error; err != nil {
				return nil, err
			}
			for _, r := range rows {
				out[r.Date] += r.Count
			}

		case MetricVolunteers:
			var created []time.Time
			if err := q.Model(&models.Person{}).
				Where("place_id IN (?)", subtreeIDs(l.read(ctx), place)).
				Pluck("created_at", &created).Error; err != nil {
				return nil, err
			}
			for _, t := range created {
				out[t.In(l.loc).Format(models.DateLayout)]++
			}

		default:
			return nil, NewValidationError("metric", "unknown metric %q", metric)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(byDate), nil
}

// Summary computes today, yesterday, this week (the last seven days including today),
// the total and a cumulative series from the earliest date, or yesterday when there is
// no data, through today.
func (l *Ledger) Summary(ctx context.Context, place *models.Place, metric Metric) (Summary, error) {
	byDate, err := l.Rollup(ctx, place, metric)
	if err != nil {
		return Summary{}, err
	}
	return summarize(metric, byDate, l.clock.Now().In(l.loc)), nil
}

// Summaries computes the summaries of several metrics concurrently.
func (l *Ledger) Summaries(ctx context.Context, place *models.Place, metrics ...Metric) ([]Summary, error) {
	out := make([]Summary, len(metrics))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range metrics {
		g.Go(func() error {
			s, err := l.Summary(gctx, place, m)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func summarize(metric Metric, byDate map[string]int, now time.Time) Summary {
	day := func(t time.Time) string { return t.Format(models.DateLayout) }
	todayT := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today := day(todayT)
	yesterday := day(todayT.AddDate(0, 0, -1))
	weekStart := day(todayT.AddDate(0, 0, -6))

	s := Summary{Metric: metric, Today: byDate[today], Yesterday: byDate[yesterday]}

	dates := make([]string, 0, len(byDate))
	for d, n := range byDate {
		dates = append(dates, d)
		s.Total += n
		if d >= weekStart && d <= today {
			s.ThisWeek += n
		}
	}
	sort.Strings(dates)

	start := todayT.AddDate(0, 0, -1)
	if len(dates) > 0 {
		if first, err := time.Parse(models.DateLayout, dates[0]); err == nil && !first.After(todayT) {
			start = first
		}
	}

	running := 0
	for d := start; !d.After(todayT); d = d.AddDate(0, 0, 1) {
		key := day(d)
		running += byDate[key]
		s.Series = append(s.Series, DayCount{Date: key, Count: byDate[key], Total: running})
	}
	return s
}

// RecentActivity lists the newest activity in the subtree of place.
func (l *Ledger) RecentActivity(ctx context.Context, place *models.Place, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.Activity
	q := l.read(ctx)
	err := q.Where("place_id IN (?)", subtreeIDs(l.read(ctx), place)).
		Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}
