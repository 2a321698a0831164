package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/localnerve/voternet/internal/cache"
	"github.com/localnerve/voternet/internal/electoralroll"
	"github.com/localnerve/voternet/internal/logging"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
	"github.com/localnerve/voternet/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLookup struct {
	mu     sync.Mutex
	voters map[string]*electoralroll.Voter
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeLookup) FetchVoter(ctx context.Context, voterID string) (*electoralroll.Voter, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.voters[voterID], nil
}

func (f *fakeLookup) add(voterID, acNum, partNo string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voters == nil {
		f.voters = map[string]*electoralroll.Voter{}
	}
	f.voters[voterID] = &electoralroll.Voter{
		VoterID: voterID, ACNum: acNum, PartNo: partNo, SerialNo: "12",
		FirstName: "Test", LastName: "Voter", Gender: "F", Age: 40,
	}
}

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	cache  *cache.Cache
	clock  *clockwork.FakeClock
	lookup *fakeLookup
	places *services.PlaceStore
	people *services.PersonStore
	ledger *services.Ledger
	access *services.Access
	things *services.ThingStore
}

const superAdmin = "root@example.com"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	f := &fixture{
		ctx:    context.Background(),
		db:     testutil.NewDB(t),
		cache:  cache.New(),
		clock:  clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)),
		lookup: &fakeLookup{},
	}
	log := logging.Discard()
	f.ledger = services.NewLedger(f.db, f.cache, f.clock, loc, log)
	f.places = services.NewPlaceStore(f.db, f.cache, f.ledger, log)
	f.people = services.NewPersonStore(f.db, f.cache, f.places, f.ledger, f.lookup, log)
	f.access = services.NewAccess(f.places, f.people, []string{superAdmin})
	f.things = services.NewThingStore(f.db, f.clock, loc)
	return f
}

func (f *fixture) root(t *testing.T, code string) models.Place {
	t.Helper()
	p, err := f.places.AddRoot(f.ctx, models.PlaceTypeState, code, code+" state")
	require.NoError(t, err)
	return p
}

func (f *fixture) add(t *testing.T, parent models.Place, typ models.PlaceType, code string) models.Place {
	t.Helper()
	p, err := f.places.AddSubplace(f.ctx, &parent, code+" name", typ, code)
	require.NoError(t, err)
	return p
}

func (f *fixture) person(t *testing.T, place models.Place, name, email, phone string, role models.Role) models.Person {
	t.Helper()
	p, err := f.people.AddVolunteer(f.ctx, nil, &place, services.VolunteerInput{
		Name: name, Email: email, Phone: phone, Role: string(role),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
