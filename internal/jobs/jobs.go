// Package jobs runs the batch commands used to onboard and remind polling booth agents.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/localnerve/voternet/internal/loader"
	"github.com/localnerve/voternet/internal/messaging"
	"github.com/localnerve/voternet/internal/models"
	"github.com/localnerve/voternet/internal/services"
)

// DefaultWorkers is the number of messages or lookups in flight at once.
const DefaultWorkers = 20

const smsVoterIDPending = "Please send us your Voter ID (EPIC number) so we can assign you to your polling booth: %s"

// Options configures a Runner.
type Options struct {
	Places  *services.PlaceStore
	People  *services.PersonStore
	Things  *services.ThingStore
	Mailer  messaging.Mailer
	SMS     messaging.SMSSender
	BaseURL string
	Workers int
	Logger  *slog.Logger
}

// Stats counts the outcome of a job.
type Stats struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type counter struct {
	total, done, skipped, failed atomic.Int64
}

func (c *counter) stats() Stats {
	return Stats{
		Total:   int(c.total.Load()),
		Done:    int(c.done.Load()),
		Skipped: int(c.skipped.Load()),
		Failed:  int(c.failed.Load()),
	}
}

// Runner executes jobs. Jobs that send messages claim a sent marker per recipient
// first, so running a job again only reaches the people it missed.
type Runner struct {
	opts Options
	pool pond.Pool
	log  *slog.Logger
}

// New creates a Runner with a pool of opts.Workers workers.
func New(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{opts: opts, pool: pond.NewPool(opts.Workers), log: log}
}

// Close waits for running tasks and stops the pool.
func (r *Runner) Close() {
	r.pool.StopAndWait()
}

func (r *Runner) place(ctx context.Context, key string) (models.Place, error) {
	p, err := r.opts.Places.FindByKey(ctx, key)
	if err != nil {
		return models.Place{}, fmt.Errorf("invalid place %s: %w", key, err)
	}
	return p, nil
}

func (r *Runner) url(key string) string {
	return strings.TrimRight(r.opts.BaseURL, "/") + "/" + key
}

// each runs fn for every item on the pool and waits for all of them.
func each[T any](ctx context.Context, r *Runner, items []T, fn func(context.Context, T)) error {
	group := r.pool.NewGroupContext(ctx)
	for _, it := range items {
		group.Submit(func() {
			fn(ctx, it)
		})
	}
	return group.Wait()
}

// mail sends one message type to one person unless their marker is already claimed.
func (r *Runner) mail(ctx context.Context, c *counter, marker, msgType string, n messaging.Notice) {
	c.total.Add(1)
	claimed, err := r.opts.Things.Claim(ctx, marker)
	if err != nil {
		r.log.Error("failed to claim sent marker", "marker", marker, "error", err)
		c.failed.Add(1)
		return
	}
	if !claimed {
		c.skipped.Add(1)
		return
	}

	e, err := messaging.Compose(msgType, n)
	if err == nil && !r.opts.Mailer.SendEmail(ctx, e) {
		err = fmt.Errorf("%s to %s: %w", msgType, n.Person.Email, services.ErrExternalLookup)
	}
	if err != nil {
		r.log.Error("failed to send email", "to", n.Person.Email, "type", msgType, "error", err)
		if err := r.opts.Things.Release(ctx, marker); err != nil {
			r.log.Error("failed to release sent marker", "marker", marker, "error", err)
		}
		c.failed.Add(1)
		return
	}
	c.done.Add(1)
}

func (r *Runner) home(ctx context.Context, p models.Person) *models.Place {
	place, err := r.opts.Places.FindByID(ctx, p.PlaceID)
	if err != nil {
		return nil
	}
	return &place
}

// EmailFillVoterID reminds polling booth agents under key who have an email but no voter
// id to add it. Each agent is reminded at most once a day.
func (r *Runner) EmailFillVoterID(ctx context.Context, key string) (Stats, error) {
	place, err := r.place(ctx, key)
	if err != nil {
		return Stats{}, err
	}
	agents, err := r.opts.People.SubtreePeople(ctx, &place, models.RolePBAgent)
	if err != nil {
		return Stats{}, err
	}

	var pending []models.Person
	for _, a := range agents {
		if a.Email != "" && a.VoterID == "" {
			pending = append(pending, a)
		}
	}

	var c counter
	err = each(ctx, r, pending, func(ctx context.Context, a models.Person) {
		home := r.home(ctx, a)
		url := r.url(place.Key)
		if home != nil {
			url = r.url(home.Key)
		}
		marker := r.opts.Things.SentOncePerDayKey(messaging.MsgVoterIDPending, a.Email)
		r.mail(ctx, &c, marker, messaging.MsgVoterIDPending, messaging.Notice{Person: a, Place: home, URL: url})
	})
	return c.stats(), err
}

// EmailVoterIDAdded tells polling booth agents under key whose voter id was found on the
// roll which booth they were assigned to. Each agent is told once.
func (r *Runner) EmailVoterIDAdded(ctx context.Context, key string) (Stats, error) {
	place, err := r.place(ctx, key)
	if err != nil {
		return Stats{}, err
	}
	agents, err := r.opts.People.SubtreePeople(ctx, &place, models.RolePBAgent)
	if err != nil {
		return Stats{}, err
	}

	var c counter
	err = each(ctx, r, agents, func(ctx context.Context, a models.Person) {
		if a.Email == "" || a.VoterID == "" {
			return
		}
		info, err := r.opts.People.VoterInfo(ctx, a.VoterID)
		if err != nil {
			return
		}
		n := messaging.Notice{Person: a, Info: &info, Place: r.home(ctx, a), URL: r.url(place.Key)}
		if info.PBID != nil {
			if booth, err := r.opts.Places.FindByID(ctx, *info.PBID); err == nil {
				n.Booth = &booth
				n.URL = r.url(booth.Key)
			}
		}
		r.mail(ctx, &c, services.SentOnceKey(messaging.MsgVoterIDAdded, a.Email), messaging.MsgVoterIDAdded, n)
	})
	return c.stats(), err
}

// SMSFillVoterID texts polling booth agents under key who have no voter id. Each number
// is texted at most once a day; numbers in a failed batch are retried by the next run.
func (r *Runner) SMSFillVoterID(ctx context.Context, key string) (Stats, error) {
	place, err := r.place(ctx, key)
	if err != nil {
		return Stats{}, err
	}
	agents, err := r.opts.People.SubtreePeople(ctx, &place, models.RolePBAgent)
	if err != nil {
		return Stats{}, err
	}

	var (
		s       Stats
		numbers []string
		markers = make(map[string]string)
	)
	for _, n := range agentNumbers(agents) {
		s.Total++
		marker := r.opts.Things.SentOncePerDayKey("sms_"+messaging.MsgVoterIDPending, n)
		claimed, err := r.opts.Things.Claim(ctx, marker)
		if err != nil {
			return s, err
		}
		if !claimed {
			s.Skipped++
			continue
		}
		numbers = append(numbers, n)
		markers[n] = marker
	}
	if len(numbers) == 0 {
		return s, nil
	}

	failed := r.opts.SMS.SendSMS(ctx, numbers, fmt.Sprintf(smsVoterIDPending, r.url(place.Key)))
	s.Failed = len(failed)
	s.Done = len(numbers) - len(failed)
	for _, n := range failed {
		m, ok := markers[n]
		if !ok {
			continue
		}
		if err := r.opts.Things.Release(ctx, m); err != nil {
			r.log.Error("failed to release sent marker", "marker", m, "error", err)
		}
	}
	return s, nil
}

func agentNumbers(agents []models.Person) []string {
	var raw []string
	for _, a := range agents {
		if a.VoterID == "" && a.Phone != "" {
			raw = append(raw, a.Phone)
		}
	}
	return messaging.NormalizeNumbers(raw)
}

// AddPBAgents adds each contact as a polling booth agent at key, skipping contacts that
// share an email or a phone with an agent already in the subtree.
func (r *Runner) AddPBAgents(ctx context.Context, key string, contacts []loader.Contact) (Stats, error) {
	place, err := r.place(ctx, key)
	if err != nil {
		return Stats{}, err
	}
	candidates := make([]models.Person, len(contacts))
	for i, c := range contacts {
		candidates[i] = models.Person{PlaceID: place.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
	}
	return r.addPBAgents(ctx, &place, candidates)
}

// AutoAddPBAgents gives every volunteer under key a polling booth agent entry at their
// own place.
func (r *Runner) AutoAddPBAgents(ctx context.Context, key string) (Stats, error) {
	place, err := r.place(ctx, key)
	if err != nil {
		return Stats{}, err
	}
	people, err := r.opts.People.SubtreePeople(ctx, &place)
	if err != nil {
		return Stats{}, err
	}
	var candidates []models.Person
	for _, p := range people {
		if p.Role != models.RolePBAgent {
			candidates = append(candidates, p)
		}
	}
	return r.addPBAgents(ctx, &place, candidates)
}

func (r *Runner) addPBAgents(ctx context.Context, root *models.Place, candidates []models.Person) (Stats, error) {
	var s Stats
	for _, c := range candidates {
		s.Total++
		in := services.VolunteerInput{
			Name: c.Name, Email: c.Email, Phone: c.Phone, VoterID: c.VoterID, Role: string(models.RolePBAgent),
		}
		dup, err := r.opts.People.IsDuplicate(ctx, root, in)
		if err != nil {
			return s, err
		}
		if dup {
			s.Skipped++
			continue
		}
		at := root
		if c.PlaceID != root.ID {
			if p := r.home(ctx, c); p != nil {
				at = p
			}
		}
		if _, err := r.opts.People.AddVolunteer(ctx, nil, at, in); err != nil {
			r.log.Warn("failed to add polling booth agent", "name", c.Name, "place", at.Key, "error", err)
			s.Failed++
			continue
		}
		s.Done++
		r.log.Info("added polling booth agent", "name", c.Name, "email", c.Email, "place", at.Key)
	}
	return s, nil
}

// UpdateVoterInfo resolves the voter id of every polling booth agent under key that has one.
func (r *Runner) UpdateVoterInfo(ctx context.Context, key string) (Stats, error) {
	place, err := r.place(ctx, key)
	if err != nil {
		return Stats{}, err
	}
	agents, err := r.opts.People.SubtreePeople(ctx, &place, models.RolePBAgent)
	if err != nil {
		return Stats{}, err
	}

	var c counter
	err = each(ctx, r, agents, func(ctx context.Context, a models.Person) {
		if a.VoterID == "" {
			return
		}
		c.total.Add(1)
		if err := r.opts.People.PopulateVoterIDInfo(ctx, nil, &a); err != nil {
			r.log.Warn("failed to update voter info", "person", a.ID, "voterid", a.VoterID, "error", err)
			c.failed.Add(1)
			return
		}
		c.done.Add(1)
	})
	return c.stats(), err
}

// AddInvites stores an invite per contact for the invite email job. Contacts already
// registered as polling booth agents under key are skipped.
func (r *Runner) AddInvites(ctx context.Context, key string, contacts []loader.Contact, batch string) (Stats, error) {
	place, err := r.place(ctx, key)
	if err != nil {
		return Stats{}, err
	}

	var s Stats
	for _, c := range contacts {
		s.Total++
		dup, err := r.opts.People.IsDuplicate(ctx, &place, services.VolunteerInput{
			Email: c.Email, Phone: c.Phone, Role: string(models.RolePBAgent),
		})
		if err != nil {
			return s, err
		}
		if dup {
			s.Skipped++
			continue
		}
		added, err := r.opts.Things.AddInvite(ctx, services.Invite{
			Name: c.Name, Phone: c.Phone, Email: c.Email, Batch: batch, PlaceID: place.ID,
		})
		switch {
		case err != nil:
			r.log.Warn("failed to add invite", "name", c.Name, "error", err)
			s.Failed++
		case added:
			s.Done++
		default:
			s.Skipped++
		}
	}
	r.log.Info("imported invites", "place", place.Key, "batch", batch, "added", s.Done)
	return s, nil
}

// EmailInvites emails every stored invite that has an email address, once per address.
func (r *Runner) EmailInvites(ctx context.Context) (Stats, error) {
	invites, err := r.opts.Things.Invites(ctx)
	if err != nil {
		return Stats{}, err
	}

	var c counter
	err = each(ctx, r, invites, func(ctx context.Context, inv services.Invite) {
		if inv.Email == "" {
			return
		}
		n := messaging.Notice{
			Person: models.Person{Name: inv.Name, Email: inv.Email, Phone: inv.Phone},
			URL:    r.url(""),
		}
		if place, err := r.opts.Places.FindByID(ctx, inv.PlaceID); err == nil {
			n.Place = &place
			n.URL = r.url(place.Key + "/signup")
		}
		r.mail(ctx, &c, services.SentOnceKey(messaging.MsgInvite, inv.Email), messaging.MsgInvite, n)
	})
	return c.stats(), err
}
