package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/localnerve/voternet/internal/messaging"
	"github.com/localnerve/voternet/internal/models"
)

// Signup registers people who sign up themselves as polling booth agents.
type Signup struct {
	people   *PersonStore
	places   *PlaceStore
	mailer   messaging.Mailer
	adminBCC []string
	baseURL  string
	log      *slog.Logger
}

// NewSignup creates a Signup. Thank you emails are blind copied to adminBCC.
func NewSignup(people *PersonStore, places *PlaceStore, mailer messaging.Mailer, adminBCC []string, baseURL string, log *slog.Logger) *Signup {
	return &Signup{people: people, places: places, mailer: mailer, adminBCC: adminBCC, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Register adds in as a polling booth agent at place and sends a thank you email copied to
// the coordinators of the place the agent ends up at. Someone already registered with the
// same email or phone in the assembly constituency is turned away.
func (s *Signup) Register(ctx context.Context, place *models.Place, in VolunteerInput) (models.Person, error) {
	in.Role = string(models.RolePBAgent)
	if err := in.Validate(); err != nil {
		return models.Person{}, err
	}
	if in.Email == "" {
		return models.Person{}, NewValidationError("email", "is required")
	}

	scope := place
	if place.ACID != nil {
		ac, err := s.places.FindByID(ctx, *place.ACID)
		if err != nil {
			return models.Person{}, err
		}
		scope = &ac
	}
	dup, err := s.people.IsDuplicate(ctx, scope, in)
	if err != nil {
		return models.Person{}, err
	}
	if dup {
		return models.Person{}, NewValidationError("email", "%s is already registered in %s", in.Email, scope.Name)
	}

	p, err := s.people.AddVolunteer(ctx, nil, place, in)
	if err != nil {
		return models.Person{}, err
	}

	home, err := s.places.FindByID(ctx, p.PlaceID)
	if err != nil {
		home = *place
	}
	s.thank(ctx, p, &home)
	return p, nil
}

func (s *Signup) thank(ctx context.Context, p models.Person, home *models.Place) {
	e, err := messaging.Compose(messaging.MsgSignup, messaging.Notice{
		Person: p,
		Place:  home,
		URL:    fmt.Sprintf("%s/%s", s.baseURL, home.Key),
	})
	if err != nil {
		s.log.Error("failed to render signup email", "person", p.ID, "error", err)
		return
	}

	coordinators, err := s.people.CoordinatorsFor(ctx, home)
	if err != nil {
		s.log.Warn("failed to load coordinators", "place", home.Key, "error", err)
	}
	for _, c := range coordinators {
		if c.Email != "" {
			e.Cc = append(e.Cc, c.Email)
		}
	}
	e.Bcc = append(e.Bcc, s.adminBCC...)

	if !s.mailer.SendEmail(ctx, e) {
		s.log.Warn("signup email not sent", "person", p.ID, "to", p.Email)
	}
}
