package services

import (
	"context"
	"slices"
	"strings"

	"github.com/localnerve/voternet/internal/models"
)

// DefaultWriteRoles may edit a place they are attached to, or any place below it.
var DefaultWriteRoles = []models.Role{models.RoleAdmin, models.RoleCoordinator}

// Access answers place scoped permission questions.
//
// Write access flows down from where a person is attached: a coordinator of an AC may
// edit the AC and everything in it. View access additionally reaches the places that a
// person's own place sits inside of.
type Access struct {
	people      *PersonStore
	places      *PlaceStore
	superAdmins map[string]bool
}

// NewAccess creates an Access. superAdmins may do anything.
func NewAccess(places *PlaceStore, people *PersonStore, superAdmins []string) *Access {
	admins := make(map[string]bool, len(superAdmins))
	for _, e := range superAdmins {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}
	return &Access{people: people, places: places, superAdmins: admins}
}

// IsSuperAdmin reports whether email is on the super admin allowlist.
func (a *Access) IsSuperAdmin(email string) bool {
	return a.superAdmins[strings.ToLower(strings.TrimSpace(email))]
}

// WritableBy reports whether email belongs to a super admin or to a person attached to
// place, or one of its ancestors, with one of roles. With no roles DefaultWriteRoles apply.
func (a *Access) WritableBy(ctx context.Context, place *models.Place, email string, roles ...models.Role) (bool, error) {
	if email == "" {
		return false, nil
	}
	if a.IsSuperAdmin(email) {
		return true, nil
	}
	if len(roles) == 0 {
		roles = DefaultWriteRoles
	}

	people, err := a.people.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	scope := place.ScopeIDs()
	for _, p := range people {
		if p.HasRole(roles...) && slices.Contains(scope, p.PlaceID) {
			return true, nil
		}
	}
	return false, nil
}

// ViewableBy reports whether email may see place: either WritableBy with the user role
// added, or a person with that email is attached to place or somewhere below it.
func (a *Access) ViewableBy(ctx context.Context, place *models.Place, email string) (bool, error) {
	ok, err := a.WritableBy(ctx, place, email, append(slices.Clone(DefaultWriteRoles), models.RoleUser)...)
	if ok || err != nil {
		return ok, err
	}

	people, err := a.people.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	for _, p := range people {
		home, err := a.places.FindByID(ctx, p.PlaceID)
		if err != nil {
			continue
		}
		if slices.Contains(home.ScopeIDs(), place.ID) {
			return true, nil
		}
	}
	return false, nil
}

// Actor resolves the person acting for email. A super admin, or a signed in user with
// no person row, is returned with a zero id so activity is recorded by email.
func (a *Access) Actor(ctx context.Context, email string) (*models.Person, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	people, err := a.people.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(people) > 0 {
		p := people[0]
		return &p, nil
	}
	return &models.Person{Email: email, Role: models.RoleUser}, nil
}
