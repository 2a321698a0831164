package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/localnerve/voternet/internal/cache"
	"github.com/localnerve/voternet/internal/electoralroll"
	"github.com/localnerve/voternet/internal/models"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PersonStore reads and writes people.
type PersonStore struct {
	db      *gorm.DB
	cache   *cache.Cache
	places  *PlaceStore
	ledger  *Ledger
	lookup  electoralroll.Lookup
	log     *slog.Logger
	lookups singleflight.Group
}

// NewPersonStore creates a PersonStore. lookup may be nil to disable booth reconciliation.
func NewPersonStore(db *gorm.DB, c *cache.Cache, places *PlaceStore, ledger *Ledger, lookup electoralroll.Lookup, log *slog.Logger) *PersonStore {
	return &PersonStore{db: db, cache: c, places: places, ledger: ledger, lookup: lookup, log: log}
}

func (s *PersonStore) read(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Session(&gorm.Session{Logger: s.db.Logger.LogMode(logger.Silent)})
}

// PersonUpdate lists the fields to change. Nil fields are left alone.
type PersonUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	VoterID *string `json:"voterid,omitempty"`
	Role    *string `json:"role,omitempty"`
	Notes   *string `json:"notes,omitempty"`
	PlaceID *uint   `json:"place_id,omitempty"`
}

// ImportRow is one volunteer to import. PlaceKey optionally places the volunteer
// somewhere inside the import root.
type ImportRow struct {
	VolunteerInput
	PlaceKey string `json:"place_key"`
}

// ImportResult counts the outcome of ImportVolunteers.
type ImportResult struct {
	Batch   string `json:"batch"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// AddVolunteer creates a person at place and, when a voter id is given, reconciles
// their booth against the electoral roll.
func (s *PersonStore) AddVolunteer(ctx context.Context, actor *models.Person, place *models.Place, in VolunteerInput) (models.Person, error) {
	if err := in.Validate(); err != nil {
		return models.Person{}, err
	}

	p := models.Person{
		PlaceID: place.ID,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		VoterID: in.VoterID,
		Role:    in.role(),
		Notes:   in.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return s.ledger.RecordActivity(ctx, tx, place, models.ActivityVolunteerAdded, actor, map[string]any{
			"person_id": p.ID,
			"name":      p.Name,
			"role":      p.Role,
		})
	})
	if err != nil {
		return models.Person{}, fmt.Errorf("add volunteer at %s: %w", place.Key, err)
	}

	invalidatePerson(s.cache, &p)
	invalidatePlaces(s.cache, place)

	if p.VoterID != "" {
		if err := s.PopulateVoterIDInfo(ctx, actor, &p); err != nil {
			s.log.Warn("voter id reconciliation failed", "person", p.ID, "voterid", p.VoterID, "error", err)
		}
	}
	return p, nil
}

// FindByID loads a person.
func (s *PersonStore) FindByID(ctx context.Context, id uint) (models.Person, error) {
	var p models.Person
	if err := s.read(ctx).First(&p, id).Error; err != nil {
		return models.Person{}, notFound(err, fmt.Sprintf("person %d", id))
	}
	return p, nil
}

// FindByEmail lists every person with email, case-insensitively.
func (s *PersonStore) FindByEmail(ctx context.Context, email string) ([]models.Person, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	people, err := cache.MemoizeArgs(s.cache, fnPeopleByEmail, []any{email}, func() ([]models.Person, error) {
		var out []models.Person
		err := s.read(ctx).Where("LOWER(email) = ?", email).Order("id").Find(&out).Error
		return out, err
	})
	return slices.Clone(people), err
}

// People lists the people attached directly to place, optionally filtered by role.
func (s *PersonStore) People(ctx context.Context, place *models.Place, roles ...models.Role) ([]models.Person, error) {
	q := s.read(ctx).Where("place_id = ?", place.ID)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	var out []models.Person
	err := q.Order("name").Find(&out).Error
	return out, err
}

// SubtreePeople lists the people attached anywhere in place's subtree, optionally filtered by role.
func (s *PersonStore) SubtreePeople(ctx context.Context, place *models.Place, roles ...models.Role) ([]models.Person, error) {
	q := s.read(ctx).Where("place_id IN (?)", subtreeIDs(s.read(ctx), place))
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	var out []models.Person
	err := q.Order("place_id, name").Find(&out).Error
	return out, err
}

// CoordinatorsFor returns the coordinators of place, or of its assembly constituency
// when the place has none.
func (s *PersonStore) CoordinatorsFor(ctx context.Context, place *models.Place) ([]models.Person, error) {
	people, err := s.places.Coordinators(ctx, place)
	if err != nil || len(people) > 0 || place.ACID == nil {
		return people, err
	}
	ac, err := s.places.FindByID(ctx, *place.ACID)
	if err != nil {
		return nil, err
	}
	return s.places.Coordinators(ctx, &ac)
}

// Update applies fields to person.
func (s *PersonStore) Update(ctx context.Context, actor *models.Person, person *models.Person, fields PersonUpdate) error {
	next := *person
	if fields.Name != nil {
		next.Name = *fields.Name
	}
	if fields.Email != nil {
		next.Email = *fields.Email
	}
	if fields.Phone != nil {
		next.Phone = *fields.Phone
	}
	if fields.VoterID != nil {
		next.VoterID = *fields.VoterID
	}
	if fields.Role != nil {
		next.Role = models.Role(*fields.Role)
	}
	if fields.Notes != nil {
		next.Notes = *fields.Notes
	}

	in := VolunteerInput{Name: next.Name, Email: next.Email, Phone: next.Phone, VoterID: next.VoterID, Role: string(next.Role), Notes: next.Notes}
	if err := in.Validate(); err != nil {
		return err
	}
	next.Name, next.Email, next.Phone, next.VoterID, next.Role, next.Notes = in.Name, in.Email, in.Phone, in.VoterID, in.role(), in.Notes

	oldPlace, err := s.places.FindByID(ctx, person.PlaceID)
	if err != nil {
		return err
	}
	newPlace := oldPlace
	if fields.PlaceID != nil && *fields.PlaceID != person.PlaceID {
		if newPlace, err = s.places.FindByID(ctx, *fields.PlaceID); err != nil {
			return err
		}
		next.PlaceID = newPlace.ID
	}

	changes := map[string]any{}
	if next.Name != person.Name {
		changes["name"] = next.Name
	}
	if next.Email != person.Email {
		changes["email"] = next.Email
	}
	if next.Phone != person.Phone {
		changes["phone"] = next.Phone
	}
	if next.VoterID != person.VoterID {
		changes["voterid"] = next.VoterID
	}
	if next.Role != person.Role {
		changes["role"] = next.Role
	}
	if next.Notes != person.Notes {
		changes["notes"] = next.Notes
	}
	if next.PlaceID != person.PlaceID {
		changes["place_id"] = next.PlaceID
	}
	if len(changes) == 0 {
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Person{}).Where("id = ?", person.ID).Updates(changes).Error; err != nil {
			return err
		}
		if person.VoterID == "" && next.VoterID != "" {
			if err := s.ledger.RecordActivity(ctx, tx, &newPlace, models.ActivityVoterIDAdded, actor, map[string]any{
				"person_id": person.ID,
				"voterid":   next.VoterID,
			}); err != nil {
				return err
			}
		}
		fieldNames := make([]string, 0, len(changes))
		for k := range changes {
			fieldNames = append(fieldNames, k)
		}
		slices.Sort(fieldNames)
		return s.ledger.RecordActivity(ctx, tx, &newPlace, models.ActivityPersonUpdated, actor, map[string]any{
			"person_id": person.ID,
			"fields":    fieldNames,
		})
	})
	if err != nil {
		return fmt.Errorf("update person %d: %w", person.ID, err)
	}

	before := *person
	*person = next
	invalidatePerson(s.cache, &before)
	invalidatePerson(s.cache, person)
	invalidatePlaces(s.cache, &oldPlace, &newPlace)

	if before.VoterID != person.VoterID && person.VoterID != "" {
		if err := s.PopulateVoterIDInfo(ctx, actor, person); err != nil {
			s.log.Warn("voter id reconciliation failed", "person", person.ID, "voterid", person.VoterID, "error", err)
		}
	}
	return nil
}

// Delete removes person. Coverage they edited and activity they performed are kept
// without the reference.
func (s *PersonStore) Delete(ctx context.Context, actor *models.Person, person *models.Person) error {
	place, err := s.places.FindByID(ctx, person.PlaceID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := detachPeople(tx, []uint{person.ID}); err != nil {
			return err
		}
		res := tx.Delete(&models.Person{}, person.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("person %d: %w", person.ID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete person %d: %w", person.ID, err)
	}

	invalidatePerson(s.cache, person)
	if place.ID != 0 {
		invalidatePlaces(s.cache, &place)
	}
	if actor != nil {
		s.log.Info("person deleted", "person", person.ID, "place", place.Key, "by", actor.Email)
	}
	return nil
}

// IsDuplicate reports whether root's subtree already has a person with the same role
// and the same email or the same phone.
func (s *PersonStore) IsDuplicate(ctx context.Context, root *models.Place, in VolunteerInput) (bool, error) {
	in.Normalize()
	if in.Email == "" && in.Phone == "" {
		return false, nil
	}

	q := s.read(ctx).Model(&models.Person{}).
		Where("place_id IN (?)", subtreeIDs(s.read(ctx), root)).
		Where("role = ?", in.role())
	switch {
	case in.Email != "" && in.Phone != "":
		q = q.Where("LOWER(email) = ? OR phone = ?", in.Email, in.Phone)
	case in.Email != "":
		q = q.Where("LOWER(email) = ?", in.Email)
	default:
		q = q.Where("phone = ?", in.Phone)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ImportVolunteers adds rows under root. Each row is its own transaction; duplicates
// and invalid rows are logged and counted, and the import carries on.
func (s *PersonStore) ImportVolunteers(ctx context.Context, actor *models.Person, root *models.Place, rows []ImportRow, batch string) (ImportResult, error) {
	if batch == "" {
		batch = uuid.NewString()
	}
	res := ImportResult{Batch: batch}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		place := *root
		if key := strings.Trim(row.PlaceKey, "/"); key != "" {
			p, err := s.places.FindByKey(ctx, key)
			if err == nil && !slices.Contains(p.ScopeIDs(), root.ID) {
				err = NewValidationError("place_key", "%s is outside %s", key, root.Key)
			}
			if err != nil {
				res.Failed++
				s.log.Warn("import row skipped", "batch", batch, "row", i+1, "error", err)
				continue
			}
			place = p
		}

		in := row.VolunteerInput
		if in.Notes == "" {
			in.Notes = batch
		}
		if err := in.Validate(); err != nil {
			res.Failed++
			s.log.Warn("import row skipped", "batch", batch, "row", i+1, "error", err)
			continue
		}

		dup, err := s.IsDuplicate(ctx, root, in)
		if err != nil {
			return res, err
		}
		if dup {
			res.Skipped++
			s.log.Info("import row skipped", "batch", batch, "row", i+1,
				"error", fmt.Errorf("%s already registered: %w", in.Name, ErrIntegrityViolation))
			continue
		}

		if _, err := s.AddVolunteer(ctx, actor, &place, in); err != nil {
			res.Failed++
			s.log.Warn("import row failed", "batch", batch, "row", i+1, "error", err)
			continue
		}
		res.Added++
	}

	s.log.Info("import finished", "batch", batch, "root", root.Key,
		"added", res.Added, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
