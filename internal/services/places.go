package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/localnerve/voternet/internal/cache"
	"github.com/localnerve/voternet/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Names of the natural key lookups memoized by argument.
const (
	fnPlaceByKey    = "place_by_key"
	fnPlaceByID     = "place_by_id"
	fnPeopleByEmail = "people_by_email"
)

// PlaceIndexer receives places that were created, renamed or deleted.
type PlaceIndexer interface {
	IndexPlaces(ctx context.Context, places ...models.Place) error
	DeletePlaces(ctx context.Context, ids ...uint) error
}

// PlaceCounts summarizes a subtree.
type PlaceCounts struct {
	Places map[models.PlaceType]int64 `json:"places"`
	People map[models.Role]int64      `json:"people"`
}

// PlaceStore reads and writes the place tree.
type PlaceStore struct {
	db      *gorm.DB
	cache   *cache.Cache
	ledger  *Ledger
	log     *slog.Logger
	indexer PlaceIndexer
}

// NewPlaceStore creates a PlaceStore. ledger may be nil, in which case no activity is recorded.
func NewPlaceStore(db *gorm.DB, c *cache.Cache, ledger *Ledger, log *slog.Logger) *PlaceStore {
	return &PlaceStore{db: db, cache: c, ledger: ledger, log: log}
}

// SetIndexer registers the search index to keep in step with writes.
func (s *PlaceStore) SetIndexer(ix PlaceIndexer) {
	s.indexer = ix
}

func (s *PlaceStore) read(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Session(&gorm.Session{Logger: s.db.Logger.LogMode(logger.Silent)})
}

// keyIs matches the key column, which is a reserved word in MySQL and SQL Server.
func keyIs(key string) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: key}
}

var byKey = clause.OrderByColumn{Column: clause.Column{Name: "key"}}

// subtree restricts a places query to p and everything below it.
func subtree(q *gorm.DB, p *models.Place) *gorm.DB {
	if col, ok := p.Type.Column(); ok {
		return q.Where("id = ? OR "+col+" = ?", p.ID, p.ID)
	}
	return q.Where("id = ?", p.ID)
}

// subtreeIDs is a subquery selecting the ids of p's subtree.
func subtreeIDs(q *gorm.DB, p *models.Place) *gorm.DB {
	return subtree(q.Model(&models.Place{}).Select("id"), p)
}

// FindByKey resolves a hierarchical key such as "KA/AC001/PB0001".
func (s *PlaceStore) FindByKey(ctx context.Context, key string) (models.Place, error) {
	key = strings.Trim(key, "/")
	if key == "" {
		return models.Place{}, fmt.Errorf("place %q: %w", key, ErrNotFound)
	}
	return cache.MemoizeArgs(s.cache, fnPlaceByKey, []any{key}, func() (models.Place, error) {
		return s.walkKey(ctx, key)
	})
}

func (s *PlaceStore) walkKey(ctx context.Context, key string) (models.Place, error) {
	q := s.read(ctx)
	segs := strings.Split(key, "/")

	var cur models.Place
	if err := q.Where(keyIs(segs[0])).First(&cur).Error; err != nil {
		return models.Place{}, notFound(err, "place "+key)
	}

	prefix := segs[0]
	for i, seg := range segs[1:] {
		prefix += "/" + seg
		col, ok := cur.Type.Column()
		if !ok {
			return models.Place{}, fmt.Errorf("place %s: %w", key, ErrNotFound)
		}
		var next models.Place
		err := q.Where(col+" = ? AND code = ?", cur.ID, seg).Where(keyIs(prefix)).First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Keys stay put when a place is moved with SetParent; fall back to the stored key.
			var moved models.Place
			if err := q.Where(keyIs(key)).First(&moved).Error; err != nil {
				return models.Place{}, notFound(err, fmt.Sprintf("place %s (segment %d)", key, i+2))
			}
			return moved, nil
		}
		if err != nil {
			return models.Place{}, err
		}
		cur = next
	}
	return cur, nil
}

// FindByID loads a place by id.
func (s *PlaceStore) FindByID(ctx context.Context, id uint) (models.Place, error) {
	return cache.MemoizeArgs(s.cache, fnPlaceByID, []any{id}, func() (models.Place, error) {
		var p models.Place
		if err := s.read(ctx).First(&p, id).Error; err != nil {
			return models.Place{}, notFound(err, fmt.Sprintf("place %d", id))
		}
		return p, nil
	})
}

// Parent returns the direct parent of p. A polling booth with no ward reports its
// assembly constituency.
func (s *PlaceStore) Parent(ctx context.Context, p *models.Place) (models.Place, bool, error) {
	id, ok := p.ParentID()
	if !ok {
		return models.Place{}, false, nil
	}
	parent, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Place{}, false, err
	}
	return parent, true, nil
}

// Ancestors returns the ancestors of p from the root down.
func (s *PlaceStore) Ancestors(ctx context.Context, p *models.Place) ([]models.Place, error) {
	ids := p.AncestorIDs()
	out := make([]models.Place, 0, len(ids))
	for _, id := range ids {
		a, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Children lists places of the given types under p ordered by code. With no types
// the next type down is used.
func (s *PlaceStore) Children(ctx context.Context, p *models.Place, types ...models.PlaceType) ([]models.Place, error) {
	col, ok := p.Type.Column()
	if !ok {
		return nil, nil
	}
	if len(types) == 0 {
		next, _ := p.Type.Next()
		types = []models.PlaceType{next}
	}
	for _, t := range types {
		if !p.Type.Above(t) {
			return nil, NewValidationError("type", "%s is not below %s", t, p.Type)
		}
	}

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	children, err := cache.Memoize(s.cache, p, "children:"+strings.Join(names, ","), func() ([]models.Place, error) {
		var out []models.Place
		err := s.read(ctx).Where(col+" = ? AND type IN ?", p.ID, types).Order("code").Find(&out).Error
		return out, err
	})
	return slices.Clone(children), err
}

// ByType lists every place of type t ordered by key.
func (s *PlaceStore) ByType(ctx context.Context, t models.PlaceType) ([]models.Place, error) {
	var out []models.Place
	err := s.read(ctx).Where("type = ?", t).Order(byKey).Find(&out).Error
	return out, err
}

// All lists every place ordered by key.
func (s *PlaceStore) All(ctx context.Context) ([]models.Place, error) {
	var out []models.Place
	err := s.read(ctx).Order(byKey).Find(&out).Error
	return out, err
}

// Subtree lists p and everything below it ordered by key.
func (s *PlaceStore) Subtree(ctx context.Context, p *models.Place) ([]models.Place, error) {
	var out []models.Place
	err := subtree(s.read(ctx), p).Order(byKey).Find(&out).Error
	return out, err
}

// AddRoot creates a top level place. Its key is its code.
func (s *PlaceStore) AddRoot(ctx context.Context, t models.PlaceType, code, name string) (models.Place, error) {
	code = strings.TrimSpace(code)
	if !t.Valid() {
		return models.Place{}, NewValidationError("type", "unknown place type %q", t)
	}
	if code == "" || strings.Contains(code, "/") {
		return models.Place{}, NewValidationError("code", "a root place needs a code without '/'")
	}
	if strings.TrimSpace(name) == "" {
		name = code
	}

	p := models.Place{Key: code, Type: t, Code: code, Name: strings.TrimSpace(name)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureKeyFree(tx, p.Key); err != nil {
			return err
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return models.Place{}, fmt.Errorf("add root %s: %w", code, err)
	}

	s.invalidate(&p)
	s.index(ctx, p)
	return p, nil
}

// AddSubplace creates a place of type t under parent. An empty code is replaced by
// the next sequential code for the type.
func (s *PlaceStore) AddSubplace(ctx context.Context, parent *models.Place, name string, t models.PlaceType, code string) (models.Place, error) {
	if !parent.Type.Above(t) {
		return models.Place{}, NewValidationError("type", "a %s cannot be added under a %s", t, parent.Type)
	}
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if strings.Contains(code, "/") {
		return models.Place{}, NewValidationError("code", "code may not contain '/'")
	}

	var p models.Place
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if code == "" {
			next, err := nextCode(tx, parent, t)
			if err != nil {
				return err
			}
			code = next
		}
		if name == "" {
			name = code
		}
		p = models.Place{Key: parent.Key + "/" + code, Type: t, Code: code, Name: name}
		p.InheritFrom(parent)
		if err := ensureKeyFree(tx, p.Key); err != nil {
			return err
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return models.Place{}, fmt.Errorf("add %s under %s: %w", t, parent.Key, err)
	}

	s.invalidate(&p)
	s.index(ctx, p)
	return p, nil
}

func ensureKeyFree(tx *gorm.DB, key string) error {
	var n int64
	if err := tx.Model(&models.Place{}).Where(keyIs(key)).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return NewValidationError("code", "a place with key %s already exists", key)
	}
	return nil
}

// nextCode is the type prefix followed by one more than the largest numeric suffix
// among parent's children of type t.
func nextCode(tx *gorm.DB, parent *models.Place, t models.PlaceType) (string, error) {
	prefix := t.CodePrefix()
	col, ok := parent.Type.Column()
	if !ok {
		return "", NewValidationError("type", "%s has no children", parent.Type)
	}

	var codes []string
	err := tx.Model(&models.Place{}).
		Where(col+" = ? AND type = ? AND code LIKE ?", parent.ID, t, prefix+"%").
		Pluck("code", &codes).Error
	if err != nil {
		return "", err
	}

	highest := 0
	for _, c := range codes {
		if n, err := strconv.Atoi(strings.TrimPrefix(c, prefix)); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%02d", prefix, highest+1), nil
}

// SetParent points p, and every place below it, at newAncestor for the ancestor
// column of type t. A nil newAncestor clears the column.
//
// Keys are not rewritten: a moved place keeps the key it was created with so links to
// it keep working, and FindByKey resolves it through the stored key.
func (s *PlaceStore) SetParent(ctx context.Context, p *models.Place, t models.PlaceType, newAncestor *models.Place) error {
	if !t.Above(p.Type) {
		return NewValidationError("type", "%s is not above %s", t, p.Type)
	}
	var newID *uint
	if newAncestor != nil {
		if newAncestor.Type != t {
			return NewValidationError("parent", "%s is a %s, not a %s", newAncestor.Key, newAncestor.Type, t)
		}
		for _, above := range models.PlaceTypes[:t.Level()] {
			mine, theirs := p.AncestorID(above), newAncestor.AncestorID(above)
			if mine != nil && theirs != nil && *mine != *theirs {
				return NewValidationError("parent", "%s is in a different %s", newAncestor.Key, above)
			}
		}
		id := newAncestor.ID
		newID = &id
	}

	old := p.AncestorID(t)
	if (old == nil && newID == nil) || (old != nil && newID != nil && *old == *newID) {
		return nil
	}

	col, _ := t.Column()
	var touched []models.Place
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := subtree(tx, p).Find(&touched).Error; err != nil {
			return err
		}
		return subtree(tx.Model(&models.Place{}), p).Update(col, newID).Error
	})
	if err != nil {
		return fmt.Errorf("set %s of %s: %w", t, p.Key, err)
	}

	before := *p
	p.SetAncestorID(t, newID)

	stale := []*models.Place{&before, p}
	for i := range touched {
		stale = append(stale, &touched[i])
	}
	if newAncestor != nil {
		stale = append(stale, newAncestor)
	}
	s.invalidate(stale...)
	return nil
}

// Delete removes p, every place below it and every person attached to any of them.
func (s *PlaceStore) Delete(ctx context.Context, p *models.Place) error {
	var (
		places []models.Place
		people []models.Person
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := subtree(tx, p).Find(&places).Error; err != nil {
			return err
		}
		if len(places) == 0 {
			return fmt.Errorf("place %d: %w", p.ID, ErrNotFound)
		}
		ids := make([]uint, len(places))
		for i := range places {
			ids[i] = places[i].ID
		}

		if err := tx.Where("place_id IN ?", ids).Find(&people).Error; err != nil {
			return err
		}
		if len(people) > 0 {
			personIDs := make([]uint, len(people))
			for i := range people {
				personIDs[i] = people[i].ID
			}
			if err := detachPeople(tx, personIDs); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", personIDs).Delete(&models.Person{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("place_id IN ?", ids).Delete(&models.Coverage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("place_id IN ?", ids).Delete(&models.Thing{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Place{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete place %s: %w", p.Key, err)
	}

	stale := make([]*models.Place, len(places))
	ids := make([]uint, len(places))
	for i := range places {
		stale[i] = &places[i]
		ids[i] = places[i].ID
	}
	s.invalidate(stale...)
	for i := range people {
		invalidatePerson(s.cache, &people[i])
	}

	if s.indexer != nil {
		if err := s.indexer.DeletePlaces(ctx, ids...); err != nil {
			s.log.Warn("failed to remove places from search index", "place", p.Key, "error", err)
		}
	}
	return nil
}

// detachPeople clears references to people that are about to be deleted.
func detachPeople(tx *gorm.DB, personIDs []uint) error {
	if err := tx.Model(&models.Coverage{}).Where("editor_id IN ?", personIDs).
		Update("editor_id", nil).Error; err != nil {
		return err
	}
	return tx.Model(&models.Activity{}).Where("person_id IN ?", personIDs).
		Update("person_id", nil).Error
}

// Counts returns the number of places of each type and people of each role in p's subtree.
func (s *PlaceStore) Counts(ctx context.Context, p *models.Place) (PlaceCounts, error) {
	counts, err := cache.Memoize(s.cache, p, "counts", func() (PlaceCounts, error) {
		out := PlaceCounts{Places: map[models.PlaceType]int64{}, People: map[models.Role]int64{}}
		q := s.read(ctx)

		if col, ok := p.Type.Column(); ok {
			var rows []struct {
				Type models.PlaceType
				N    int64
			}
			if err := q.Model(&models.Place{}).Select("type, count(*) AS n").
				Where(col+" = ?", p.ID).Group("type").Scan(&rows).Error; err != nil {
				return out, err
			}
			for _, r := range rows {
				out.Places[r.Type] = r.N
			}
		}

		var rows []struct {
			Role models.Role
			N    int64
		}
		if err := q.Model(&models.Person{}).Select("role, count(*) AS n").
			Where("place_id IN (?)", subtreeIDs(q, p)).Group("role").Scan(&rows).Error; err != nil {
			return out, err
		}
		for _, r := range rows {
			out.People[r.Role] = r.N
		}
		return out, nil
	})
	if err != nil {
		return PlaceCounts{}, err
	}
	// copy the maps so callers cannot mutate the cached value
	out := PlaceCounts{Places: make(map[models.PlaceType]int64, len(counts.Places)), People: make(map[models.Role]int64, len(counts.People))}
	for k, v := range counts.Places {
		out.Places[k] = v
	}
	for k, v := range counts.People {
		out.People[k] = v
	}
	return out, nil
}

// Coordinators lists the coordinators attached directly to p.
func (s *PlaceStore) Coordinators(ctx context.Context, p *models.Place) ([]models.Person, error) {
	people, err := cache.Memoize(s.cache, p, "coordinators", func() ([]models.Person, error) {
		var out []models.Person
		err := s.read(ctx).Where("place_id = ? AND role = ?", p.ID, models.RoleCoordinator).
			Order("name").Find(&out).Error
		return out, err
	})
	return slices.Clone(people), err
}

// Rename changes the display name of p.
func (s *PlaceStore) Rename(ctx context.Context, p *models.Place, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "is required")
	}
	if err := s.db.WithContext(ctx).Model(&models.Place{}).Where("id = ?", p.ID).
		Update("name", name).Error; err != nil {
		return fmt.Errorf("rename %s: %w", p.Key, err)
	}
	p.Name = name
	s.invalidate(p)
	s.index(ctx, *p)
	return nil
}

// invalidate drops the memoized entries of each place, its ancestors and its
// natural key lookups.
func (s *PlaceStore) invalidate(places ...*models.Place) {
	invalidatePlaces(s.cache, places...)
}

func invalidatePlaces(c *cache.Cache, places ...*models.Place) {
	seen := make(map[uint]bool)
	var objs []cache.Object
	for _, p := range places {
		for _, id := range p.ScopeIDs() {
			if !seen[id] {
				seen[id] = true
				objs = append(objs, cache.Key(models.PlaceCacheKey(id)))
			}
		}
		c.InvalidateArgs(fnPlaceByKey, p.Key)
		c.InvalidateArgs(fnPlaceByID, p.ID)
	}
	c.InvalidateObject(objs...)
}

// invalidatePerson drops the person and their email lookup.
func invalidatePerson(c *cache.Cache, p *models.Person) {
	c.InvalidateObject(p)
	if p.Email != "" {
		c.InvalidateArgs(fnPeopleByEmail, strings.ToLower(p.Email))
	}
}

func (s *PlaceStore) index(ctx context.Context, places ...models.Place) {
	if s.indexer == nil || len(places) == 0 {
		return
	}
	if err := s.indexer.IndexPlaces(ctx, places...); err != nil {
		s.log.Warn("failed to index places", "count", len(places), "error", err)
	}
}
