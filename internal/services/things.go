package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/localnerve/voternet/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Thing types.
const (
	ThingSentMarker = "sent_marker"
	ThingPlaceInfo  = "place_info"
	ThingInvite     = "invite"
)

// Link is a titled URL shown on a place page.
type Link struct {
	Title string `json:"title" validate:"required,max=255"`
	URL   string `json:"url" validate:"required,url"`
}

// PlaceInfo is free form information kept for a place.
type PlaceInfo struct {
	Links      []Link   `json:"links" validate:"dive"`
	Localities []string `json:"localities"`
	Notes      string   `json:"notes" validate:"max=4000"`
}

// Invite is a person asked to register who is not a volunteer yet.
type Invite struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Batch   string `json:"batch"`
	PlaceID uint   `json:"place_id"`
}

// ThingStore keeps keyed JSON blobs.
type ThingStore struct {
	db    *gorm.DB
	clock clockwork.Clock
	loc   *time.Location
}

// NewThingStore creates a ThingStore. Per day markers roll over at midnight in loc.
func NewThingStore(db *gorm.DB, clock clockwork.Clock, loc *time.Location) *ThingStore {
	if loc == nil {
		loc = time.UTC
	}
	return &ThingStore{db: db, clock: clock, loc: loc}
}

func (s *ThingStore) read(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Session(&gorm.Session{Logger: s.db.Logger.LogMode(logger.Silent)})
}

// Get loads the thing stored under key.
func (s *ThingStore) Get(ctx context.Context, key string) (models.Thing, error) {
	var t models.Thing
	if err := s.read(ctx).Where(keyIs(key)).First(&t).Error; err != nil {
		return models.Thing{}, notFound(err, "thing "+key)
	}
	return t, nil
}

// Put creates or replaces the thing stored under key.
func (s *ThingStore) Put(ctx context.Context, key, typ string, placeID *uint, data any) (models.Thing, error) {
	js, err := models.NewJSON(data)
	if err != nil {
		return models.Thing{}, err
	}
	now := s.clock.Now().UTC()
	t := models.Thing{Key: key, Type: typ, PlaceID: placeID, Data: js, CreatedAt: now, UpdatedAt: now}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "place_id", "data", "updated_at"}),
	}).Create(&t).Error
	if err != nil {
		return models.Thing{}, fmt.Errorf("put %s: %w", key, err)
	}
	return t, nil
}

// Delete removes the thing stored under key.
func (s *ThingStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where(keyIs(key)).Delete(&models.Thing{}).Error
}

// ByType lists things of typ ordered by key.
func (s *ThingStore) ByType(ctx context.Context, typ string) ([]models.Thing, error) {
	var out []models.Thing
	err := s.read(ctx).Where("type = ?", typ).Order(byKey).Find(&out).Error
	return out, err
}

// SentOnceKey is the marker for a message that goes to recipient at most once.
func SentOnceKey(msgType, recipient string) string {
	return "sent/" + msgType + "/" + strings.ToLower(recipient)
}

// SentOncePerDayKey is the marker for a message that goes to recipient at most once a day.
func (s *ThingStore) SentOncePerDayKey(msgType, recipient string) string {
	return SentOnceKey(msgType, recipient) + "/" + s.clock.Now().In(s.loc).Format(models.DateLayout)
}

// Claim records marker and reports whether this call created it. A false result means
// the message was already sent, or is being sent by someone else.
func (s *ThingStore) Claim(ctx context.Context, marker string) (bool, error) {
	js, err := models.NewJSON(map[string]any{"at": s.clock.Now().UTC()})
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Thing{Key: marker, Type: ThingSentMarker, Data: js})
	if res.Error != nil {
		return false, fmt.Errorf("claim %s: %w", marker, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Release drops a claimed marker after a failed send so a later run retries it.
func (s *ThingStore) Release(ctx context.Context, marker string) error {
	return s.db.WithContext(ctx).Where(keyIs(marker)).Where("type = ?", ThingSentMarker).Delete(&models.Thing{}).Error
}

func placeInfoKey(place *models.Place) string {
	return "place-info/" + place.Key
}

// PlaceInfo returns the stored info of place, empty if none was saved.
func (s *ThingStore) PlaceInfo(ctx context.Context, place *models.Place) (PlaceInfo, error) {
	var info PlaceInfo
	t, err := s.Get(ctx, placeInfoKey(place))
	if err != nil {
		if isNotFound(err) {
			return info, nil
		}
		return info, err
	}
	return info, t.Data.Decode(&info)
}

// SetPlaceInfo validates and stores info for place.
func (s *ThingStore) SetPlaceInfo(ctx context.Context, place *models.Place, info PlaceInfo) error {
	for i := range info.Links {
		info.Links[i].Title = strings.TrimSpace(info.Links[i].Title)
		info.Links[i].URL = strings.TrimSpace(info.Links[i].URL)
	}
	if err := validate.Struct(&info); err != nil {
		return fromValidator(err)
	}
	id := place.ID
	_, err := s.Put(ctx, placeInfoKey(place), ThingPlaceInfo, &id, info)
	return err
}

// AddInvite stores an invite. Adding the same email or phone twice in a batch is a no-op.
func (s *ThingStore) AddInvite(ctx context.Context, inv Invite) (bool, error) {
	who := strings.ToLower(strings.TrimSpace(inv.Email))
	if who == "" {
		who = strings.TrimSpace(inv.Phone)
	}
	if who == "" {
		return false, NewValidationError("email", "an invite needs an email or a phone")
	}
	js, err := models.NewJSON(inv)
	if err != nil {
		return false, err
	}
	id := inv.PlaceID
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Thing{Key: "invite/" + inv.Batch + "/" + who, Type: ThingInvite, PlaceID: &id, Data: js})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Invites lists every stored invite.
func (s *ThingStore) Invites(ctx context.Context) ([]Invite, error) {
	things, err := s.ByType(ctx, ThingInvite)
	if err != nil {
		return nil, err
	}
	out := make([]Invite, 0, len(things))
	for _, t := range things {
		var inv Invite
		if err := t.Data.Decode(&inv); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.Key, err)
		}
		out = append(out, inv)
	}
	return out, nil
}
