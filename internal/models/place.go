package models

import (
	"fmt"
	"time"
)

// PlaceType is the level of a place in the administrative hierarchy.
type PlaceType string

const (
	PlaceTypeState  PlaceType = "STATE"
	PlaceTypeRegion PlaceType = "REGION"
	PlaceTypePC     PlaceType = "PC"
	PlaceTypeAC     PlaceType = "AC"
	PlaceTypeWard   PlaceType = "WARD"
	PlaceTypePX     PlaceType = "PX"
	PlaceTypePB     PlaceType = "PB"
)

// PlaceTypes lists every place type from the root of the tree to the leaves.
var PlaceTypes = []PlaceType{
	PlaceTypeState,
	PlaceTypeRegion,
	PlaceTypePC,
	PlaceTypeAC,
	PlaceTypeWard,
	PlaceTypePX,
	PlaceTypePB,
}

type placeTypeInfo struct {
	level  int
	column string // ancestor column on descendants, empty for leaves
	prefix string // code prefix for generated codes
	label  string
}

var placeTypeTable = map[PlaceType]placeTypeInfo{
	PlaceTypeState:  {0, "state_id", "", "State"},
	PlaceTypeRegion: {1, "region_id", "R", "Region"},
	PlaceTypePC:     {2, "pc_id", "PC", "Parliamentary Constituency"},
	PlaceTypeAC:     {3, "ac_id", "AC", "Assembly Constituency"},
	PlaceTypeWard:   {4, "ward_id", "W", "Ward"},
	PlaceTypePX:     {5, "px_id", "PX", "Polling Center"},
	PlaceTypePB:     {6, "", "PB", "Polling Booth"},
}

func init() {
	if len(placeTypeTable) != len(PlaceTypes) {
		panic("models: place type table is out of sync with PlaceTypes")
	}
	for i, t := range PlaceTypes {
		info, ok := placeTypeTable[t]
		if !ok || info.level != i {
			panic(fmt.Sprintf("models: place type %s has no entry at level %d", t, i))
		}
		if info.column == "" && i != len(PlaceTypes)-1 {
			panic(fmt.Sprintf("models: place type %s needs an ancestor column", t))
		}
	}
}

// ParsePlaceType validates a place type name.
func ParsePlaceType(s string) (PlaceType, error) {
	t := PlaceType(s)
	if _, ok := placeTypeTable[t]; !ok {
		return "", fmt.Errorf("unknown place type %q", s)
	}
	return t, nil
}

// Valid reports whether t is a known place type.
func (t PlaceType) Valid() bool {
	_, ok := placeTypeTable[t]
	return ok
}

// Level is the position of t in PlaceTypes.
func (t PlaceType) Level() int {
	return placeTypeTable[t].level
}

// Column returns the ancestor column that descendants use to reference a place of type t.
// Polling booths are leaves and have no column.
func (t PlaceType) Column() (string, bool) {
	info := placeTypeTable[t]
	return info.column, info.column != ""
}

// CodePrefix is the prefix used for sequentially generated codes.
func (t PlaceType) CodePrefix() string {
	return placeTypeTable[t].prefix
}

// Label is the human readable name of the type.
func (t PlaceType) Label() string {
	return placeTypeTable[t].label
}

// Next returns the type immediately below t.
func (t PlaceType) Next() (PlaceType, bool) {
	l := t.Level()
	if !t.Valid() || l+1 >= len(PlaceTypes) {
		return "", false
	}
	return PlaceTypes[l+1], true
}

// Above reports whether t sits strictly above other in the hierarchy.
func (t PlaceType) Above(other PlaceType) bool {
	return t.Valid() && other.Valid() && t.Level() < other.Level()
}

// Place is a node in the administrative tree.
//
// Each ancestor column holds the id of the ancestor of that type, or nil when the
// node has no ancestor at that depth.
type Place struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:255;not null" json:"key"`
	Type      PlaceType `gorm:"size:16;not null;index" json:"type"`
	Code      string    `gorm:"size:64;not null;index" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	StateID   *uint     `gorm:"column:state_id;index" json:"state_id,omitempty"`
	RegionID  *uint     `gorm:"column:region_id;index" json:"region_id,omitempty"`
	PCID      *uint     `gorm:"column:pc_id;index" json:"pc_id,omitempty"`
	ACID      *uint     `gorm:"column:ac_id;index" json:"ac_id,omitempty"`
	WardID    *uint     `gorm:"column:ward_id;index" json:"ward_id,omitempty"`
	PXID      *uint     `gorm:"column:px_id;index" json:"px_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Place
func (Place) TableName() string {
	return "places"
}

// CacheKey identifies the place in the object cache.
func (p Place) CacheKey() string {
	return PlaceCacheKey(p.ID)
}

// PlaceCacheKey is the object cache identity of the place with the given id.
func PlaceCacheKey(id uint) string {
	return fmt.Sprintf("place:%d", id)
}

func (p *Place) ancestorField(t PlaceType) **uint {
	switch t {
	case PlaceTypeState:
		return &p.StateID
	case PlaceTypeRegion:
		return &p.RegionID
	case PlaceTypePC:
		return &p.PCID
	case PlaceTypeAC:
		return &p.ACID
	case PlaceTypeWard:
		return &p.WardID
	case PlaceTypePX:
		return &p.PXID
	}
	return nil
}

// AncestorID returns the id stored in the ancestor column for type t.
func (p *Place) AncestorID(t PlaceType) *uint {
	f := p.ancestorField(t)
	if f == nil || *f == nil {
		return nil
	}
	id := **f
	return &id
}

// SetAncestorID stores id in the ancestor column for type t.
func (p *Place) SetAncestorID(t PlaceType, id *uint) {
	f := p.ancestorField(t)
	if f == nil {
		return
	}
	if id == nil {
		*f = nil
		return
	}
	v := *id
	*f = &v
}

// ParentID resolves the direct parent from the ancestor columns. The column of the
// type immediately above is used; when it is empty the next one up is tried, so a
// polling booth without a ward reports its assembly constituency.
func (p *Place) ParentID() (uint, bool) {
	for l := p.Type.Level() - 1; l >= 0; l-- {
		if id := p.AncestorID(PlaceTypes[l]); id != nil {
			return *id, true
		}
	}
	return 0, false
}

// AncestorIDs lists the non-empty ancestor columns from the root down.
func (p *Place) AncestorIDs() []uint {
	var ids []uint
	for l := 0; l < p.Type.Level(); l++ {
		if id := p.AncestorID(PlaceTypes[l]); id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}

// ScopeIDs is the place id followed by all of its ancestor ids.
func (p *Place) ScopeIDs() []uint {
	return append([]uint{p.ID}, p.AncestorIDs()...)
}

// InheritFrom copies the ancestor columns of parent and records parent itself.
func (p *Place) InheritFrom(parent *Place) {
	for _, t := range PlaceTypes {
		if t.Level() >= parent.Type.Level() {
			break
		}
		p.SetAncestorID(t, parent.AncestorID(t))
	}
	id := parent.ID
	p.SetAncestorID(parent.Type, &id)
}

// TypeLabel is the label of the place's type.
func (p *Place) TypeLabel() string {
	return p.Type.Label()
}
