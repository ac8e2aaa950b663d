package models

import (
	"fmt"

	"github.com/sigapk3/safety_backend/utils"
	"gorm.io/gorm"
)

// ScopeFilter narrows asset enumeration to a building set. Empty means no
// filtering (global scope). Schedule validation guarantees building-scoped
// schedules carry at least one id, so an empty filter never reaches the
// factory through a valid schedule.
type ScopeFilter struct {
	BuildingIds []int
}

// AssetRef is the slice of an asset row the scheduler needs: identity plus
// its room link for scope filtering and PIC lookup.
type AssetRef struct {
	Id     int
	RoomId *int
}

// AssetSource is one enumerable asset collection. The registry maps stored
// asset-type tags to sources at compile time; there is no dynamic type-name
// resolution anywhere.
type AssetSource interface {
	Type() AssetType
	List(tx *gorm.DB, scope ScopeFilter) ([]AssetRef, error)
	Find(tx *gorm.DB, id int) (*AssetRef, error)
	RoomOf(tx *gorm.DB, id int) (*Room, error)
	SetStatus(tx *gorm.DB, id int, status AssetStatus) error
}

// tableAssetSource serves any asset table with the common
// (id, room_id, status) shape.
type tableAssetSource struct {
	assetType AssetType
	table     string
}

func (s tableAssetSource) Type() AssetType {
	return s.assetType
}

func (s tableAssetSource) List(tx *gorm.DB, scope ScopeFilter) ([]AssetRef, error) {
	var refs []AssetRef
	dbCtx := tx.Table(s.table + " AS a").Select("a.id, a.room_id")
	if len(scope.BuildingIds) > 0 {
		dbCtx = dbCtx.
			Joins("JOIN rooms r ON r.id = a.room_id").
			Joins("JOIN floors f ON f.id = r.floor_id").
			Where("f.building_id IN ?", scope.BuildingIds)
	}
	err := dbCtx.Order("a.id").Scan(&refs).Error
	return refs, err
}

func (s tableAssetSource) Find(tx *gorm.DB, id int) (*AssetRef, error) {
	var refs []AssetRef
	err := tx.Table(s.table).Select("id, room_id").Where("id = ?", id).Limit(1).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return &refs[0], nil
}

func (s tableAssetSource) RoomOf(tx *gorm.DB, id int) (*Room, error) {
	ref, err := s.Find(tx, id)
	if err != nil {
		return nil, err
	}
	if ref.RoomId == nil {
		return nil, nil
	}
	var room Room
	if err := tx.Where("id = ?", *ref.RoomId).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (s tableAssetSource) SetStatus(tx *gorm.DB, id int, status AssetStatus) error {
	return tx.Table(s.table).Where("id = ?", id).Update("status", string(status)).Error
}

var assetRegistry = map[AssetType]AssetSource{
	AssetTypeApar:    tableAssetSource{assetType: AssetTypeApar, table: "apars"},
	AssetTypeHydrant: tableAssetSource{assetType: AssetTypeHydrant, table: "hydrants"},
	AssetTypeP3k:     tableAssetSource{assetType: AssetTypeP3k, table: "p3ks"},
}

// ResolveAssetSource maps a stored asset-type tag to its source. Unknown tags
// are a configuration error: creation-time validation rejects them, so a miss
// here means a legacy or hand-edited schedule row.
func ResolveAssetSource(assetType AssetType) (AssetSource, error) {
	source, ok := assetRegistry[assetType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown asset type %q", utils.ErrorConfiguration, assetType)
	}
	return source, nil
}

func KnownAssetTypes() []AssetType {
	types := make([]AssetType, 0, len(assetRegistry))
	for t := range assetRegistry {
		types = append(types, t)
	}
	return types
}
