package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type P3kType struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type P3kItem struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// P3kTypeItem defines, per box type, which items belong in the box and the
// minimum quantity (Standard) required for the box to count as conforming.
// A null Standard means the item is stocked but never flags a shortfall.
type P3kTypeItem struct {
	ID        int              `gorm:"primary_key" json:"id"`
	P3kTypeId int              `gorm:"index;not null" json:"p3k_type_id"`
	P3kItemId int              `gorm:"index;not null" json:"p3k_item_id"`
	Quantity  decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Standard  *decimal.Decimal `gorm:"type:decimal(10,2)" json:"standard"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	P3kItem *P3kItem `gorm:"foreignKey:P3kItemId" json:"p3k_item,omitempty"`
}

// P3k is a first-aid box.
type P3k struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Code         string          `gorm:"uniqueIndex;size:50;not null" json:"code"`
	P3kTypeId    int             `gorm:"index;not null" json:"p3k_type_id"`
	RoomId       *int            `gorm:"index" json:"room_id"`
	Status       AssetStatus     `gorm:"size:20;not null;default:safe" json:"status"`
	LocationData json.RawMessage `gorm:"type:json" json:"location_data"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	P3kType *P3kType `gorm:"foreignKey:P3kTypeId" json:"p3k_type,omitempty"`
	Room    *Room    `gorm:"foreignKey:RoomId" json:"room,omitempty"`
}

// P3kInventory is the live per-box count of one item, upserted on every
// inspection submission.
type P3kInventory struct {
	ID         int             `gorm:"primary_key" json:"id"`
	P3kId      int             `gorm:"uniqueIndex:idx_p3k_item;not null" json:"p3k_id"`
	P3kItemId  int             `gorm:"uniqueIndex:idx_p3k_item;not null" json:"p3k_item_id"`
	CurrentQty decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"current_qty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetP3kItemStandards returns item_id -> minimum quantity for a box type.
// Items without a defined standard are omitted.
func GetP3kItemStandards(tx *gorm.DB, p3kTypeId int) (map[int]decimal.Decimal, error) {
	var rows []P3kTypeItem
	if err := tx.Where("p3k_type_id = ?", p3kTypeId).Find(&rows).Error; err != nil {
		return nil, err
	}
	standards := make(map[int]decimal.Decimal, len(rows))
	for _, row := range rows {
		if row.Standard != nil {
			standards[row.P3kItemId] = *row.Standard
		}
	}
	return standards, nil
}

// UpsertP3kInventory records the counted quantity for one item in one box.
func UpsertP3kInventory(tx *gorm.DB, p3kId int, p3kItemId int, currentQty decimal.Decimal) error {
	inv := P3kInventory{
		P3kId:      p3kId,
		P3kItemId:  p3kItemId,
		CurrentQty: currentQty,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "p3k_id"}, {Name: "p3k_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_qty", "updated_at"}),
	}).Create(&inv).Error
}
