package models

import (
	"encoding/json"
	"time"
)

type HydrantType struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Hydrant struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Code          string          `gorm:"uniqueIndex;size:50;not null" json:"code"`
	HydrantTypeId int             `gorm:"index;not null" json:"hydrant_type_id"`
	RoomId        *int            `gorm:"index" json:"room_id"`
	Status        AssetStatus     `gorm:"size:20;not null;default:safe" json:"status"`
	LocationData  json.RawMessage `gorm:"type:json" json:"location_data"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	HydrantType *HydrantType `gorm:"foreignKey:HydrantTypeId" json:"hydrant_type,omitempty"`
	Room        *Room        `gorm:"foreignKey:RoomId" json:"room,omitempty"`
}
