package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type AparType struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Apar is a fire extinguisher. Status is derived by the condition resolver
// and is not authoritative history; report payloads are.
type Apar struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Code           string          `gorm:"uniqueIndex;size:50;not null" json:"code"`
	AparTypeId     int             `gorm:"index;not null" json:"apar_type_id"`
	RoomId         *int            `gorm:"index" json:"room_id"`
	Status         AssetStatus     `gorm:"size:20;not null;default:safe" json:"status"`
	Weight         decimal.Decimal `gorm:"type:decimal(10,2)" json:"weight"`
	LastRefilledAt *time.Time      `gorm:"type:date" json:"last_refilled_at"`
	ExpiredAt      *time.Time      `gorm:"type:date" json:"expired_at"`
	LocationData   json.RawMessage `gorm:"type:json" json:"location_data"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	AparType *AparType `gorm:"foreignKey:AparTypeId" json:"apar_type,omitempty"`
	Room     *Room     `gorm:"foreignKey:RoomId" json:"room,omitempty"`
}
