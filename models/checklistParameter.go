package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sigapk3/safety_backend/config"
	"gorm.io/gorm"
)

// ChecklistParameter is one per-asset-type question. StandardValue, when
// non-empty, is the conforming answer; answers are compared with exact
// case-insensitive trimmed equality. Number/date inputs are informational
// and never compared (quantities carry their own standards).
type ChecklistParameter struct {
	ID            int                `gorm:"primary_key" json:"id"`
	AssetType     AssetType          `gorm:"index;size:20;not null" json:"asset_type"`
	Label         string             `gorm:"size:255;not null" json:"label"`
	InputType     ChecklistInputType `gorm:"size:20;not null" json:"input_type"`
	Options       json.RawMessage    `gorm:"type:json" json:"options"`
	StandardValue *string            `gorm:"type:text" json:"standard_value"`
	OrderIndex    int                `gorm:"not null;default:0" json:"order_index"`
	IsActive      *bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func checklistCacheKey(assetType AssetType) string {
	return "ChecklistParameters:" + string(assetType)
}

// GetChecklistParameters serves the submission UI. Checklists change rarely,
// so reads go through a short Redis cache when one is connected; the seeder
// invalidates on write.
func GetChecklistParameters(ctx context.Context, assetType AssetType) ([]*ChecklistParameter, error) {
	var cached []*ChecklistParameter
	if found, err := config.GetRedisObject(checklistCacheKey(assetType), &cached); err == nil && found {
		return cached, nil
	}

	db := config.GetDB()
	results, err := listChecklistParameters(db.WithContext(ctx), assetType)
	if err != nil {
		return nil, err
	}
	_ = config.SetRedisObject(checklistCacheKey(assetType), results, time.Hour)
	return results, nil
}

// ComparableChecklistParameters returns the active parameters whose answers
// participate in condition resolution.
func ComparableChecklistParameters(tx *gorm.DB, assetType AssetType) ([]*ChecklistParameter, error) {
	params, err := listChecklistParameters(tx, assetType)
	if err != nil {
		return nil, err
	}
	comparable := make([]*ChecklistParameter, 0, len(params))
	for _, p := range params {
		if p.InputType.Comparable() {
			comparable = append(comparable, p)
		}
	}
	return comparable, nil
}

func listChecklistParameters(tx *gorm.DB, assetType AssetType) ([]*ChecklistParameter, error) {
	var results []*ChecklistParameter
	err := tx.
		Where("asset_type = ? AND is_active = ?", assetType, true).
		Order("order_index, id").
		Find(&results).Error
	return results, err
}
