package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/utils"
)

type Building struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Code      string    `gorm:"index;size:50" json:"code"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBuilding struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code"`
}

func (input *NewBuilding) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Building](ctx, id); err != nil {
			return err
		}
	}
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("building name is required")
	}
	return nil
}

func CreateBuilding(ctx context.Context, input *NewBuilding) (*Building, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	building := Building{
		Name: input.Name,
		Code: input.Code,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&building).Error; err != nil {
		return nil, err
	}
	return &building, nil
}

func UpdateBuilding(ctx context.Context, id int, input *NewBuilding) (*Building, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	building, err := utils.FetchModel[Building](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&building).Updates(map[string]interface{}{
		"Name": input.Name,
		"Code": input.Code,
	}).Error
	if err != nil {
		return nil, err
	}
	return building, nil
}

func DeleteBuilding(ctx context.Context, id int) (*Building, error) {
	result, err := utils.FetchModel[Building](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Floor{}).
		Where("building_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("building has floors")
	}

	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetBuilding(ctx context.Context, id int) (*Building, error) {
	return utils.FetchModel[Building](ctx, id)
}

func GetBuildings(ctx context.Context) ([]*Building, error) {
	db := config.GetDB()
	var results []*Building
	err := db.WithContext(ctx).Order("name").Find(&results).Error
	return results, err
}
