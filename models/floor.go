package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/utils"
)

type Floor struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BuildingId int       `gorm:"index;not null" json:"building_id"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	PicUserId  *int      `gorm:"index" json:"pic_user_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Building *Building `gorm:"foreignKey:BuildingId" json:"building,omitempty"`
}

type NewFloor struct {
	BuildingId int    `json:"building_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	PicUserId  *int   `json:"pic_user_id"`
}

func (input *NewFloor) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Floor](ctx, id); err != nil {
			return err
		}
	}
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("floor name is required")
	}
	if err := utils.ValidateResourceId[Building](ctx, input.BuildingId); err != nil {
		return errors.New("building not found")
	}
	if input.PicUserId != nil {
		if err := utils.ValidateResourceId[User](ctx, *input.PicUserId); err != nil {
			return errors.New("pic user not found")
		}
	}
	return nil
}

func CreateFloor(ctx context.Context, input *NewFloor) (*Floor, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	floor := Floor{
		BuildingId: input.BuildingId,
		Name:       input.Name,
		PicUserId:  input.PicUserId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&floor).Error; err != nil {
		return nil, err
	}
	return &floor, nil
}

func UpdateFloor(ctx context.Context, id int, input *NewFloor) (*Floor, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	floor, err := utils.FetchModel[Floor](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&floor).Updates(map[string]interface{}{
		"BuildingId": input.BuildingId,
		"Name":       input.Name,
		"PicUserId":  input.PicUserId,
	}).Error
	if err != nil {
		return nil, err
	}
	return floor, nil
}

func GetFloor(ctx context.Context, id int) (*Floor, error) {
	return utils.FetchModel[Floor](ctx, id)
}

func GetFloors(ctx context.Context, buildingId *int) ([]*Floor, error) {
	db := config.GetDB()
	var results []*Floor
	dbCtx := db.WithContext(ctx)
	if buildingId != nil {
		dbCtx = dbCtx.Where("building_id = ?", *buildingId)
	}
	err := dbCtx.Order("building_id, name").Find(&results).Error
	return results, err
}
