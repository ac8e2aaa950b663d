package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/utils"
)

// Room carries the assignment target for pic schedules (PicUserId) and the
// building-scope link (Floor -> Building).
type Room struct {
	ID        int       `gorm:"primary_key" json:"id"`
	FloorId   int       `gorm:"index;not null" json:"floor_id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Code      string    `gorm:"index;size:50" json:"code"`
	PicUserId *int      `gorm:"index" json:"pic_user_id"`
	Color     string    `gorm:"size:20" json:"color"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Floor *Floor `gorm:"foreignKey:FloorId" json:"floor,omitempty"`
}

type NewRoom struct {
	FloorId   int    `json:"floor_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code"`
	PicUserId *int   `json:"pic_user_id"`
	Color     string `json:"color"`
}

func (input *NewRoom) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Room](ctx, id); err != nil {
			return err
		}
	}
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("room name is required")
	}
	if err := utils.ValidateResourceId[Floor](ctx, input.FloorId); err != nil {
		return errors.New("floor not found")
	}
	if input.PicUserId != nil {
		if err := utils.ValidateResourceId[User](ctx, *input.PicUserId); err != nil {
			return errors.New("pic user not found")
		}
	}
	return nil
}

func CreateRoom(ctx context.Context, input *NewRoom) (*Room, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	room := Room{
		FloorId:   input.FloorId,
		Name:      input.Name,
		Code:      input.Code,
		PicUserId: input.PicUserId,
		Color:     input.Color,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func UpdateRoom(ctx context.Context, id int, input *NewRoom) (*Room, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	room, err := utils.FetchModel[Room](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&room).Updates(map[string]interface{}{
		"FloorId":   input.FloorId,
		"Name":      input.Name,
		"Code":      input.Code,
		"PicUserId": input.PicUserId,
		"Color":     input.Color,
	}).Error
	if err != nil {
		return nil, err
	}
	return room, nil
}

func GetRoom(ctx context.Context, id int) (*Room, error) {
	return utils.FetchModel[Room](ctx, id)
}

func GetRooms(ctx context.Context, floorId *int) ([]*Room, error) {
	db := config.GetDB()
	var results []*Room
	dbCtx := db.WithContext(ctx)
	if floorId != nil {
		dbCtx = dbCtx.Where("floor_id = ?", *floorId)
	}
	err := dbCtx.Order("floor_id, name").Find(&results).Error
	return results, err
}
