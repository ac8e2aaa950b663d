package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/utils"
	"gorm.io/gorm"
)

// Schedule is a recurring inspection policy. NextRunDate only ever advances
// forward (by the task factory) except through an explicit administrator
// edit, which also forces an immediate re-run.
type Schedule struct {
	ID             int           `gorm:"primary_key" json:"id"`
	AssetType      AssetType     `gorm:"index;size:20;not null" json:"asset_type"`
	Scope          ScheduleScope `gorm:"size:20;not null;default:global" json:"scope"`
	MonthsInterval int           `gorm:"not null;default:1" json:"months_interval"`
	WeekRank       *int          `json:"week_rank"`
	AssignType     AssignType    `gorm:"size:10;not null;default:k3" json:"assign_type"`
	NextRunDate    time.Time     `gorm:"type:date;index;not null" json:"next_run_date"`
	LastRunAt      *time.Time    `json:"last_run_at"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	Buildings []Building `gorm:"many2many:schedule_buildings" json:"buildings,omitempty"`
}

func (s *Schedule) BuildingIds() []int {
	ids := make([]int, 0, len(s.Buildings))
	for _, b := range s.Buildings {
		ids = append(ids, b.ID)
	}
	return ids
}

type NewSchedule struct {
	AssetType      string `json:"asset_type" binding:"required" validate:"required"`
	Scope          string `json:"scope" binding:"required,oneof=global building" validate:"required,oneof=global building"`
	MonthsInterval int    `json:"months_interval" binding:"required,min=1" validate:"required,min=1"`
	WeekRank       *int   `json:"week_rank" binding:"omitempty,min=1,max=4" validate:"omitempty,min=1,max=4"`
	AssignType     string `json:"assign_type" binding:"required,oneof=pic k3" validate:"required,oneof=pic k3"`
	StartDate      string `json:"start_date" binding:"required" validate:"required,datetime=2006-01-02"`
	BuildingIds    []int  `json:"building_ids"`
}

// validate enforces creation-time rules so the task factory never sees a
// schedule it cannot process: unknown asset tags and empty building sets on
// building scope are rejected here, not at generation time.
func (input *NewSchedule) validate(ctx context.Context, id int, loc *time.Location) (time.Time, error) {
	if id > 0 {
		if err := utils.ValidateResourceId[Schedule](ctx, id); err != nil {
			return time.Time{}, err
		}
	}
	if err := utils.ValidateStruct(input); err != nil {
		return time.Time{}, err
	}

	if !AssetType(input.AssetType).Valid() {
		return time.Time{}, fmt.Errorf("%w: unknown asset type %q (known: %v)",
			utils.ErrorValidation, input.AssetType, KnownAssetTypes())
	}
	if _, err := ResolveAssetSource(AssetType(input.AssetType)); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", utils.ErrorValidation, err)
	}
	if !ScheduleScope(input.Scope).Valid() {
		return time.Time{}, fmt.Errorf("%w: invalid scope %q", utils.ErrorValidation, input.Scope)
	}
	if !AssignType(input.AssignType).Valid() {
		return time.Time{}, fmt.Errorf("%w: invalid assign type %q", utils.ErrorValidation, input.AssignType)
	}
	if input.MonthsInterval < 1 {
		return time.Time{}, fmt.Errorf("%w: months_interval must be >= 1", utils.ErrorValidation)
	}
	if input.WeekRank != nil && (*input.WeekRank < 1 || *input.WeekRank > 4) {
		return time.Time{}, fmt.Errorf("%w: week_rank must be between 1 and 4", utils.ErrorValidation)
	}

	if ScheduleScope(input.Scope) == ScheduleScopeBuilding {
		ids := utils.UniqueSlice(input.BuildingIds)
		if len(ids) == 0 {
			return time.Time{}, fmt.Errorf("%w: scope=building requires at least one building", utils.ErrorValidation)
		}
		count, err := utils.ResourceCountWhere[Building](ctx, "id IN ?", ids)
		if err != nil {
			return time.Time{}, err
		}
		if count != int64(len(ids)) {
			return time.Time{}, fmt.Errorf("%w: one or more buildings not found", utils.ErrorValidation)
		}
	}

	startDate, err := utils.ParseDateString(input.StartDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", utils.ErrorValidation)
	}
	return startDate, nil
}

func CreateSchedule(ctx context.Context, input *NewSchedule, loc *time.Location) (*Schedule, error) {
	startDate, err := input.validate(ctx, 0, loc)
	if err != nil {
		return nil, err
	}

	schedule := Schedule{
		AssetType:      AssetType(input.AssetType),
		Scope:          ScheduleScope(input.Scope),
		MonthsInterval: input.MonthsInterval,
		WeekRank:       input.WeekRank,
		AssignType:     AssignType(input.AssignType),
		NextRunDate:    startDate,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&schedule).Error; err != nil {
			return err
		}
		return replaceScheduleBuildings(tx, &schedule, input.BuildingIds)
	})
	if err != nil {
		return nil, err
	}
	return GetSchedule(ctx, schedule.ID)
}

func UpdateSchedule(ctx context.Context, id int, input *NewSchedule, loc *time.Location) (*Schedule, error) {
	startDate, err := input.validate(ctx, id, loc)
	if err != nil {
		return nil, err
	}

	schedule, err := utils.FetchModel[Schedule](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&schedule).Updates(map[string]interface{}{
			"AssetType":      input.AssetType,
			"Scope":          input.Scope,
			"MonthsInterval": input.MonthsInterval,
			"WeekRank":       input.WeekRank,
			"AssignType":     input.AssignType,
			// Manual edit is the one allowed regression of next_run_date.
			"NextRunDate": startDate,
		}).Error
		if err != nil {
			return err
		}
		return replaceScheduleBuildings(tx, schedule, input.BuildingIds)
	})
	if err != nil {
		return nil, err
	}
	return GetSchedule(ctx, id)
}

func replaceScheduleBuildings(tx *gorm.DB, schedule *Schedule, buildingIds []int) error {
	if ScheduleScope(schedule.Scope) != ScheduleScopeBuilding {
		return tx.Model(schedule).Association("Buildings").Clear()
	}
	ids := utils.UniqueSlice(buildingIds)
	buildings := make([]Building, 0, len(ids))
	for _, bid := range ids {
		buildings = append(buildings, Building{ID: bid})
	}
	return tx.Model(schedule).Association("Buildings").Replace(buildings)
}

// DeleteSchedule stops all future generation for the policy. Existing
// inspections keep their schedule_id reference for audit.
func DeleteSchedule(ctx context.Context, id int) (*Schedule, error) {
	result, err := utils.FetchModel[Schedule](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&result).Association("Buildings").Clear(); err != nil {
			return err
		}
		return tx.Delete(&result).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetSchedule(ctx context.Context, id int) (*Schedule, error) {
	db := config.GetDB()
	var result Schedule
	err := db.WithContext(ctx).Preload("Buildings").Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func GetSchedules(ctx context.Context) ([]*Schedule, error) {
	db := config.GetDB()
	var results []*Schedule
	err := db.WithContext(ctx).Preload("Buildings").Order("id").Find(&results).Error
	return results, err
}

// DueScheduleIds lists schedules whose next_run_date is at or before today.
// Only ids are returned; the factory re-reads each row under a lock inside
// its own transaction.
func DueScheduleIds(tx *gorm.DB, today time.Time) ([]int, error) {
	var ids []int
	err := tx.Model(&Schedule{}).
		Where("next_run_date <= ?", today).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}
