package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Inspection is one concrete task instance generated from a Schedule (or
// created manually, in which case ScheduleId is null).
//
// State machine: pending -> overdue (sweeper), pending|overdue -> completed
// (condition resolver). Completed is terminal: neither the sweeper nor the
// factory may ever touch a completed row.
//
// De-duplication invariant: at most one row exists per (schedule_id,
// assetable_type, assetable_id, calendar month/year of schedule_date).
type Inspection struct {
	ID            int              `gorm:"primary_key" json:"id"`
	ScheduleId    *int             `gorm:"index" json:"schedule_id"`
	AssetableType AssetType        `gorm:"index:idx_assetable;size:20;not null" json:"assetable_type"`
	AssetableId   int              `gorm:"index:idx_assetable;not null" json:"assetable_id"`
	Status        InspectionStatus `gorm:"index;size:20;not null;default:pending" json:"status"`
	ScheduleDate  time.Time        `gorm:"type:date;not null" json:"schedule_date"`
	DueDate       time.Time        `gorm:"type:date;index;not null" json:"due_date"`
	UserId        *int             `gorm:"index" json:"user_id"`
	ReportData    json.RawMessage  `gorm:"type:json" json:"report_data"`
	CompletedAt   *time.Time       `json:"completed_at"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Schedule *Schedule `gorm:"foreignKey:ScheduleId" json:"schedule,omitempty"`
	User     *User     `gorm:"foreignKey:UserId" json:"user,omitempty"`
}

// InspectionExistsForPeriod checks the de-duplication invariant for one
// schedule+asset in the month/year of the given schedule date.
func InspectionExistsForPeriod(tx *gorm.DB, scheduleId int, assetType AssetType, assetId int, scheduleDate time.Time) (bool, error) {
	var count int64
	err := tx.Model(&Inspection{}).
		Where("schedule_id = ? AND assetable_type = ? AND assetable_id = ?", scheduleId, assetType, assetId).
		Where("MONTH(schedule_date) = ? AND YEAR(schedule_date) = ?", int(scheduleDate.Month()), scheduleDate.Year()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkOverdueInspections bulk-transitions pending rows past their due date.
// Idempotent: rows already overdue or completed are never matched.
func MarkOverdueInspections(tx *gorm.DB, today time.Time) (int64, error) {
	result := tx.Model(&Inspection{}).
		Where("status = ? AND due_date < ?", InspectionStatusPending, today).
		Update("status", InspectionStatusOverdue)
	return result.RowsAffected, result.Error
}

func GetInspection(ctx context.Context, id int) (*Inspection, error) {
	db := config.GetDB()
	var result Inspection
	err := db.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// GetOpenPoolInspections lists unassigned, unfinished tasks any safety-team
// member may claim.
func GetOpenPoolInspections(ctx context.Context) ([]*Inspection, error) {
	db := config.GetDB()
	var results []*Inspection
	err := db.WithContext(ctx).
		Where("user_id IS NULL AND status IN ?", []InspectionStatus{InspectionStatusPending, InspectionStatusOverdue}).
		Order("due_date, id").
		Find(&results).Error
	return results, err
}

// ClaimInspection assigns an open-pool task to the calling user. Only
// safety-team members may claim; the row is locked so two claimers cannot
// both win.
func ClaimInspection(ctx context.Context, id int) (*Inspection, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: user identity required to claim", utils.ErrorValidation)
	}
	isMember, err := IsSafetyTeamMember(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: only safety-team members may claim pool tasks", utils.ErrorValidation)
	}

	db := config.GetDB()
	var inspection Inspection
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&inspection).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if inspection.Status == InspectionStatusCompleted {
			return fmt.Errorf("%w: inspection %d is already completed", utils.ErrorConflict, id)
		}
		if inspection.UserId != nil {
			return fmt.Errorf("%w: inspection %d is already assigned", utils.ErrorConflict, id)
		}
		return tx.Model(&inspection).Update("user_id", userId).Error
	})
	if err != nil {
		return nil, err
	}
	return &inspection, nil
}

// GetUserInspections lists a user's unfinished tasks.
func GetUserInspections(ctx context.Context, userId int) ([]*Inspection, error) {
	db := config.GetDB()
	var results []*Inspection
	err := db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userId, []InspectionStatus{InspectionStatusPending, InspectionStatusOverdue}).
		Order("due_date, id").
		Find(&results).Error
	return results, err
}
