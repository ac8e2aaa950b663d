package workflow

import (
	"errors"
	"fmt"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/models"
	"github.com/sigapk3/safety_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScheduleRunResult summarizes one schedule's generation pass.
type ScheduleRunResult struct {
	ScheduleId int `json:"schedule_id"`
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
}

// GenerateForSchedule runs the task factory for one schedule: enumerate the
// schedule's assets, create one pending inspection per asset for the computed
// window, then advance next_run_date. Everything happens in a single
// transaction so a failure leaves both the inspections and the schedule
// untouched.
//
// The schedule row is locked FOR UPDATE and its due date re-checked inside the
// transaction, so concurrent runs (two app instances, or a manual trigger
// racing the cron) serialize and the loser exits without generating. The
// per-period existence check makes the whole pass idempotent on top of that.
func GenerateForSchedule(db *gorm.DB, logger *logrus.Logger, clock config.Clock, scheduleId int) (*ScheduleRunResult, error) {
	result := &ScheduleRunResult{ScheduleId: scheduleId}
	today := clock.Today()

	err := db.Transaction(func(tx *gorm.DB) error {
		var schedule models.Schedule
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Buildings").
			Where("id = ?", scheduleId).
			First(&schedule).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		// Another worker may have advanced the schedule between the due scan
		// and this lock.
		if schedule.NextRunDate.After(today) {
			return nil
		}

		source, err := models.ResolveAssetSource(schedule.AssetType)
		if err != nil {
			return err
		}

		scope := models.ScopeFilter{}
		if schedule.Scope == models.ScheduleScopeBuilding {
			scope.BuildingIds = schedule.BuildingIds()
			if len(scope.BuildingIds) == 0 {
				// Creation-time validation forbids this; a hand-edited row
				// must not silently degrade to a global sweep.
				return fmt.Errorf("%w: building-scoped schedule %d has no buildings", utils.ErrorConfiguration, schedule.ID)
			}
		}

		assets, err := source.List(tx, scope)
		if err != nil {
			return err
		}

		window := CalculateRecurrence(schedule.NextRunDate, schedule.MonthsInterval, schedule.WeekRank)

		for _, asset := range assets {
			exists, err := models.InspectionExistsForPeriod(tx, schedule.ID, schedule.AssetType, asset.Id, window.StartDate)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped++
				continue
			}

			room, err := source.RoomOf(tx, asset.Id)
			if err != nil {
				return err
			}

			inspection := models.Inspection{
				ScheduleId:    &schedule.ID,
				AssetableType: schedule.AssetType,
				AssetableId:   asset.Id,
				Status:        models.InspectionStatusPending,
				ScheduleDate:  window.StartDate,
				DueDate:       window.DueDate,
				UserId:        ResolveAssignee(logger, &schedule, room),
			}
			if err := tx.Create(&inspection).Error; err != nil {
				return err
			}
			result.Created++
		}

		now := clock.Now()
		return tx.Model(&schedule).Updates(map[string]interface{}{
			"NextRunDate": window.NextRunDate,
			"LastRunAt":   &now,
		}).Error
	})
	if err != nil {
		config.LogError(logger, "workflow", "GenerateForSchedule", "generate inspections", map[string]interface{}{
			"scheduleId": scheduleId,
		}, err)
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"scheduleId": scheduleId,
		"created":    result.Created,
		"skipped":    result.Skipped,
	}).Info("schedule generation finished")
	return result, nil
}
