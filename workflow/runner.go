package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const schedulerLockKey = "safety:scheduler:run"

// RunSummary reports one full scheduler cycle.
type RunSummary struct {
	RunId     string              `json:"run_id"`
	Today     string              `json:"today"`
	Swept     int64               `json:"swept"`
	Schedules []ScheduleRunResult `json:"schedules"`
	Failed    []ScheduleFailure   `json:"failed,omitempty"`
}

// ScheduleFailure records a schedule whose generation pass errored. One bad
// schedule never blocks the rest of the cycle.
type ScheduleFailure struct {
	ScheduleId int    `json:"schedule_id"`
	Error      string `json:"error"`
}

// RunScheduler executes one scheduler cycle: sweep overdue inspections, then
// run the task factory for every due schedule. Each schedule runs in its own
// transaction so failures stay isolated.
//
// A Redis lock keeps concurrent cycles from doing redundant work, but it is
// best-effort only: when Redis is down or the lock is held, the cycle proceeds
// anyway and relies on the row locks and the per-period de-duplication check
// for correctness.
func RunScheduler(ctx context.Context, db *gorm.DB, logger *logrus.Logger, clock config.Clock) (*RunSummary, error) {
	summary := &RunSummary{
		RunId: uuid.New().String(),
		Today: clock.Today().Format("2006-01-02"),
	}
	runLogger := logger.WithFields(logrus.Fields{"runId": summary.RunId, "today": summary.Today})

	if lockClient := config.GetRedisLock(); lockClient != nil {
		lock, err := lockClient.Obtain(ctx, schedulerLockKey, 5*time.Minute, nil)
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				runLogger.Warn("scheduler lock held elsewhere; proceeding, dedup guards correctness")
			} else {
				runLogger.WithField("error", err.Error()).Warn("scheduler lock unavailable; proceeding without it")
			}
		} else {
			defer lock.Release(ctx)
		}
	}

	today := clock.Today()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		swept, err := SweepOverdue(tx, logger, today)
		if err != nil {
			return err
		}
		summary.Swept = swept
		return nil
	})
	if err != nil {
		return nil, err
	}

	scheduleIds, err := models.DueScheduleIds(db.WithContext(ctx), today)
	if err != nil {
		config.LogError(logger, "workflow", "RunScheduler", "list due schedules", nil, err)
		return nil, err
	}

	for _, scheduleId := range scheduleIds {
		result, err := GenerateForSchedule(db.WithContext(ctx), logger, clock, scheduleId)
		if err != nil {
			summary.Failed = append(summary.Failed, ScheduleFailure{ScheduleId: scheduleId, Error: err.Error()})
			continue
		}
		summary.Schedules = append(summary.Schedules, *result)
	}

	runLogger.WithFields(logrus.Fields{
		"swept":     summary.Swept,
		"schedules": len(summary.Schedules),
		"failed":    len(summary.Failed),
	}).Info("scheduler cycle finished")
	return summary, nil
}
