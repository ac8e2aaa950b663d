package workflow

import (
	"time"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SweepOverdue transitions pending inspections whose due date has passed into
// overdue. Runs inside the caller's transaction; one bulk UPDATE, idempotent.
func SweepOverdue(tx *gorm.DB, logger *logrus.Logger, today time.Time) (int64, error) {
	swept, err := models.MarkOverdueInspections(tx, today)
	if err != nil {
		config.LogError(logger, "workflow", "SweepOverdue", "mark overdue inspections", map[string]interface{}{
			"today": today.Format("2006-01-02"),
		}, err)
		return 0, err
	}
	if swept > 0 {
		logger.WithFields(logrus.Fields{
			"swept": swept,
			"today": today.Format("2006-01-02"),
		}).Info("inspections marked overdue")
	}
	return swept, nil
}
