package workflow

import (
	"github.com/sigapk3/safety_backend/models"
	"github.com/sirupsen/logrus"
)

// ResolveAssignee picks the user a generated inspection belongs to, or nil for
// the open safety-team pool.
//
// assign_type=k3 always pools: any safety-team member may claim the task.
// assign_type=pic assigns the asset's room PIC; an asset without a room, or a
// room without a PIC, falls back to the pool rather than failing generation.
func ResolveAssignee(logger *logrus.Logger, schedule *models.Schedule, room *models.Room) *int {
	if schedule.AssignType != models.AssignTypePic {
		return nil
	}
	if room == nil || room.PicUserId == nil {
		logger.WithFields(logrus.Fields{
			"scheduleId": schedule.ID,
			"assignType": schedule.AssignType,
			"hasRoom":    room != nil,
		}).Warn("pic schedule without a resolvable room PIC; task goes to the open pool")
		return nil
	}
	return room.PicUserId
}
