package workflow

import (
	"io"
	"testing"

	"github.com/sigapk3/safety_backend/models"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestResolveAssignee(t *testing.T) {
	logger := quietLogger()
	picUser := 42

	k3Schedule := &models.Schedule{ID: 1, AssignType: models.AssignTypeK3}
	picSchedule := &models.Schedule{ID: 2, AssignType: models.AssignTypePic}
	roomWithPic := &models.Room{ID: 7, PicUserId: &picUser}
	roomWithoutPic := &models.Room{ID: 8}

	if got := ResolveAssignee(logger, k3Schedule, roomWithPic); got != nil {
		t.Fatalf("k3 schedule must pool even when the room has a PIC, got %v", *got)
	}
	if got := ResolveAssignee(logger, picSchedule, roomWithPic); got == nil || *got != picUser {
		t.Fatalf("pic schedule must assign the room PIC, got %v", got)
	}
	if got := ResolveAssignee(logger, picSchedule, roomWithoutPic); got != nil {
		t.Fatalf("room without a PIC must fall back to the pool, got %v", *got)
	}
	if got := ResolveAssignee(logger, picSchedule, nil); got != nil {
		t.Fatalf("asset without a room must fall back to the pool, got %v", *got)
	}
}
