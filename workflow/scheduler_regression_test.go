package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/models"
	"github.com/sigapk3/safety_backend/utils"
	"github.com/sigapk3/safety_backend/workflow"
)

// End-to-end scheduler cycle against a real MySQL: generation, assignment,
// de-duplication, next_run_date advance, overdue sweep and submission.
func TestSchedulerCycleRegression(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "safety_test")
	// No REDIS_ADDRESS: the run lock is best-effort and the cycle must work
	// without Redis.

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}
	logger := config.GetLogger()

	// Seed location tree + users.
	picUser := models.User{Name: "Pic Person", Username: "pic@local"}
	if err := db.Create(&picUser).Error; err != nil {
		t.Fatalf("seed pic user: %v", err)
	}
	building, err := models.CreateBuilding(ctx, &models.NewBuilding{Name: "Gedung A"})
	if err != nil {
		t.Fatalf("CreateBuilding: %v", err)
	}
	floor, err := models.CreateFloor(ctx, &models.NewFloor{BuildingId: building.ID, Name: "Lantai 1"})
	if err != nil {
		t.Fatalf("CreateFloor: %v", err)
	}
	room, err := models.CreateRoom(ctx, &models.NewRoom{FloorId: floor.ID, Name: "Ruang Server", PicUserId: &picUser.ID})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	aparType := models.AparType{Name: "Powder 3kg"}
	if err := db.Create(&aparType).Error; err != nil {
		t.Fatalf("seed apar type: %v", err)
	}
	aparInRoom := models.Apar{Code: "APAR-001", AparTypeId: aparType.ID, RoomId: &room.ID}
	aparNoRoom := models.Apar{Code: "APAR-002", AparTypeId: aparType.ID}
	if err := db.Create(&aparInRoom).Error; err != nil {
		t.Fatalf("seed apar: %v", err)
	}
	if err := db.Create(&aparNoRoom).Error; err != nil {
		t.Fatalf("seed apar: %v", err)
	}

	standard := "Baik"
	checklistParam := models.ChecklistParameter{
		AssetType:     models.AssetTypeApar,
		Label:         "Kondisi tabung",
		InputType:     models.InputTypeRadio,
		StandardValue: &standard,
	}
	if err := db.Create(&checklistParam).Error; err != nil {
		t.Fatalf("seed checklist parameter: %v", err)
	}

	clock := config.FixedClock{Instant: time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)}

	schedule, err := models.CreateSchedule(ctx, &models.NewSchedule{
		AssetType:      "apar",
		Scope:          "global",
		MonthsInterval: 1,
		AssignType:     "pic",
		StartDate:      "2026-02-10",
	}, clock.Location())
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	// First cycle generates one inspection per apar.
	summary, err := workflow.RunScheduler(ctx, db, logger, clock)
	if err != nil {
		t.Fatalf("RunScheduler: %v", err)
	}
	if len(summary.Failed) != 0 {
		t.Fatalf("unexpected failures: %+v", summary.Failed)
	}
	if len(summary.Schedules) != 1 || summary.Schedules[0].Created != 2 {
		t.Fatalf("expected 2 created inspections, got %+v", summary.Schedules)
	}

	var inspections []models.Inspection
	if err := db.Where("schedule_id = ?", schedule.ID).Order("assetable_id").Find(&inspections).Error; err != nil {
		t.Fatalf("list inspections: %v", err)
	}
	if len(inspections) != 2 {
		t.Fatalf("expected 2 inspections, got %d", len(inspections))
	}
	if got := inspections[0].ScheduleDate.Format("2006-01-02"); got != "2026-02-01" {
		t.Fatalf("schedule_date = %s, want 2026-02-01", got)
	}
	if got := inspections[0].DueDate.Format("2006-01-02"); got != "2026-02-28" {
		t.Fatalf("due_date = %s, want 2026-02-28", got)
	}
	if inspections[0].UserId == nil || *inspections[0].UserId != picUser.ID {
		t.Fatalf("apar with room must be assigned to the room PIC, got %v", inspections[0].UserId)
	}
	if inspections[1].UserId != nil {
		t.Fatalf("apar without a room must go to the open pool, got %v", *inspections[1].UserId)
	}

	// The schedule advanced one month, preserving day-of-month.
	refreshed, err := models.GetSchedule(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if got := refreshed.NextRunDate.Format("2006-01-02"); got != "2026-03-10" {
		t.Fatalf("next_run_date = %s, want 2026-03-10", got)
	}
	if refreshed.LastRunAt == nil {
		t.Fatalf("last_run_at not stamped")
	}

	// Same-day rerun: no longer due, nothing generated.
	summary, err = workflow.RunScheduler(ctx, db, logger, clock)
	if err != nil {
		t.Fatalf("RunScheduler rerun: %v", err)
	}
	if len(summary.Schedules) != 0 {
		t.Fatalf("rerun must not pick up the advanced schedule, got %+v", summary.Schedules)
	}

	// Forced re-fire in the same period: de-duplication skips every asset.
	if err := db.Model(&models.Schedule{}).Where("id = ?", schedule.ID).
		Update("next_run_date", "2026-02-10").Error; err != nil {
		t.Fatalf("rewind next_run_date: %v", err)
	}
	summary, err = workflow.RunScheduler(ctx, db, logger, clock)
	if err != nil {
		t.Fatalf("RunScheduler re-fire: %v", err)
	}
	if len(summary.Schedules) != 1 || summary.Schedules[0].Created != 0 || summary.Schedules[0].Skipped != 2 {
		t.Fatalf("expected 0 created / 2 skipped on re-fire, got %+v", summary.Schedules)
	}

	// Complete the pooled inspection with a deviating answer: asset flips to
	// critical, report payload is stored, resubmission conflicts.
	submitCtx := utils.SetUserIdInContext(ctx, picUser.ID)
	completed, err := workflow.SubmitInspection(submitCtx, db, logger, clock, inspections[1].ID, &workflow.SubmitInspectionInput{
		Answers: []models.ReportAnswer{{ParameterId: checklistParam.ID, Response: "Rusak"}},
		Notes:   "tabung penyok",
	})
	if err != nil {
		t.Fatalf("SubmitInspection: %v", err)
	}
	var completedRow models.Inspection
	if err := db.Where("id = ?", completed.ID).First(&completedRow).Error; err != nil {
		t.Fatalf("reload inspection: %v", err)
	}
	if completedRow.Status != models.InspectionStatusCompleted {
		t.Fatalf("status = %s, want completed", completedRow.Status)
	}
	report, err := models.NormalizeReportData(completedRow.ReportData)
	if err != nil {
		t.Fatalf("NormalizeReportData: %v", err)
	}
	if report.ConditionResult != models.AssetStatusCritical {
		t.Fatalf("condition result = %s, want critical", report.ConditionResult)
	}
	var flaggedApar models.Apar
	if err := db.Where("id = ?", aparNoRoom.ID).First(&flaggedApar).Error; err != nil {
		t.Fatalf("reload apar: %v", err)
	}
	if flaggedApar.Status != models.AssetStatusCritical {
		t.Fatalf("apar status = %s, want critical", flaggedApar.Status)
	}
	_, err = workflow.SubmitInspection(submitCtx, db, logger, clock, inspections[1].ID, &workflow.SubmitInspectionInput{
		Answers: []models.ReportAnswer{{ParameterId: checklistParam.ID, Response: "Baik"}},
	})
	if err == nil {
		t.Fatalf("resubmitting a completed inspection must conflict")
	}

	// Sweep after the due date: the remaining pending row flips to overdue,
	// the completed row is untouched.
	lateClock := config.FixedClock{Instant: time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)}
	summary, err = workflow.RunScheduler(ctx, db, logger, lateClock)
	if err != nil {
		t.Fatalf("RunScheduler sweep: %v", err)
	}
	if summary.Swept != 1 {
		t.Fatalf("swept = %d, want 1", summary.Swept)
	}
	var afterSweep []models.Inspection
	if err := db.Where("schedule_id = ?", schedule.ID).Order("assetable_id").Find(&afterSweep).Error; err != nil {
		t.Fatalf("list inspections after sweep: %v", err)
	}
	if afterSweep[0].Status != models.InspectionStatusOverdue {
		t.Fatalf("pending inspection must become overdue, got %s", afterSweep[0].Status)
	}
	if afterSweep[1].Status != models.InspectionStatusCompleted {
		t.Fatalf("completed inspection must stay completed, got %s", afterSweep[1].Status)
	}
}

// Building-scoped schedules must only generate for assets whose room chain
// resolves into one of the schedule's buildings; assets in other buildings
// and assets without a room stay untouched.
func TestBuildingScopedScheduleFiltersAssets(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "safety_test")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}
	logger := config.GetLogger()

	seedRoom := func(buildingName string) *models.Room {
		building, err := models.CreateBuilding(ctx, &models.NewBuilding{Name: buildingName})
		if err != nil {
			t.Fatalf("CreateBuilding %s: %v", buildingName, err)
		}
		floor, err := models.CreateFloor(ctx, &models.NewFloor{BuildingId: building.ID, Name: "Lantai 1"})
		if err != nil {
			t.Fatalf("CreateFloor: %v", err)
		}
		room, err := models.CreateRoom(ctx, &models.NewRoom{FloorId: floor.ID, Name: buildingName + " Ruang"})
		if err != nil {
			t.Fatalf("CreateRoom: %v", err)
		}
		return room
	}
	roomA := seedRoom("Gedung A")
	roomB := seedRoom("Gedung B")

	hydrantType := models.HydrantType{Name: "Indoor"}
	if err := db.Create(&hydrantType).Error; err != nil {
		t.Fatalf("seed hydrant type: %v", err)
	}
	inScope := models.Hydrant{Code: "HYD-A", HydrantTypeId: hydrantType.ID, RoomId: &roomA.ID}
	outOfScope := models.Hydrant{Code: "HYD-B", HydrantTypeId: hydrantType.ID, RoomId: &roomB.ID}
	noRoom := models.Hydrant{Code: "HYD-N", HydrantTypeId: hydrantType.ID}
	for _, h := range []*models.Hydrant{&inScope, &outOfScope, &noRoom} {
		if err := db.Create(h).Error; err != nil {
			t.Fatalf("seed hydrant %s: %v", h.Code, err)
		}
	}

	clock := config.FixedClock{Instant: time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)}

	// Scoped to building A only. The building id comes off roomA's floor.
	var floorA models.Floor
	if err := db.Where("id = ?", roomA.FloorId).First(&floorA).Error; err != nil {
		t.Fatalf("fetch floor: %v", err)
	}
	schedule, err := models.CreateSchedule(ctx, &models.NewSchedule{
		AssetType:      "hydrant",
		Scope:          "building",
		MonthsInterval: 1,
		AssignType:     "k3",
		StartDate:      "2026-02-10",
		BuildingIds:    []int{floorA.BuildingId},
	}, clock.Location())
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	summary, err := workflow.RunScheduler(ctx, db, logger, clock)
	if err != nil {
		t.Fatalf("RunScheduler: %v", err)
	}
	if len(summary.Failed) != 0 {
		t.Fatalf("unexpected failures: %+v", summary.Failed)
	}
	if len(summary.Schedules) != 1 || summary.Schedules[0].Created != 1 {
		t.Fatalf("expected exactly 1 created inspection, got %+v", summary.Schedules)
	}

	var inspections []models.Inspection
	if err := db.Where("schedule_id = ?", schedule.ID).Find(&inspections).Error; err != nil {
		t.Fatalf("list inspections: %v", err)
	}
	if len(inspections) != 1 {
		t.Fatalf("expected 1 inspection, got %d", len(inspections))
	}
	if inspections[0].AssetableId != inScope.ID {
		t.Fatalf("inspection targets hydrant %d, want in-scope hydrant %d", inspections[0].AssetableId, inScope.ID)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("safety-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=safety_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
