package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/models"
	"github.com/sigapk3/safety_backend/utils"
	"github.com/sigapk3/safety_backend/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// statusForError maps workflow/model errors to HTTP codes. Anything not in the
// error taxonomy is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, utils.ErrorConfiguration):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func healthzHandler(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func runSchedulerHandler(logger *logrus.Logger, clock config.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := workflow.RunScheduler(c.Request.Context(), config.GetDB(), logger, clock)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// triggerImmediateRun regenerates right after a schedule create/update so a
// policy effective today produces its inspections without waiting for the
// next cron tick. Errors here do not fail the mutation that triggered it.
func triggerImmediateRun(ctx context.Context, logger *logrus.Logger, clock config.Clock) {
	if _, err := workflow.RunScheduler(ctx, config.GetDB(), logger, clock); err != nil {
		config.LogError(logger, "server.go", "triggerImmediateRun", "scheduler run after schedule change", nil, err)
	}
}

func createScheduleHandler(logger *logrus.Logger, clock config.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSchedule
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
		schedule, err := models.CreateSchedule(c.Request.Context(), &input, clock.Location())
		if err != nil {
			abortWithError(c, err)
			return
		}
		triggerImmediateRun(c.Request.Context(), logger, clock)
		c.JSON(http.StatusCreated, schedule)
	}
}

func updateScheduleHandler(logger *logrus.Logger, clock config.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewSchedule
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
		schedule, err := models.UpdateSchedule(c.Request.Context(), id, &input, clock.Location())
		if err != nil {
			abortWithError(c, err)
			return
		}
		triggerImmediateRun(c.Request.Context(), logger, clock)
		c.JSON(http.StatusOK, schedule)
	}
}

func deleteScheduleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		schedule, err := models.DeleteSchedule(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedule)
	}
}

func getScheduleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		schedule, err := models.GetSchedule(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedule)
	}
}

func listSchedulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		schedules, err := models.GetSchedules(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedules)
	}
}

func submitInspectionHandler(logger *logrus.Logger, clock config.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input workflow.SubmitInspectionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
		inspection, err := workflow.SubmitInspection(c.Request.Context(), config.GetDB(), logger, clock, id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, inspection)
	}
}

func getInspectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		inspection, err := models.GetInspection(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, inspection)
	}
}

func openPoolInspectionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		inspections, err := models.GetOpenPoolInspections(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, inspections)
	}
}

func myInspectionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "x-user-id header is required"})
			return
		}
		inspections, err := models.GetUserInspections(c.Request.Context(), userId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, inspections)
	}
}

func claimInspectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		inspection, err := models.ClaimInspection(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, inspection)
	}
}

func checklistParametersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		assetType := models.AssetType(c.Query("asset_type"))
		if !assetType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "asset_type query param is required (apar|hydrant|p3k)"})
			return
		}
		params, err := models.GetChecklistParameters(c.Request.Context(), assetType)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, params)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger logs only requests that collected gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithField("correlationId", cid).Error(c.Errors.String())
		}
	}
}

// identityMiddleware copies the caller identity header into the request
// context. Authentication itself is terminated at the gateway; this service
// trusts x-user-id.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := strings.TrimSpace(c.GetHeader("x-user-id")); raw != "" {
			if userId, err := strconv.Atoi(raw); err == nil && userId > 0 {
				ctx := utils.SetUserIdInContext(c.Request.Context(), userId)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	clock := config.NewSystemClock()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before the DB is ready; app endpoints return 503
	// until dependencies connect.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-user-id")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(identityMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", healthzHandler)

	r.POST("/scheduler/run", runSchedulerHandler(logger, clock))

	r.POST("/schedules", createScheduleHandler(logger, clock))
	r.GET("/schedules", listSchedulesHandler())
	r.GET("/schedules/:id", getScheduleHandler())
	r.PUT("/schedules/:id", updateScheduleHandler(logger, clock))
	r.DELETE("/schedules/:id", deleteScheduleHandler())

	r.GET("/inspections/open", openPoolInspectionsHandler())
	r.GET("/inspections/my", myInspectionsHandler())
	r.GET("/inspections/:id", getInspectionHandler())
	r.POST("/inspections/:id/claim", claimInspectionHandler())
	r.POST("/inspections/:id/submit", submitInspectionHandler(logger, clock))

	r.GET("/checklist-parameters", checklistParametersHandler())

	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	if strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != "" {
		config.ConnectRedisWithRetry()
	} else {
		logger.WithFields(logrus.Fields{"field": "redis"}).
			Warn("REDIS_ADDRESS not set; scheduler run lock disabled")
	}

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"port":     port,
		"timezone": clock.Location().String(),
	}).Info("safety backend started")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
