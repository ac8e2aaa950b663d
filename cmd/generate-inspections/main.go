package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/models"
	"github.com/sigapk3/safety_backend/workflow"
)

// generate-inspections runs one scheduler cycle and exits. Intended to be
// invoked from cron (or Cloud Scheduler) as an alternative to POST
// /scheduler/run when the API is not deployed.
func main() {
	skipMigrate := flag.Bool("skip-migrate", false, "Skip AutoMigrate before running (schema already managed elsewhere).")
	flag.Parse()

	ctx := context.Background()
	logger := config.GetLogger()
	clock := config.NewSystemClock()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	// The run lock is optional; skip Redis entirely when unconfigured.
	if strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != "" {
		config.ConnectRedisWithRetry()
	}

	if !*skipMigrate {
		models.MigrateTable()
	}

	summary, err := workflow.RunScheduler(ctx, db, logger, clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scheduler run failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
