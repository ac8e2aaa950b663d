package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/models"
)

// seed-checklists installs the default work-instruction checklists for asset
// types that have none. Idempotent; run once per environment.
func main() {
	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	seeded, err := models.SeedChecklistParameters(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seeding checklist parameters failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d checklist parameters\n", seeded)
}
