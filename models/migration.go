package models

import (
	"log"

	"github.com/sigapk3/safety_backend/config"
)

// MigrateTable keeps the schema up to date. Safe to run on every start.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Department{},
		&User{},
		&Building{},
		&Floor{},
		&Room{},
		&AparType{},
		&Apar{},
		&HydrantType{},
		&Hydrant{},
		&P3kType{},
		&P3kItem{},
		&P3kTypeItem{},
		&P3k{},
		&P3kInventory{},
		&ChecklistParameter{},
		&Schedule{},
		&Inspection{},
	)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}
