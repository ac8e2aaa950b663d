package models

import (
	"context"
	"time"

	"github.com/sigapk3/safety_backend/config"
)

// SafetyTeamDepartmentName is the department whose members may claim
// open-pool (k3-assigned) inspection tasks.
const SafetyTeamDepartmentName = "K3"

type Department struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetDepartments(ctx context.Context) ([]*Department, error) {
	db := config.GetDB()
	var results []*Department
	err := db.WithContext(ctx).Order("name").Find(&results).Error
	return results, err
}
