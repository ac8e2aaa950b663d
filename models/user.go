package models

import (
	"context"
	"errors"
	"time"

	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/utils"
	"gorm.io/gorm"
)

// User records are consumed from the identity collaborator; this subsystem
// never authenticates them, it only resolves assignment and team membership.
type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	DepartmentId *int      `gorm:"index" json:"department_id"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Department *Department `gorm:"foreignKey:DepartmentId" json:"department,omitempty"`
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id)
}

// IsSafetyTeamMember reports whether the user belongs to the K3 department.
func IsSafetyTeamMember(ctx context.Context, userId int) (bool, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Preload("Department").Where("id = ?", userId).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, utils.ErrorRecordNotFound
		}
		return false, err
	}
	if user.Department == nil {
		return false, nil
	}
	return user.Department.Name == SafetyTeamDepartmentName, nil
}
