package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sigapk3/safety_backend/config"
	"gorm.io/gorm"
)

var structValidator = validator.New()

// ValidateStruct runs the `validate` tags on an input struct and wraps any
// failure as ErrorValidation.
func ValidateStruct(input interface{}) error {
	if err := structValidator.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrorValidation, err)
	}
	return nil
}

// ValidateResourceId checks that a row of model T with the given id exists.
// Returns ErrorRecordNotFound when it does not.
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

func ResourceCountWhere[T any](ctx context.Context, cond string, values ...interface{}) (int64, error) {
	db := config.GetDB()
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).Where(cond, values...).Count(&count).Error
	return count, err
}

// FetchModel loads a row of model T by id; ErrorRecordNotFound when missing.
func FetchModel[T any](ctx context.Context, id int) (*T, error) {
	db := config.GetDB()
	var result T
	err := db.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
