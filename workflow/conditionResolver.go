package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sigapk3/safety_backend/config"
	"github.com/sigapk3/safety_backend/models"
	"github.com/sigapk3/safety_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmitInspectionInput is the payload of a completed inspection. Quantities
// are only meaningful for p3k assets and are ignored for the rest.
type SubmitInspectionInput struct {
	Answers    []models.ReportAnswer   `json:"answers" binding:"required"`
	Quantities []models.ReportQuantity `json:"quantities"`
	Notes      string                  `json:"notes"`
}

func (input *SubmitInspectionInput) validate() error {
	if len(input.Answers) == 0 {
		return fmt.Errorf("%w: at least one answer is required", utils.ErrorValidation)
	}
	seen := make(map[int]bool, len(input.Answers))
	for _, answer := range input.Answers {
		if answer.ParameterId <= 0 {
			return fmt.Errorf("%w: invalid parameter_id %d", utils.ErrorValidation, answer.ParameterId)
		}
		if seen[answer.ParameterId] {
			return fmt.Errorf("%w: duplicate answer for parameter %d", utils.ErrorValidation, answer.ParameterId)
		}
		seen[answer.ParameterId] = true
	}
	for _, qty := range input.Quantities {
		if qty.ItemId <= 0 {
			return fmt.Errorf("%w: invalid item_id %d", utils.ErrorValidation, qty.ItemId)
		}
		if qty.CurrentQty.IsNegative() {
			return fmt.Errorf("%w: quantity for item %d must not be negative", utils.ErrorValidation, qty.ItemId)
		}
	}
	return nil
}

// SubmitInspection completes an inspection: evaluates the answers against the
// checklist standards (plus stock minimums for first-aid boxes), writes the
// derived condition back onto the asset, and stores the full report payload on
// the inspection row. One transaction; resubmitting a completed inspection is
// a conflict, not an overwrite.
func SubmitInspection(ctx context.Context, db *gorm.DB, logger *logrus.Logger, clock config.Clock, inspectionId int, input *SubmitInspectionInput) (*models.Inspection, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	// The report payload records who completed the task; an anonymous
	// submission would leave a completed row with no submitter.
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: user identity required to submit an inspection", utils.ErrorValidation)
	}

	var inspection models.Inspection
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", inspectionId).
			First(&inspection).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if inspection.Status == models.InspectionStatusCompleted {
			return fmt.Errorf("%w: inspection %d is already completed", utils.ErrorConflict, inspection.ID)
		}

		source, err := models.ResolveAssetSource(inspection.AssetableType)
		if err != nil {
			return err
		}
		if _, err := source.Find(tx, inspection.AssetableId); err != nil {
			return err
		}

		params, err := models.ComparableChecklistParameters(tx, inspection.AssetableType)
		if err != nil {
			return err
		}

		conforming := EvaluateChecklist(params, input.Answers)

		if inspection.AssetableType == models.AssetTypeP3k {
			stocked, err := resolveP3kStock(tx, inspection.AssetableId, input.Quantities)
			if err != nil {
				return err
			}
			conforming = conforming && stocked
		}

		status := models.AssetStatusSafe
		if !conforming {
			status = models.AssetStatusCritical
		}
		if err := source.SetStatus(tx, inspection.AssetableId, status); err != nil {
			return err
		}

		now := clock.Now()
		report := models.ReportData{
			Version:         models.ReportSchemaVersion,
			Answers:         input.Answers,
			Quantities:      input.Quantities,
			Notes:           input.Notes,
			ConditionResult: status,
			CompletedAt:     now.Format("2006-01-02T15:04:05Z07:00"),
		}
		payload, err := json.Marshal(report)
		if err != nil {
			return err
		}

		return tx.Model(&inspection).Updates(map[string]interface{}{
			"Status":      models.InspectionStatusCompleted,
			"ReportData":  json.RawMessage(payload),
			"UserId":      &userId,
			"CompletedAt": &now,
		}).Error
	})
	if err != nil {
		config.LogError(logger, "workflow", "SubmitInspection", "submit inspection", map[string]interface{}{
			"inspectionId": inspectionId,
		}, err)
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"inspectionId": inspection.ID,
		"assetType":    inspection.AssetableType,
		"assetId":      inspection.AssetableId,
	}).Info("inspection completed")
	return &inspection, nil
}

// resolveP3kStock upserts the counted quantities into the box inventory and
// checks them against the box type's minimums.
func resolveP3kStock(tx *gorm.DB, p3kId int, quantities []models.ReportQuantity) (bool, error) {
	var box models.P3k
	if err := tx.Where("id = ?", p3kId).First(&box).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, utils.ErrorRecordNotFound
		}
		return false, err
	}

	for _, qty := range quantities {
		if err := models.UpsertP3kInventory(tx, box.ID, qty.ItemId, qty.CurrentQty); err != nil {
			return false, err
		}
	}

	standards, err := models.GetP3kItemStandards(tx, box.P3kTypeId)
	if err != nil {
		return false, err
	}
	return EvaluateQuantities(standards, quantities), nil
}

// EvaluateChecklist reports whether the answers conform to the parameter
// standards. A parameter with a non-empty standard flags non-conformance when
// its answer differs from the standard, including when the answer is blank or
// missing entirely; omitting a failing item must not launder the asset back to
// safe. Parameters without a standard never flag. Pure function.
func EvaluateChecklist(params []*models.ChecklistParameter, answers []models.ReportAnswer) bool {
	byParam := make(map[int]string, len(answers))
	for _, answer := range answers {
		byParam[answer.ParameterId] = answer.Response
	}
	for _, param := range params {
		if param.StandardValue == nil {
			continue
		}
		if !answerMatchesStandard(*param.StandardValue, byParam[param.ID]) {
			return false
		}
	}
	return true
}

// answerMatchesStandard compares trimmed, case-insensitively. An empty
// standard always matches; an empty response against a non-empty standard
// does not.
func answerMatchesStandard(standard string, response string) bool {
	standard = strings.TrimSpace(standard)
	if standard == "" {
		return true
	}
	return strings.EqualFold(standard, strings.TrimSpace(response))
}

// EvaluateQuantities reports whether every counted quantity meets its item's
// minimum. Items without a defined minimum, and minimums for items that were
// not counted, never flag. Pure function.
func EvaluateQuantities(standards map[int]decimal.Decimal, quantities []models.ReportQuantity) bool {
	for _, qty := range quantities {
		minimum, ok := standards[qty.ItemId]
		if !ok {
			continue
		}
		if qty.CurrentQty.LessThan(minimum) {
			return false
		}
	}
	return true
}
