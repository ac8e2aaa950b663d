package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sigapk3/safety_backend/utils"
)

// ReportSchemaVersion is the current report_data shape. Earlier payloads were
// written as a loose map keyed by parameter id, with answers stored either as
// bare scalars or as {response, notes} objects; NormalizeReportData migrates
// those on read.
const ReportSchemaVersion = 1

type ReportAnswer struct {
	ParameterId int    `json:"parameter_id"`
	Response    string `json:"response"`
}

type ReportQuantity struct {
	ItemId     int             `json:"item_id"`
	CurrentQty decimal.Decimal `json:"current_qty"`
}

// ReportData is the structured audit payload of one completed inspection:
// every answer, every counted quantity, and the computed result.
type ReportData struct {
	Version         int              `json:"version"`
	Answers         []ReportAnswer   `json:"answers"`
	Quantities      []ReportQuantity `json:"quantities"`
	Notes           string           `json:"notes,omitempty"`
	ConditionResult AssetStatus      `json:"condition_result"`
	CompletedAt     string           `json:"completed_at"`
}

// legacyReport matches the historical payload: answers keyed by parameter id,
// values either a bare scalar or {response, notes}.
type legacyReport struct {
	Answers         map[string]json.RawMessage `json:"answers"`
	Quantities      []ReportQuantity           `json:"quantities"`
	Notes           string                     `json:"notes"`
	ConditionResult AssetStatus                `json:"condition_result"`
	CompletedAt     string                     `json:"completed_at"`
}

// NormalizeReportData parses a stored report_data payload, migrating legacy
// shapes to the current schema. Unknown future versions are rejected rather
// than guessed at.
func NormalizeReportData(raw json.RawMessage) (*ReportData, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty report payload", utils.ErrorValidation)
	}

	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: malformed report payload: %v", utils.ErrorValidation, err)
	}

	if probe.Version != nil {
		if *probe.Version != ReportSchemaVersion {
			return nil, fmt.Errorf("%w: unsupported report version %d", utils.ErrorValidation, *probe.Version)
		}
		var report ReportData
		if err := json.Unmarshal(raw, &report); err != nil {
			return nil, fmt.Errorf("%w: malformed report payload: %v", utils.ErrorValidation, err)
		}
		return &report, nil
	}

	var legacy legacyReport
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("%w: malformed legacy report payload: %v", utils.ErrorValidation, err)
	}

	report := ReportData{
		Version:         ReportSchemaVersion,
		Answers:         make([]ReportAnswer, 0, len(legacy.Answers)),
		Quantities:      legacy.Quantities,
		Notes:           legacy.Notes,
		ConditionResult: legacy.ConditionResult,
		CompletedAt:     legacy.CompletedAt,
	}

	for key, value := range legacy.Answers {
		paramId, err := strconv.Atoi(key)
		if err != nil {
			// Virtual quantity rows were keyed "virtual_item_<id>"; their
			// counts live in the quantities list already.
			continue
		}
		report.Answers = append(report.Answers, ReportAnswer{
			ParameterId: paramId,
			Response:    legacyAnswerResponse(value),
		})
	}
	sort.Slice(report.Answers, func(i, j int) bool {
		return report.Answers[i].ParameterId < report.Answers[j].ParameterId
	})

	return &report, nil
}

func legacyAnswerResponse(value json.RawMessage) string {
	var nested struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(value, &nested); err == nil && nested.Response != nil {
		return *nested.Response
	}
	var scalar string
	if err := json.Unmarshal(value, &scalar); err == nil {
		return scalar
	}
	return ""
}
